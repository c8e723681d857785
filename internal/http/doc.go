// Package http exposes the e-learning JSON API over chi.
//
// Endpoints, all under /api:
//   - POST /auth/signup, POST /auth/signin, POST /auth/signout, GET /auth/me.
//     Sign-in sets the `session_token` cookie; every endpoint also accepts
//     `Authorization: Bearer <token>`.
//   - GET, POST /categories.
//   - GET, POST /courses; GET, PUT, DELETE /courses/{id};
//     POST /courses/{id}/published with {"is_published": bool}.
//   - GET, POST /courses/{id}/lessons.
//
// Errors are returned as {"error": "..."}. The page areas /admin, /student,
// /courses/ and /dashboard pass through the Guard middleware, which answers
// 307 redirects instead of JSON. /healthz and /metrics sit outside /api.
package http
