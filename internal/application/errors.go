package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by an IdentityProvider when the caller has no valid session.
	ErrNoSession = errors.New("application: no session")
	// ErrInvalidCredentials is returned by an IdentityProvider when sign-in is rejected.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrNotFound is returned by repositories when the requested row does not exist.
	ErrNotFound = errors.New("application: not found")
)

// Kind classifies failures so the transport can pick a status code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidTransition
	KindStore
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindStore:
		return "store"
	case KindProvider:
		return "provider"
	default:
		return "unexpected"
	}
}

// User-facing messages.
const (
	MsgUnauthenticated      = "Non authentifié"
	MsgForbidden            = "Accès non autorisé"
	MsgServerError          = "Erreur serveur"
	MsgSignUpFieldsRequired = "Email, mot de passe et nom complet sont requis"
	MsgSignInFieldsRequired = "Email et mot de passe sont requis"
	MsgBadCredentials       = "Email ou mot de passe incorrect"
	MsgProfileCreateFailed  = "Erreur lors de la création du profil"
	MsgProfileFetchFailed   = "Erreur lors de la récupération du profil"
	MsgProfileNotFound      = "Profil non trouvé"
	MsgCategoryNameRequired = "Le nom de la catégorie est requis"
	MsgCourseFieldsRequired = "Titre, description et prix sont requis"
	MsgCourseFieldEmpty     = "Le titre et la description ne peuvent pas être vides"
	MsgNegativePrice        = "Le prix doit être positif ou nul"
	MsgCourseNotFound       = "Cours non trouvé"
	MsgPublishedNotBoolean  = "is_published doit être true ou false"
	MsgLessonCheckFailed    = "Erreur vérification leçons"
	MsgPublishWithoutLesson = "Impossible de publier un cours sans leçons"
	MsgLessonFieldsRequired = "Titre et contenu sont requis"
)

// Error is the single failure type returned by services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf reports the Kind of err, or KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// NewValidationError reports a malformed or missing input field.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func unauthenticated(cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: MsgUnauthenticated, Err: cause}
}

func forbidden(cause error) *Error {
	return &Error{Kind: KindForbidden, Message: MsgForbidden, Err: cause}
}

func notFound(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}

func invalidTransition(message string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: message}
}

// storeError passes the store's own message through to the caller.
func storeError(err error) *Error {
	return &Error{Kind: KindStore, Message: err.Error(), Err: err}
}

// storeFailure replaces the store message with a fixed one.
func storeFailure(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

func providerError(err error) *Error {
	return &Error{Kind: KindProvider, Message: err.Error(), Err: err}
}

func unexpected(format string, args ...any) error {
	return &Error{Kind: KindUnexpected, Err: fmt.Errorf(format, args...)}
}
