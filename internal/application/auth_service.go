package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AuthService coordinates the identity provider with profile storage.
type AuthService struct {
	identity IdentityProvider
	profiles ProfileRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewAuthService constructs an AuthService with the default logger.
func NewAuthService(identity IdentityProvider, profiles ProfileRepository, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(identity, profiles, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(identity IdentityProvider, profiles ProfileRepository, now func() time.Time, logger *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		identity: identity,
		profiles: profiles,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// SignUp registers an identity and creates its student profile. A profile
// failure after a successful registration is reported but not undone.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (result SignUpResult, err error) {
	if s == nil || s.identity == nil || s.profiles == nil {
		err = unexpected("AuthService not configured")
		return
	}

	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	logger := s.loggerWith(ctx, "SignUp", "email", strings.ToLower(email))
	defer func() {
		logOutcome(ctx, logger.With("user_id", result.Identity.ID), err, "account created")
	}()

	if email == "" || input.Password == "" || fullName == "" {
		err = NewValidationError(MsgSignUpFieldsRequired)
		return
	}

	identity, signUpErr := s.identity.SignUp(ctx, email, input.Password, fullName)
	if signUpErr != nil {
		err = providerError(signUpErr)
		return
	}
	result.Identity = identity

	now := s.now()
	profile, createErr := s.profiles.CreateProfile(ctx, Profile{
		ID:        identity.ID,
		FullName:  fullName,
		Role:      RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if createErr != nil {
		err = storeFailure(MsgProfileCreateFailed, createErr)
		return
	}
	result.Profile = profile
	return
}

// SignIn authenticates credentials and returns the new session with the profile.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (result SignInResult, err error) {
	if s == nil || s.identity == nil || s.profiles == nil {
		err = unexpected("AuthService not configured")
		return
	}

	email := strings.TrimSpace(input.Email)
	logger := s.loggerWith(ctx, "SignIn", "email", strings.ToLower(email))
	defer func() {
		logOutcome(ctx, logger.With("user_id", result.Session.UserID), err, "signed in")
	}()

	if email == "" || input.Password == "" {
		err = NewValidationError(MsgSignInFieldsRequired)
		return
	}

	session, signInErr := s.identity.SignIn(ctx, email, input.Password)
	if signInErr != nil {
		if errors.Is(signInErr, ErrInvalidCredentials) {
			err = &Error{Kind: KindUnauthenticated, Message: MsgBadCredentials, Err: signInErr}
			return
		}
		err = fmt.Errorf("sign in: %w", signInErr)
		return
	}
	result.Session = session

	profile, profileErr := s.profiles.GetProfile(ctx, session.UserID)
	if profileErr != nil {
		err = storeFailure(MsgProfileFetchFailed, profileErr)
		return
	}
	result.Profile = profile
	return
}

// SignOut ends the caller's session.
func (s *AuthService) SignOut(ctx context.Context, caller Caller) (err error) {
	if s == nil || s.identity == nil {
		return unexpected("AuthService not configured")
	}

	logger := s.loggerWith(ctx, "SignOut", "token_present", caller.Token != "")
	defer func() {
		logOutcome(ctx, logger, err, "signed out")
	}()

	if signOutErr := s.identity.SignOut(ctx, caller.Token); signOutErr != nil {
		err = providerError(signOutErr)
	}
	return
}

// Me returns the caller's profile. Any profile lookup failure reads as absent.
func (s *AuthService) Me(ctx context.Context, caller Caller) (result CurrentUser, err error) {
	if s == nil || s.identity == nil || s.profiles == nil {
		err = unexpected("AuthService not configured")
		return
	}

	logger := s.loggerWith(ctx, "Me")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
		}
	}()

	session, sessionErr := s.identity.Session(ctx, caller.Token)
	if sessionErr != nil {
		err = unauthenticated(sessionErr)
		return
	}

	profile, profileErr := s.profiles.GetProfile(ctx, session.UserID)
	if profileErr != nil {
		err = notFound(MsgProfileNotFound, profileErr)
		return
	}

	result = CurrentUser{Email: session.Email, Profile: profile}
	return
}
