package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/ratelimit"
	"github.com/garayn/garayn-backend/internal/users"
)

const (
	loginLimit  = 5
	loginWindow = time.Minute
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AttemptRecorder logs login outcomes for audit. Implementations swallow
// their own errors.
type AttemptRecorder interface {
	LoginAttempt(ctx context.Context, email, ip string, success bool)
}

// ResetLinker produces a password-reset link for an account.
type ResetLinker interface {
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// Mailer delivers the password-reset link. The default implementation logs
// it; real delivery is an external concern.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes reset links to the log instead of sending mail.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.Log.Info().Str("email", email).Str("link", link).Msg("password reset link generated")
	return nil
}

// Service is the admin auth gate.
type Service struct {
	verifier CredentialVerifier
	users    *users.Repo
	tokens   *TokenManager
	limiter  *ratelimit.Limiter
	attempts AttemptRecorder
	reset    ResetLinker
	mailer   Mailer
	log      zerolog.Logger
}

func NewService(
	verifier CredentialVerifier,
	userRepo *users.Repo,
	tokens *TokenManager,
	limiter *ratelimit.Limiter,
	attempts AttemptRecorder,
	reset ResetLinker,
	mailer Mailer,
	log zerolog.Logger,
) *Service {
	return &Service{
		verifier: verifier,
		users:    userRepo,
		tokens:   tokens,
		limiter:  limiter,
		attempts: attempts,
		reset:    reset,
		mailer:   mailer,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate verifies credentials and then, separately, the admin role.
// Valid credentials without the admin role fail with ErrAdminRequired, not
// ErrInvalidCredentials. Every outcome is recorded as a login attempt in
// the background.
func (s *Service) Authenticate(ctx context.Context, email, password, ip string) (Session, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) || password == "" {
		s.recordAttempt(email, ip, false)
		return Session{}, "", ErrInvalidCredentials
	}

	if err := s.limiter.Check(ctx, "login:"+email, loginLimit, loginWindow); err != nil {
		s.recordAttempt(email, ip, false)
		return Session{}, "", err
	}

	uid, err := s.verifier.SignIn(ctx, email, password)
	if err != nil {
		s.recordAttempt(email, ip, false)
		if err == ErrInvalidCredentials {
			return Session{}, "", ErrInvalidCredentials
		}
		return Session{}, "", fmt.Errorf("verify credentials: %w", err)
	}

	user, err := s.users.Get(ctx, email)
	if err != nil {
		s.recordAttempt(email, ip, false)
		return Session{}, "", fmt.Errorf("load user record: %w", err)
	}
	if user == nil || user.Role != "admin" {
		s.recordAttempt(email, ip, false)
		return Session{}, "", ErrAdminRequired
	}

	s.recordAttempt(email, ip, true)

	now := time.Now().UTC()
	if err := s.users.TouchSession(ctx, email, now); err != nil {
		// Session marker upkeep is advisory.
		s.log.Warn().Err(err).Str("email", email).Msg("failed to upsert session marker")
	}

	token, session, err := s.tokens.Issue(Session{
		ID:      uid,
		Email:   email,
		Role:    user.Role,
		IsAdmin: true,
	})
	if err != nil {
		return Session{}, "", fmt.Errorf("sign session token: %w", err)
	}
	return session, token, nil
}

// RequestPasswordReset generates and delivers a reset link. The caller
// validates the email format first.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	link, err := s.reset.PasswordResetLink(ctx, email)
	if err != nil {
		return fmt.Errorf("generate reset link: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, email, link); err != nil {
		return fmt.Errorf("deliver reset link: %w", err)
	}
	return nil
}

// recordAttempt is fire-and-forget: a failure to write the audit record
// must not change the login outcome.
func (s *Service) recordAttempt(email, ip string, success bool) {
	if s.attempts == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.attempts.LoginAttempt(ctx, email, ip, success)
	}()
}
