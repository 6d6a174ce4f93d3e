package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/auth"
	"github.com/inihikam/ngobrol/internal/metrics"
	"github.com/inihikam/ngobrol/internal/models"
	"github.com/inihikam/ngobrol/internal/store"
)

// emailRegex validates email addresses per RFC 5322 (simplified).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PresenceCache mirrors the persisted presence status into a cache.
// Writes are best-effort; failures are logged and never fail a request.
type PresenceCache interface {
	SetPresence(ctx context.Context, userID, status string) error
}

// AuthService composes credential hashing, token issuance and the user
// store behind register, login, logout, me and verify.
type AuthService struct {
	users  store.UserStore
	tokens *auth.TokenService
	cache  PresenceCache
	logger zerolog.Logger
}

// NewAuthService creates an AuthService. cache may be nil when no Redis
// is configured.
func NewAuthService(users store.UserStore, tokens *auth.TokenService, cache PresenceCache, logger zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cache: cache, logger: logger}
}

func validateRegister(in *models.CreateUserInput) *apperr.Error {
	details := map[string][]string{}
	if len(in.Username) < 3 || len(in.Username) > 50 {
		details["username"] = append(details["username"], "Username must be between 3 and 50 characters")
	}
	if len(in.Email) > 254 || !emailRegex.MatchString(in.Email) {
		details["email"] = append(details["email"], "Invalid email format")
	}
	if len(in.Password) < 8 {
		details["password"] = append(details["password"], "Password must be at least 8 characters")
	}
	if in.DisplayName != nil && len(*in.DisplayName) > 100 {
		details["display_name"] = append(details["display_name"], "Display name must be less than 100 characters")
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

func validateLogin(in *models.LoginInput) *apperr.Error {
	details := map[string][]string{}
	if !emailRegex.MatchString(in.Email) {
		details["email"] = append(details["email"], "Invalid email format")
	}
	if in.Password == "" {
		details["password"] = append(details["password"], "Password is required")
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

// Register creates a new identity and issues its first session token.
// Email and username uniqueness is pre-checked best-effort; the unique
// constraints decide races, translated per violated constraint.
func (s *AuthService) Register(ctx context.Context, in *models.CreateUserInput) (*models.AuthResponse, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	if exists, err := s.users.EmailExists(ctx, in.Email); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	} else if exists {
		return nil, apperr.New(apperr.KindEmailExists)
	}

	if exists, err := s.users.UsernameExists(ctx, in.Username); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	} else if exists {
		return nil, apperr.New(apperr.KindUsernameExists)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err)
	}

	user, err := s.users.Create(ctx, in, hash)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			// Lost the uniqueness race; the constraint picked the field.
			return nil, appErr
		}
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err)
	}

	metrics.UsersRegistered.Inc()
	metrics.TokensIssued.Inc()
	s.logger.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")

	return &models.AuthResponse{User: user.Public(), Token: token}, nil
}

// Login verifies credentials and issues a session token. An unknown
// email and a wrong password both fail with KindInvalidCredentials so
// account existence never leaks.
func (s *AuthService) Login(ctx context.Context, in *models.LoginInput) (*models.AuthResponse, error) {
	if err := validateLogin(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.Logins.WithLabelValues("failure").Inc()
			return nil, apperr.New(apperr.KindInvalidCredentials)
		}
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}

	ok, err := auth.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		// Structurally invalid stored hash, never a mismatch.
		return nil, apperr.Wrap(apperr.KindInternal, err)
	}
	if !ok {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, apperr.New(apperr.KindInvalidCredentials)
	}

	if err := s.users.UpdateStatus(ctx, user.ID, models.StatusOnline); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	user.Status = models.StatusOnline
	s.cachePresence(ctx, user.ID, models.StatusOnline)

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err)
	}

	metrics.Logins.WithLabelValues("success").Inc()
	metrics.TokensIssued.Inc()

	return &models.AuthResponse{User: user.Public(), Token: token}, nil
}

// Me returns the caller's public profile.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindUserNotFound)
		}
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	resp := user.Public()
	return &resp, nil
}

// Logout sets presence offline. The session token stays valid until its
// natural expiry; there is no revocation list.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.UpdateStatus(ctx, userID, models.StatusOffline); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.KindUserNotFound)
		}
		return apperr.Wrap(apperr.KindDatabase, err)
	}
	s.cachePresence(ctx, userID, models.StatusOffline)
	return nil
}

// UpdateProfile applies a partial profile update. Username conflicts
// are translated the same way as at registration.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch models.UserPatch) (*models.UserResponse, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		var appErr *apperr.Error
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.New(apperr.KindUserNotFound)
		case errors.As(err, &appErr):
			return nil, appErr
		default:
			return nil, apperr.Wrap(apperr.KindDatabase, err)
		}
	}

	if patch.Status != nil {
		s.cachePresence(ctx, userID, *patch.Status)
	}

	resp := user.Public()
	return &resp, nil
}

func validatePatch(patch models.UserPatch) *apperr.Error {
	details := map[string][]string{}
	if patch.Username != nil && (len(*patch.Username) < 3 || len(*patch.Username) > 50) {
		details["username"] = append(details["username"], "Username must be between 3 and 50 characters")
	}
	if patch.DisplayName != nil && len(*patch.DisplayName) > 100 {
		details["display_name"] = append(details["display_name"], "Display name must be less than 100 characters")
	}
	if patch.Status != nil {
		switch *patch.Status {
		case models.StatusOnline, models.StatusOffline, models.StatusAway, models.StatusBusy:
		default:
			details["status"] = append(details["status"], "Status must be one of online, offline, away, busy")
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

// VerifyToken validates a session token and re-resolves the subject
// from the store. The embedded email/username claims are never trusted;
// a deactivated or deleted account fails even with a valid signature.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindUserNotFound)
		}
		return nil, apperr.Wrap(apperr.KindDatabase, err)
	}
	return user, nil
}

func (s *AuthService) cachePresence(ctx context.Context, userID uuid.UUID, status string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPresence(ctx, userID.String(), status); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("presence cache update failed")
	}
}
