package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
	redisstore "github.com/Codesplay12/Taskify/internal/redis"
	"github.com/Codesplay12/Taskify/pkg/telemetry"
)

// Service implements registration, login, logout and per-request
// authentication against the user directory.
type Service struct {
	users       postgres.UserRepository
	tokens      *TokenIssuer
	denylist    redisstore.TokenDenylist
	limiter     redisstore.RateLimiter
	inviteToken string
	logger      *slog.Logger
}

// NewService wires the auth service. limiter and denylist may be nil, which
// disables login rate limiting and logout revocation respectively.
func NewService(
	users postgres.UserRepository,
	tokens *TokenIssuer,
	denylist redisstore.TokenDenylist,
	limiter redisstore.RateLimiter,
	inviteToken string,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		denylist:    denylist,
		limiter:     limiter,
		inviteToken: inviteToken,
		logger:      logger,
	}
}

// RegisterParams is the input for Register.
type RegisterParams struct {
	Name        string
	Email       string
	Password    string
	AvatarURL   string
	InviteToken string // matching the configured admin invite token grants admin
}

// Register creates a user and returns it with a freshly issued token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*domain.User, string, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, "", &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", &domain.ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	if len(params.Password) < minPasswordLen {
		return nil, "", &domain.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen),
		}
	}

	role := domain.RoleMember
	if params.InviteToken != "" && params.InviteToken == s.inviteToken {
		role = domain.RoleAdmin
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         params.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AvatarURL:    params.AvatarURL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	telemetry.AuthRegistrations.WithLabelValues(string(role)).Inc()
	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)
	return user, token, nil
}

// Login verifies email+password and issues a token. A wrong email and a wrong
// password produce the same error so credentials cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		if err != nil {
			// Limiter outage must not lock out logins.
			s.logger.Warn("login rate limiter unavailable", slog.String("error", err.Error()))
		} else if !ok {
			telemetry.AuthLogins.WithLabelValues("rate_limited").Inc()
			return nil, "", &domain.InvalidCredentialError{Reason: "too many attempts, try again later"}
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		var notFound *domain.UserNotFoundError
		if errors.As(err, &notFound) {
			telemetry.AuthLogins.WithLabelValues("failure").Inc()
			return nil, "", &domain.InvalidCredentialError{Reason: "invalid email or password"}
		}
		return nil, "", err
	}
	if !CheckPassword(user.PasswordHash, password) {
		telemetry.AuthLogins.WithLabelValues("failure").Inc()
		return nil, "", &domain.InvalidCredentialError{Reason: "invalid email or password"}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	telemetry.AuthLogins.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return user, token, nil
}

// Logout denylists the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return err
	}
	if s.denylist == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.logger.Info("token revoked", slog.String("user_id", claims.Subject))
	return nil
}

// Authenticate verifies a raw bearer token and resolves the principal.
// The role comes from the stored user record, not the token claim, so a
// demoted admin loses access as soon as the directory says so.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (domain.Principal, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return domain.Principal{}, err
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Principal{}, err
		}
		if revoked {
			return domain.Principal{}, &domain.InvalidCredentialError{Reason: "token revoked"}
		}
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		var notFound *domain.UserNotFoundError
		if errors.As(err, &notFound) {
			return domain.Principal{}, &domain.InvalidCredentialError{Reason: "unknown subject"}
		}
		return domain.Principal{}, err
	}
	return user.Principal(), nil
}

// Profile returns the caller's own user record.
func (s *Service) Profile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.users.GetByID(ctx, p.ID)
}

// ProfilePatch carries optional profile updates; nil fields are left unchanged.
type ProfilePatch struct {
	Name      *string
	Email     *string
	Password  *string
	AvatarURL *string
}

// UpdateProfile applies a merge-patch to the caller's own record and returns it.
func (s *Service) UpdateProfile(ctx context.Context, p domain.Principal, patch ProfilePatch) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, &domain.ValidationError{Field: "email", Reason: "must be a valid address"}
		}
		user.Email = email
	}
	if patch.Password != nil {
		if len(*patch.Password) < minPasswordLen {
			return nil, &domain.ValidationError{
				Field:  "password",
				Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen),
			}
		}
		hash, err := HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
