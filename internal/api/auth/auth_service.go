package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coursehub/campus-api/app/observability/metrics"
	"github.com/coursehub/campus-api/internal/api"
	"github.com/coursehub/campus-api/internal/models"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService orchestrates registration, login and identity lookup.
type AuthService interface {
	// Register validates the payload, enforces the admin role gate, creates
	// the identity and returns it with a fresh access token.
	Register(ctx context.Context, req RegisterRequest) (*models.User, string, error)
	// Login authenticates credentials and returns the identity with a fresh
	// access token. Unknown email and wrong password are indistinguishable.
	Login(ctx context.Context, req LoginRequest) (*models.User, string, error)
	// GetUserByID resolves an identity from a verified token subject.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type AuthServiceImpl struct {
	repo    UserRepo
	hasher  *Hasher
	tokens  *TokenIssuer
	logger  *slog.Logger
	metrics *metrics.AppMetrics
}

func NewAuthService(repo UserRepo, hasher *Hasher, tokens *TokenIssuer, logger *slog.Logger) *AuthServiceImpl {
	metrics.InitAppMetrics()
	return &AuthServiceImpl{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		metrics: metrics.Get(),
	}
}

// Register runs the pipeline: validate, policy-gate the admin role, check
// email uniqueness, hash, create, issue token. Structural validation runs
// before the policy check, so a malformed admin-role payload surfaces
// validation errors first.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		s.metrics.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		s.metrics.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	l := s.logger.With(slog.String("method", "Register"))

	if violations := ValidateRegister(&req); len(violations) > 0 {
		outcome = "invalid"
		return nil, "", api.NewValidationError(violations)
	}

	if models.Role(req.Role) == models.RoleAdmin {
		outcome = "forbidden"
		l.WarnContext(ctx, "Public registration attempted with admin role", slog.String("email", req.Email))
		return nil, "", fmt.Errorf("public registration cannot create admin accounts: %w", api.ErrForbidden)
	}

	_, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err == nil {
		outcome = "conflict"
		return nil, "", fmt.Errorf("email already registered: %w", api.ErrConflict)
	}
	if !errors.Is(err, api.ErrNotFound) {
		return nil, "", err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.CreateUser(ctx, req.Name, req.Email, models.Role(req.Role), passwordHash)
	if err != nil {
		// A racing registration can win between the lookup and the insert;
		// the store reports that as the same conflict.
		if errors.Is(err, api.ErrConflict) {
			outcome = "conflict"
		}
		return nil, "", err
	}

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	outcome = "success"
	l.InfoContext(ctx, "User registered",
		slog.Int64("userID", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, accessToken, nil
}

// Login collapses unknown email and wrong password into one generic
// unauthenticated error so callers cannot enumerate accounts.
func (s *AuthServiceImpl) Login(ctx context.Context, req LoginRequest) (*models.User, string, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		s.metrics.LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		s.metrics.LoginDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	l := s.logger.With(slog.String("method", "Login"))

	if violations := ValidateLogin(&req); len(violations) > 0 {
		outcome = "invalid"
		return nil, "", api.NewValidationError(violations)
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			outcome = "denied"
			return nil, "", fmt.Errorf("invalid email or password: %w", api.ErrUnauthenticated)
		}
		return nil, "", err
	}

	if !s.hasher.Verify(req.Password, user.Password) {
		outcome = "denied"
		return nil, "", fmt.Errorf("invalid email or password: %w", api.ErrUnauthenticated)
	}

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	outcome = "success"
	l.InfoContext(ctx, "User logged in", slog.Int64("userID", user.ID))
	return user, accessToken, nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
