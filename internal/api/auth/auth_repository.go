package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	cache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/coursehub/campus-api/app/observability/metrics"
	"github.com/coursehub/campus-api/internal/api"
	"github.com/coursehub/campus-api/internal/models"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo is the sole owner of identity state. Nothing above it reads or
// writes user records directly.
type UserRepo interface {
	// GetUserByEmail returns the user for a normalized email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser inserts a new identity and assigns a fresh id. A duplicate
	// email fails with ErrConflict without mutating state; under concurrent
	// registration exactly one insert wins.
	CreateUser(ctx context.Context, name, email string, role models.Role, passwordHash string) (*models.User, error)
	// GetUserByID returns the user for an id, or ErrNotFound.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// PGXQuerier is the slice of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PGXQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userIDCacheTTL = time.Minute

type PostgresUserRepo struct {
	logger  *slog.Logger
	pgpool  PGXQuerier
	idCache *cache.Cache
	metrics *metrics.AppMetrics
}

func NewPostgresUserRepo(pgpool PGXQuerier, logger *slog.Logger) *PostgresUserRepo {
	metrics.InitAppMetrics()
	return &PostgresUserRepo{
		logger:  logger,
		pgpool:  pgpool,
		idCache: cache.New(userIDCacheTTL, 5*time.Minute),
		metrics: metrics.Get(),
	}
}

// observeQuery records duration and error counts for one query.
func (r *PostgresUserRepo) observeQuery(ctx context.Context, operation string, start time.Time, err error) {
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("operation", operation)))
	}
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserByEmail"))

	var user models.User
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at, updated_at
         FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	r.observeQuery(ctx, "get_user_by_email", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user with email not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return &user, nil
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, name, email string, role models.Role, passwordHash string) (*models.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("email", email))

	user := models.User{
		Name:     name,
		Email:    email,
		Password: passwordHash,
		Role:     role,
	}
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role)
         VALUES ($1, $2, $3, $4)
         RETURNING id, created_at, updated_at`,
		name, email, passwordHash, string(role)).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	r.observeQuery(ctx, "create_user", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			l.WarnContext(ctx, "Duplicate email on insert")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	return &user, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	cacheKey := strconv.FormatInt(id, 10)
	if cached, ok := r.idCache.Get(cacheKey); ok {
		user := cached.(models.User)
		return &user, nil
	}

	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.Int64("db.user.id", id),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserByID"), slog.Int64("userID", id))

	var user models.User
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at, updated_at
         FROM users WHERE id = $1`,
		id).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	r.observeQuery(ctx, "get_user_by_id", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %d not found: %w", id, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by id", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}

	// Positive hits only; identity deletion happens outside this subsystem,
	// so a short staleness window is acceptable.
	r.idCache.Set(cacheKey, user, cache.DefaultExpiration)

	span.SetStatus(codes.Ok, "User fetched")
	return &user, nil
}
