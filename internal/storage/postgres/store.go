package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users and payments.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer' CHECK (role IN ('admin', 'viewer')),
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			amount DOUBLE PRECISION NOT NULL,
			receiver TEXT NOT NULL,
			method TEXT NOT NULL CHECK (method IN ('upi', 'card', 'netbanking')),
			status TEXT NOT NULL CHECK (status IN ('success', 'pending', 'failed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`ALTER TABLE payments ALTER COLUMN amount TYPE DOUBLE PRECISION;`,
		`CREATE INDEX IF NOT EXISTS payments_created_at_idx ON payments (created_at DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS payments_status_idx ON payments (status);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, username, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, username, role, password_hash, created_at;`
	row := s.pool.QueryRow(ctx, query, user.ID, user.Username, string(user.Role), user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("postgres.CreateUser: %w", err)
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT id::text, username, role, password_hash, created_at FROM users WHERE username = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	const query = `SELECT id::text, username, role, password_hash, created_at FROM users ORDER BY created_at ASC, username ASC;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres.ListUsers: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.ListUsers: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.ListUsers (rows): %w", err)
	}
	return users, nil
}

const paymentColumns = `id::text, amount::float8, receiver, method, status, created_at, updated_at`

// CreatePayment inserts a payment row.
func (s *Store) CreatePayment(ctx context.Context, payment models.Payment) (models.Payment, error) {
	query := `
		INSERT INTO payments (id, amount, receiver, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + paymentColumns + `;`
	row := s.pool.QueryRow(ctx, query,
		payment.ID, payment.Amount, payment.Receiver, string(payment.Method), string(payment.Status),
		payment.CreatedAt, payment.UpdatedAt)
	created, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Payment{}, storage.ErrAlreadyExists
		}
		return models.Payment{}, fmt.Errorf("postgres.CreatePayment: %w", err)
	}
	return created, nil
}

// FindPayment fetches a payment by id. Ids that are not UUIDs cannot exist.
func (s *Store) FindPayment(ctx context.Context, id string) (models.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Payment{}, storage.ErrNotFound
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1;`
	return scanPayment(s.pool.QueryRow(ctx, query, id))
}

// FindPayments returns one window of matching payments, newest first.
func (s *Store) FindPayments(ctx context.Context, q storage.PaymentQuery) ([]models.Payment, error) {
	if q.Skip < 0 {
		return []models.Payment{}, nil
	}
	where, args := whereClause(q.Filter)
	args = append(args, q.Skip)
	query := fmt.Sprintf(`SELECT %s FROM payments%s ORDER BY created_at DESC, id DESC OFFSET $%d`,
		paymentColumns, where, len(args))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres.FindPayments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.FindPayments: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.FindPayments (rows): %w", err)
	}
	return payments, nil
}

// CountPayments counts payments matching filter.
func (s *Store) CountPayments(ctx context.Context, filter models.PaymentFilter) (int64, error) {
	where, args := whereClause(filter)
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres.CountPayments: %w", err)
	}
	return count, nil
}

// SumAmount totals the amount of payments matching filter.
func (s *Store) SumAmount(ctx context.Context, filter models.PaymentFilter) (float64, error) {
	where, args := whereClause(filter)
	var total float64
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::float8 FROM payments`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres.SumAmount: %w", err)
	}
	return total, nil
}

// RevenueByDay groups successful payments since the given instant by local calendar day.
func (s *Store) RevenueByDay(ctx context.Context, since time.Time, loc *time.Location) ([]models.DailyRevenue, error) {
	const query = `
		SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day, SUM(amount)::float8
		FROM payments
		WHERE status = 'success' AND created_at >= $1
		GROUP BY day
		ORDER BY day ASC;`
	zone, err := zoneName(loc)
	if err != nil {
		return nil, fmt.Errorf("postgres.RevenueByDay: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, since, zone)
	if err != nil {
		return nil, fmt.Errorf("postgres.RevenueByDay: %w", err)
	}
	defer rows.Close()

	series := []models.DailyRevenue{}
	for rows.Next() {
		var day models.DailyRevenue
		if err := rows.Scan(&day.Date, &day.Total); err != nil {
			return nil, fmt.Errorf("postgres.RevenueByDay: %w", err)
		}
		series = append(series, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.RevenueByDay (rows): %w", err)
	}
	return series, nil
}

func whereClause(f models.PaymentFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Method != "" {
		add("method = $%d", string(f.Method))
	}
	if f.StartDate != nil {
		add("created_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("created_at <= $%d", *f.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var p models.Payment
	var method, status string
	if err := row.Scan(&p.ID, &p.Amount, &p.Receiver, &method, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Payment{}, storage.ErrNotFound
		}
		return models.Payment{}, err
	}
	p.Method = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	return p, nil
}

// zoneName is the IANA name Postgres resolves for AT TIME ZONE. The process
// local zone has no name the server can look up.
func zoneName(loc *time.Location) (string, error) {
	if loc == nil {
		return "UTC", nil
	}
	name := loc.String()
	if name == "" || name == "Local" {
		return "", fmt.Errorf("time zone %q has no IANA name", name)
	}
	return name, nil
}
