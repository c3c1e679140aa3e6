package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// donationTables maps each kind to its table. Table names are never taken
// from caller input.
var donationTables = map[models.Kind]string{
	models.KindFriday: "friday_donations",
	models.KindFitr:   "fitr_donations",
	models.KindZakat:  "zakat_donations",
}

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and applies pending migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO users (full_name, email, password_hash, role, mosque_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, full_name, email, password_hash, role, mosque_id, created_at
		)
		SELECT i.id, i.full_name, i.email, i.password_hash, i.role, i.mosque_id, COALESCE(m.name, ''), i.created_at
		FROM inserted i
		LEFT JOIN mosques m ON m.id = i.mosque_id;
		`
	row := s.pool.QueryRow(ctx, query, user.FullName, user.Email, user.PasswordHash, string(user.Role), user.MosqueID)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return created, nil
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT u.id, u.full_name, u.email, u.password_hash, u.role, u.mosque_id, COALESCE(m.name, ''), u.created_at
	FROM users u
	LEFT JOIN mosques m ON u.mosque_id = m.id
	WHERE u.email = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
	SELECT u.id, u.full_name, u.email, u.password_hash, u.role, u.mosque_id, COALESCE(m.name, ''), u.created_at
	FROM users u
	LEFT JOIN mosques m ON u.mosque_id = m.id
	WHERE u.id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// ListMosques returns mosques ordered by name.
func (s *Store) ListMosques(ctx context.Context) ([]models.Mosque, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, city, address FROM mosques ORDER BY name, id;`)
	if err != nil {
		return nil, fmt.Errorf("list mosques: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Mosque, error) {
		var m models.Mosque
		err := row.Scan(&m.ID, &m.Name, &m.City, &m.Address)
		return m, err
	})
}

// MosqueExists reports whether id names a known mosque.
func (s *Store) MosqueExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM mosques WHERE id = $1);`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check mosque: %w", err)
	}
	return exists, nil
}

// ListPurposes returns purposes ordered by id.
func (s *Store) ListPurposes(ctx context.Context) ([]models.Purpose, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM purposes ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list purposes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Purpose, error) {
		var p models.Purpose
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
}

// InsertDonation stores d in its kind's table with a single INSERT.
func (s *Store) InsertDonation(ctx context.Context, d models.Donation) (models.Donation, error) {
	var row pgx.Row
	switch {
	case d.Kind == models.KindFriday && d.Friday != nil:
		const query = `
		WITH inserted AS (
			INSERT INTO friday_donations (mosque_id, user_id, amount_cents, purpose_id, donation_date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, purpose_id, created_at
		)
		SELECT i.id, i.created_at, p.name
		FROM inserted i
		JOIN purposes p ON p.id = i.purpose_id;
		`
		row = s.pool.QueryRow(ctx, query, d.MosqueID, d.UserID, d.Amount.Cents(), d.Friday.PurposeID, d.Friday.DonationDate)
		details := *d.Friday
		if err := row.Scan(&d.ID, &d.CreatedAt, &details.PurposeName); err != nil {
			return models.Donation{}, mapError(err)
		}
		d.Friday = &details
		return d, nil
	case d.Kind.Annual() && d.Annual != nil:
		query := fmt.Sprintf(`
		INSERT INTO %s (mosque_id, user_id, amount_cents, year)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
		`, donationTables[d.Kind])
		row = s.pool.QueryRow(ctx, query, d.MosqueID, d.UserID, d.Amount.Cents(), d.Annual.Year)
		if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
			return models.Donation{}, mapError(err)
		}
		return d, nil
	default:
		return models.Donation{}, models.Invalid("kind", "donation payload does not match kind")
	}
}

// DeleteOwned removes the donation in one conditional DELETE keyed by id and owner.
func (s *Store) DeleteOwned(ctx context.Context, kind models.Kind, id, ownerID int64) error {
	table, ok := donationTables[kind]
	if !ok {
		return storage.ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2;`, table)
	tag, err := s.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByUser returns the owner's Friday donations, newest date first.
func (s *Store) ListByUser(ctx context.Context, ownerID int64) ([]models.Donation, error) {
	const query = `
	SELECT fd.id, fd.mosque_id, fd.user_id, fd.amount_cents, fd.purpose_id, COALESCE(p.name, ''), fd.donation_date, fd.created_at
	FROM friday_donations fd
	LEFT JOIN purposes p ON fd.purpose_id = p.id
	WHERE fd.user_id = $1
	ORDER BY fd.donation_date DESC, fd.id DESC;
	`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Donation, error) {
		var (
			d       models.Donation
			cents   int64
			details models.FridayDetails
		)
		err := row.Scan(&d.ID, &d.MosqueID, &d.UserID, &cents, &details.PurposeID, &details.PurposeName, &details.DonationDate, &d.CreatedAt)
		d.Kind = models.KindFriday
		d.Amount = models.Money(cents)
		d.Friday = &details
		return d, err
	})
}

// SumAndCount totals one kind for one owner.
func (s *Store) SumAndCount(ctx context.Context, kind models.Kind, ownerID int64) (models.Totals, error) {
	table, ok := donationTables[kind]
	if !ok {
		return models.Totals{}, models.Invalid("kind", "unknown donation kind")
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount_cents), 0)::BIGINT, COUNT(*) FROM %s WHERE user_id = $1;`, table)
	var total, count int64
	if err := s.pool.QueryRow(ctx, query, ownerID).Scan(&total, &count); err != nil {
		return models.Totals{}, fmt.Errorf("sum %s donations: %w", kind, err)
	}
	return models.Totals{Total: models.Money(total), Count: count}, nil
}

// WindowedSum totals a mosque's Friday donations dated in [from, to).
func (s *Store) WindowedSum(ctx context.Context, mosqueID int64, from, to time.Time) (models.Money, error) {
	const query = `
	SELECT COALESCE(SUM(amount_cents), 0)::BIGINT
	FROM friday_donations
	WHERE mosque_id = $1 AND donation_date >= $2 AND donation_date < $3;
	`
	var total int64
	if err := s.pool.QueryRow(ctx, query, mosqueID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("windowed sum: %w", err)
	}
	return models.Money(total), nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &role, &user.MosqueID, &user.MosqueName, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return storage.ErrAlreadyExists
		case pgForeignKeyViolation:
			return storage.ErrInvalidReference
		case pgCheckViolation:
			return models.Invalid("", pgErr.ConstraintName+" violated")
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}
