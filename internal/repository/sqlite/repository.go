package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianbeese/estates/internal/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository provides database access for all entities
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository and runs migrations
func New(dbPath string) (*Repository, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	migration, err := migrationsFS.ReadFile("migrations/001_initial.sql")
	if err != nil {
		return err
	}
	_, err = r.db.Exec(string(migration))
	return err
}

// Listing methods

// ReplaceListings swaps the stored catalog for listings in one transaction.
// Catalog order is kept in the position column.
func (r *Repository) ReplaceListings(ctx context.Context, listings []domain.Listing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings`); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (id, position, title, city, type, status, price, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range listings {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode listing %s: %w", l.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			l.ID, i, l.Title, nullableString(l.Address.City),
			string(l.Type), string(l.Status), l.Price, string(payload),
			timestampOrNow(l.CreatedAt), timestampOrNow(l.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert listing %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// All returns the stored catalog in catalog order
func (r *Repository) All(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM listings ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var l domain.Listing
		if err := json.Unmarshal([]byte(payload), &l); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ByID returns one stored listing or domain.ErrNotFound
func (r *Repository) ByID(ctx context.Context, id string) (*domain.Listing, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM listings WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query listing %s: %w", id, err)
	}

	var l domain.Listing
	if err := json.Unmarshal([]byte(payload), &l); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", id, err)
	}
	return &l, nil
}

// CountListings returns the number of stored listings
func (r *Repository) CountListings(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

// Saved id methods

// Load returns the ids stored under key, empty when the key is unknown
func (r *Repository) Load(ctx context.Context, key string) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT ids FROM saved_ids WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return ids, nil
}

// Save replaces the ids stored under key
func (r *Repository) Save(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO saved_ids (key, ids, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET ids = excluded.ids, updated_at = CURRENT_TIMESTAMP
	`, key, string(raw))
	return err
}

// Inquiry methods

// CreateInquiry records a contact inquiry
func (r *Repository) CreateInquiry(ctx context.Context, q *domain.Inquiry) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	if q.Status == "" {
		q.Status = domain.InquiryStatusPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inquiries (id, listing_id, name, email, phone, message, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.ListingID, q.Name, q.Email, q.Phone, q.Message, q.Status, nullableString(q.ErrorMsg), q.CreatedAt)
	return err
}

// UpdateInquiryStatus updates the status of an inquiry
func (r *Repository) UpdateInquiryStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE inquiries SET status = ?, error_msg = ? WHERE id = ?
	`, status, nullableString(errorMsg), id)
	return err
}

// InquiriesForListing returns the inquiries sent about a listing, newest first
func (r *Repository) InquiriesForListing(ctx context.Context, listingID string) ([]domain.Inquiry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, listing_id, name, email, phone, message, status, error_msg, created_at
		FROM inquiries WHERE listing_id = ? ORDER BY created_at DESC
	`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inquiries []domain.Inquiry
	for rows.Next() {
		var q domain.Inquiry
		var errorMsg sql.NullString
		err := rows.Scan(
			&q.ID, &q.ListingID, &q.Name, &q.Email, &q.Phone,
			&q.Message, &q.Status, &errorMsg, &q.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		q.ErrorMsg = errorMsg.String
		inquiries = append(inquiries, q)
	}
	return inquiries, rows.Err()
}

// ActivityLog methods

// LogActivity records an activity
func (r *Repository) LogActivity(ctx context.Context, log *domain.ActivityLog) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (action, entity_type, entity_id, details, error_msg)
		VALUES (?, ?, ?, ?, ?)
	`, log.Action, log.EntityType, log.EntityID, log.Details, log.ErrorMsg)
	if err != nil {
		return err
	}

	id, _ := result.LastInsertId()
	log.ID = id
	log.CreatedAt = time.Now()
	return nil
}

// Stats summarizes what the service has done so far
type Stats struct {
	Listings        int
	InquiriesSent   int
	InquiriesFailed int
	FetchFailures   int
	LastCatalogLoad *time.Time
}

// GetStats collects the counters reported by the bot
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM listings),
			(SELECT COUNT(*) FROM inquiries WHERE status = ?),
			(SELECT COUNT(*) FROM inquiries WHERE status = ?),
			(SELECT COUNT(*) FROM activity_log WHERE action = ?)
	`, domain.InquiryStatusSent, domain.InquiryStatusFailed, domain.ActionFetchFailed).Scan(
		&s.Listings, &s.InquiriesSent, &s.InquiriesFailed, &s.FetchFailures,
	)
	if err != nil {
		return nil, err
	}

	var last time.Time
	err = r.db.QueryRowContext(ctx, `
		SELECT created_at FROM activity_log WHERE action = ? ORDER BY id DESC LIMIT 1
	`, domain.ActionCatalogLoaded).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		s.LastCatalogLoad = &last
	}
	return &s, nil
}

// Helper functions

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func timestampOrNow(v time.Time) interface{} {
	if v.IsZero() {
		return time.Now()
	}
	return v
}
