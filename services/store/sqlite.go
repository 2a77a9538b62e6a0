package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"sjsage522/leadworker/internal/crawler"
)

// SQLiteStore is the durable duplicate store shared by all sessions and
// processes. Uniqueness of organizations is enforced by the schema, so a
// lost insert race degrades to a no-op instead of an error.
type SQLiteStore struct {
	db *sql.DB
}

var _ crawler.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database and initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		title TEXT,
		address TEXT,
		phone TEXT,
		link TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY
	);

	CREATE INDEX IF NOT EXISTS idx_organizations_city ON organizations(city);
	`

	_, err := s.db.Exec(schema)
	return err
}

// IsKnown reports whether a canonical link has already been recorded.
func (s *SQLiteStore) IsKnown(ctx context.Context, link string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM organizations WHERE link = ?", link,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check link: %w", err)
	}
	return true, nil
}

// SaveOrganization records an accepted lead. Returns false when the link was
// already present (either from an earlier session or a concurrent writer).
func (s *SQLiteStore) SaveOrganization(ctx context.Context, org crawler.Organization) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO organizations (city, title, address, phone, link)
		VALUES (?, ?, ?, ?, ?)
	`, org.City, org.Title, org.Address, org.Phone, org.Link)
	if err != nil {
		return false, fmt.Errorf("failed to save organization: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// RandomByCity returns up to limit stored organizations for a city in
// random order.
func (s *SQLiteStore) RandomByCity(ctx context.Context, city string, limit int) ([]crawler.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, title, address, phone, link FROM organizations
		WHERE city = ?
		ORDER BY RANDOM()
		LIMIT ?
	`, city, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []crawler.Organization
	for rows.Next() {
		var org crawler.Organization
		if err := rows.Scan(&org.City, &org.Title, &org.Address, &org.Phone, &org.Link); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// CountOrganizations returns the number of distinct recorded organizations.
func (s *SQLiteStore) CountOrganizations(ctx context.Context) (int, error) {
	return s.countQuery(ctx, "SELECT COUNT(DISTINCT link) FROM organizations")
}

// CountCities returns the number of distinct cities with recorded leads.
func (s *SQLiteStore) CountCities(ctx context.Context) (int, error) {
	return s.countQuery(ctx, "SELECT COUNT(DISTINCT city) FROM organizations")
}

// SaveUser records a bot user for the statistics panel.
func (s *SQLiteStore) SaveUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (user_id) VALUES (?)", userID)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// CountUsers returns the number of distinct bot users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	return s.countQuery(ctx, "SELECT COUNT(*) FROM users")
}

func (s *SQLiteStore) countQuery(ctx context.Context, query string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
