package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pricepal/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "pricepal.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrDatabaseNotFound is returned by Open when the file is missing and
// CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("price database not found")

// PriceDB stores price observations and page snapshots.
type PriceDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures PriceDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the price database in dbDir.
func Open(dbDir string, opts Options) (*PriceDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pdb := &PriceDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pdb, nil
}

// Path returns the database file path.
func (pdb *PriceDB) Path() string {
	return pdb.dbPath
}

// Close closes the database connection.
func (pdb *PriceDB) Close() error {
	return pdb.db.Close()
}

func (pdb *PriceDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product TEXT NOT NULL,
		url TEXT NOT NULL,
		price REAL NOT NULL,
		currency TEXT NOT NULL,
		price_text TEXT,
		status_code INTEGER,
		title TEXT,
		hash TEXT,
		observed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_observations_product ON observations(product, observed_at);

	CREATE TABLE IF NOT EXISTS snapshots (
		url TEXT PRIMARY KEY,
		title TEXT,
		hash TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := pdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveObservation inserts obs and sets its ID. A zero ObservedAt is set to now.
func (pdb *PriceDB) SaveObservation(ctx context.Context, obs *model.Observation) error {
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}

	query := `
	INSERT INTO observations (product, url, price, currency, price_text, status_code, title, hash, observed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := pdb.db.ExecContext(ctx, query,
		obs.Product,
		obs.URL,
		obs.Price,
		obs.Currency,
		obs.PriceText,
		obs.StatusCode,
		obs.Title,
		obs.Hash,
		obs.ObservedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read observation id: %w", err)
	}
	obs.ID = id
	return nil
}

const observationColumns = `id, product, url, price, currency, price_text, status_code, title, hash, observed_at`

// LatestObservation returns the most recent observation of product, or nil
// if there is none.
func (pdb *PriceDB) LatestObservation(ctx context.Context, product string) (*model.Observation, error) {
	query := `SELECT ` + observationColumns + `
	FROM observations
	WHERE product = ?
	ORDER BY observed_at DESC, id DESC
	LIMIT 1
	`

	obs, err := scanObservation(pdb.db.QueryRowContext(ctx, query, product))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest observation: %w", err)
	}
	return obs, nil
}

// History returns up to limit observations of product, newest first.
// A limit of zero or less returns every observation.
func (pdb *PriceDB) History(ctx context.Context, product string, limit int) ([]*model.Observation, error) {
	query := `SELECT ` + observationColumns + `
	FROM observations
	WHERE product = ?
	ORDER BY observed_at DESC, id DESC
	`
	args := []any{product}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := pdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var result []*model.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		result = append(result, obs)
	}
	return result, rows.Err()
}

// ProductStats summarizes the stored history of one product.
type ProductStats struct {
	Name         string    `json:"name"`
	Observations int       `json:"observations"`
	Lowest       float64   `json:"lowest"`
	Highest      float64   `json:"highest"`
	Currency     string    `json:"currency"`
	LastSeen     time.Time `json:"last_seen"`
}

// ListProducts returns every product with stored observations, by name.
func (pdb *PriceDB) ListProducts(ctx context.Context) ([]ProductStats, error) {
	query := `
	SELECT o.product, COUNT(*), MIN(o.price), MAX(o.price), MAX(o.observed_at),
		(SELECT currency FROM observations c WHERE c.product = o.product ORDER BY c.observed_at DESC, c.id DESC LIMIT 1)
	FROM observations o
	GROUP BY o.product
	ORDER BY o.product
	`

	rows, err := pdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var result []ProductStats
	for rows.Next() {
		var s ProductStats
		var lastSeen string
		if err := rows.Scan(&s.Name, &s.Observations, &s.Lowest, &s.Highest, &lastSeen, &s.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		s.LastSeen = parseTimestamp(lastSeen)
		result = append(result, s)
	}
	return result, rows.Err()
}

// SaveSnapshot stores the last seen state of a page, replacing any earlier one.
func (pdb *PriceDB) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}

	query := `
	INSERT INTO snapshots (url, title, hash, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		hash = excluded.hash,
		updated_at = excluded.updated_at
	`

	if _, err := pdb.db.ExecContext(ctx, query,
		snap.URL,
		snap.Title,
		snap.Hash,
		snap.UpdatedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot of url, or nil if there is none.
func (pdb *PriceDB) GetSnapshot(ctx context.Context, url string) (*model.Snapshot, error) {
	query := `SELECT url, title, hash, updated_at FROM snapshots WHERE url = ?`

	var snap model.Snapshot
	var title sql.NullString
	var updated string
	err := pdb.db.QueryRowContext(ctx, query, url).Scan(&snap.URL, &title, &snap.Hash, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snap.Title = title.String
	snap.UpdatedAt = parseTimestamp(updated)
	return &snap, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (*model.Observation, error) {
	var obs model.Observation
	var priceText, title, hash sql.NullString
	var status sql.NullInt64
	var observed string

	if err := row.Scan(
		&obs.ID,
		&obs.Product,
		&obs.URL,
		&obs.Price,
		&obs.Currency,
		&priceText,
		&status,
		&title,
		&hash,
		&observed,
	); err != nil {
		return nil, err
	}

	obs.PriceText = priceText.String
	obs.StatusCode = int(status.Int64)
	obs.Title = title.String
	obs.Hash = hash.String
	obs.ObservedAt = parseTimestamp(observed)
	return &obs, nil
}

// timestampFormats lists the layouts accepted when reading timestamps back.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
