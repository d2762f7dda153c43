package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/chainquiz/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Source represents a content source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source and its import records.
func (db *DB) DeleteSource(id int64) error {
	_, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", id, err)
	}
	return nil
}

// Import records a piece of content published from a source.
type Import struct {
	Hash       string
	Kind       string
	Title      string
	ChainID    int64
	SourceID   int64
	ImportedAt time.Time
}

// InsertImport records a newly published piece of content.
func (db *DB) InsertImport(imp Import) error {
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO imports (hash, kind, title, chain_id, source_id, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, imp.Hash, imp.Kind, imp.Title, imp.ChainID, imp.SourceID, imp.ImportedAt)
	if err != nil {
		return fmt.Errorf("failed to insert import %s: %w", imp.Hash, err)
	}
	return nil
}

// FindImportByHash retrieves an import record by content hash.
func (db *DB) FindImportByHash(hash string) (*Import, error) {
	var imp Import
	row := db.conn.QueryRow(`
		SELECT hash, kind, title, chain_id, source_id, imported_at
		FROM imports WHERE hash = ?
	`, hash)

	err := row.Scan(&imp.Hash, &imp.Kind, &imp.Title, &imp.ChainID, &imp.SourceID, &imp.ImportedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not imported yet
		}
		return nil, fmt.Errorf("failed to find import by hash %s: %w", hash, err)
	}
	return &imp, nil
}

// GetImportsBySourceID retrieves all imports associated with a source.
func (db *DB) GetImportsBySourceID(sourceID int64) ([]Import, error) {
	rows, err := db.conn.Query(`
		SELECT hash, kind, title, chain_id, source_id, imported_at
		FROM imports WHERE source_id = ?
		ORDER BY imported_at
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get imports for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.Hash, &imp.Kind, &imp.Title, &imp.ChainID, &imp.SourceID, &imp.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import row for source ID %d: %w", sourceID, err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// DeleteImportByHash removes an import record by its hash.
func (db *DB) DeleteImportByHash(hash string) error {
	_, err := db.conn.Exec(`
		DELETE FROM imports
		WHERE hash = ?
	`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete import with hash %s: %w", hash, err)
	}
	return nil
}

// InsertTransaction journals one contract write.
func (db *DB) InsertTransaction(tx domain.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO transactions (hash, method, account, subject, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.Hash, tx.Method, tx.Account, tx.Subject, int(tx.Status), tx.Error, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s for %s: %w", tx.Method, tx.Account, err)
	}
	return nil
}

// RecentTransactions returns the newest journal entries for account.
func (db *DB) RecentTransactions(account string, limit int) ([]domain.Transaction, error) {
	rows, err := db.conn.Query(`
		SELECT id, hash, method, account, subject, status, error, created_at
		FROM transactions WHERE account = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %s: %w", account, err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var status int
		if err := rows.Scan(&tx.ID, &tx.Hash, &tx.Method, &tx.Account, &tx.Subject, &status, &tx.Error, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row for %s: %w", account, err)
		}
		tx.Status = domain.TxStatus(status)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
