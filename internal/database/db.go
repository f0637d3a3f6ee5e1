package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the database file created inside the data directory.
const FileName = "cogscreen.db"

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// PoolConfig sizes the sql.DB connection pool.
type PoolConfig struct {
	MaxOpenConns int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime" yaml:"max_lifetime" mapstructure:"max_lifetime"`
}

// DefaultPoolConfig suits a single-writer SQLite file.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxOpenConns: 8, MaxIdleConns: 4, MaxLifetime: 5 * time.Minute}
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db     *sql.DB
	config PoolConfig
}

// NewConnectionPool applies cfg to db
func NewConnectionPool(db *sql.DB, cfg PoolConfig) *ConnectionPool {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	return &ConnectionPool{db: db, config: cfg}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.config.MaxOpenConns,
		"max_idle_connections": cp.config.MaxIdleConns,
		"max_lifetime_seconds": cp.config.MaxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (creating if needed) the result store inside dataDir.
func NewDB(dataDir string, cfg PoolConfig) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if cfg.MaxOpenConns <= 0 {
		cfg = DefaultPoolConfig()
	}

	dbPath := filepath.Join(dataDir, FileName)
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, cfg)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"path", dbPath,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"max_lifetime", cfg.MaxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// One row per scoring result. The full result and the feature set
		// it was computed from are kept as JSON; the scalar columns exist
		// for filtering and ordering.
		`CREATE TABLE IF NOT EXISTS scoring_results (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL, -- unix nanoseconds, UTC
			risk_score REAL NOT NULL,
			risk_category TEXT NOT NULL,
			confidence REAL NOT NULL,
			model_used TEXT NOT NULL,
			model_name TEXT NOT NULL,
			analysis_type TEXT,
			result_json TEXT NOT NULL,
			features_json TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS attributions (
			id TEXT PRIMARY KEY,
			scoring_id TEXT NOT NULL UNIQUE,
			method TEXT NOT NULL,
			explanation_json TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (scoring_id) REFERENCES scoring_results(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scoring_results_created ON scoring_results(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scoring_results_category ON scoring_results(risk_category)`,
		`CREATE INDEX IF NOT EXISTS idx_attributions_scoring_id ON attributions(scoring_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

const (
	stmtInsertResult      = "insert_result"
	stmtInsertAttribution = "insert_attribution"
	stmtGetResult         = "get_result"
	stmtListResults       = "list_results"
	stmtDeleteResult      = "delete_result"
	stmtDeleteBefore      = "delete_before"
)

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		stmtInsertResult: `INSERT INTO scoring_results (
			id, created_at, risk_score, risk_category, confidence,
			model_used, model_name, analysis_type, result_json, features_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		stmtInsertAttribution: `INSERT INTO attributions (id, scoring_id, method, explanation_json, created_at)
			VALUES (?, ?, ?, ?, ?)`,

		stmtGetResult: `SELECT r.result_json, r.features_json, a.explanation_json
			FROM scoring_results r
			LEFT JOIN attributions a ON a.scoring_id = r.id
			WHERE r.id = ?`,

		stmtListResults: `SELECT r.result_json, r.features_json, a.explanation_json
			FROM scoring_results r
			LEFT JOIN attributions a ON a.scoring_id = r.id
			WHERE r.created_at >= ? AND r.created_at < ?
			ORDER BY r.created_at DESC, r.id ASC
			LIMIT ?`,

		stmtDeleteResult: `DELETE FROM scoring_results WHERE id = ?`,

		stmtDeleteBefore: `DELETE FROM scoring_results WHERE created_at < ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
