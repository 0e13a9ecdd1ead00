package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DB_TYPE selects the
// driver: sqlite (default) or postgres. Postgres connects through
// DATABASE_URL; sqlite stores its file under the data directory.
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch dbType {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
	default:
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}

		dbPath := filepath.Join(dataDir, "flashdeck.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}

		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db

	return initializeSchema()
}

// ConnectForTest opens an in-memory sqlite database and applies the
// schema. Used by tests only.
func ConnectForTest() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %v", err)
	}
	// Every new connection would see a fresh empty in-memory database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create flashcard_sets table
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS flashcard_sets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			card_count INTEGER NOT NULL DEFAULT 0,
			times_studied INTEGER NOT NULL DEFAULT 0,
			average_score INTEGER NOT NULL DEFAULT 0,
			last_studied_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flashcard_sets table: %v", err)
	}

	// Create flashcards table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS flashcards (
			id TEXT PRIMARY KEY,
			set_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			hint TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT '',
			times_reviewed INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (set_id) REFERENCES flashcard_sets(id),
			UNIQUE(set_id, position)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flashcards table: %v", err)
	}

	// Create review_outcomes table. (session_id, position) is the
	// idempotency key for outcome writes.
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS review_outcomes (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			set_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			answered_at TIMESTAMP NOT NULL,
			PRIMARY KEY (session_id, position)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_outcomes table: %v", err)
	}

	return nil
}
