package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

var ErrParamNotFound = errors.New("parameter not found")

const initSchema = `
  CREATE TABLE IF NOT EXISTS param (
    name TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TIMESTAMP
  );
`

// ParamRepo stores named binary parameters.
type ParamRepo struct {
	logger *log.Logger
	db     *sql.DB
}

// Open opens (or creates) the sqlite database at path and prepares the schema.
func Open(logger *log.Logger, path string) (*ParamRepo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("Error opening parameter database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)
	return NewParamRepo(logger, db)
}

func NewParamRepo(logger *log.Logger, db *sql.DB) (*ParamRepo, error) {

	_, err := db.Exec(initSchema)
	if err != nil {
		return nil, fmt.Errorf("Error initialising param schema: %w", err)
	}

	return &ParamRepo{logger: logger, db: db}, nil
}

func (r *ParamRepo) Save(name string, value []byte) error {
	_, err := r.db.Exec(
		`INSERT INTO param (name, value, updated_at) VALUES ($1, $2, $3)
     ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		name, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("Error saving parameter (%s): %w", name, err)
	}
	return nil
}

func (r *ParamRepo) Restore(name string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(`SELECT value FROM param WHERE name = $1;`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrParamNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("Error restoring parameter (%s): %w", name, err)
	}
	return value, nil
}

func (r *ParamRepo) Close() error {
	return r.db.Close()
}
