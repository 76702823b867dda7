package diagnostics

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// SQLite Journal
// ============================================================

//go:embed migrations/*.sql
var migrations embed.FS

// Journal keeps diagnostics in a sqlite table so they can be inspected after
// the fact. It never stores shapes.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Init applies the embedded migrations.
func (j *Journal) Init(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, e := range entries {
		data, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if _, err := j.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Report implements Reporter. Write failures are logged and dropped.
func (j *Journal) Report(d Diagnostic) {
	if err := j.Append(context.Background(), d); err != nil {
		log.Errorf("[JOURNAL] append: %v", err)
	}
}

func (j *Journal) Append(ctx context.Context, d Diagnostic) error {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO diagnostics (session_id, source, op, object_id, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, d.Session, d.Source, d.Op, d.ObjectID, d.Message, d.Time.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert diagnostic: %w", err)
	}
	return nil
}

// Recent returns up to limit diagnostics of a session, newest first. An empty
// session matches every entry.
func (j *Journal) Recent(ctx context.Context, session string, limit int) ([]Diagnostic, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
        SELECT session_id, source, op, object_id, message, created_at
        FROM diagnostics
        WHERE ? = '' OR session_id = ?
        ORDER BY id DESC
        LIMIT ?
    `, session, session, limit)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var d Diagnostic
		var created string
		if err := rows.Scan(&d.Session, &d.Source, &d.Op, &d.ObjectID, &d.Message, &created); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			d.Time = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// OpenSQLite opens the sqlite database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
