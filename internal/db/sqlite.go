package db

import (
	"database/sql"
	"time"

	"github.com/RichardoC/folio/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS inquiries (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    history_len INTEGER NOT NULL DEFAULT 0,
    client TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS inquiries_created_at ON inquiries(created_at);`

// Database is the server-side log of answered chat turns. It never feeds a
// conversation back to a visitor.
type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// in-memory databases are per connection
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

// RecordInquiry stores inq, filling in ID and CreatedAt when unset.
func (db *Database) RecordInquiry(inq *models.Inquiry) error {
	if inq.ID == "" {
		inq.ID = uuid.NewString()
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = time.Now().UTC()
	}

	_, err := db.db.Exec(`
        INSERT INTO inquiries (id, question, answer, history_len, client, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		inq.ID, inq.Question, inq.Answer, inq.HistoryLen, inq.Client, inq.CreatedAt.UTC())
	return errors.Wrap(err, "insert inquiry")
}

// RecentInquiries returns up to limit inquiries, newest first.
func (db *Database) RecentInquiries(limit int) ([]models.Inquiry, error) {
	rows, err := db.db.Query(`
        SELECT id, question, answer, history_len, client, created_at
        FROM inquiries
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return []models.Inquiry{}, errors.Wrap(err, "query inquiries")
	}
	defer rows.Close()

	inquiries := make([]models.Inquiry, 0)
	for rows.Next() {
		var inq models.Inquiry
		if err := rows.Scan(&inq.ID, &inq.Question, &inq.Answer, &inq.HistoryLen, &inq.Client, &inq.CreatedAt); err != nil {
			return []models.Inquiry{}, errors.Wrap(err, "scan inquiry")
		}
		inquiries = append(inquiries, inq)
	}
	return inquiries, errors.Wrap(rows.Err(), "iterate inquiries")
}

// CountSince counts inquiries recorded at or after t.
func (db *Database) CountSince(t time.Time) (int, error) {
	var n int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM inquiries WHERE created_at >= ?`, t.UTC()).Scan(&n)
	return n, errors.Wrap(err, "count inquiries")
}
