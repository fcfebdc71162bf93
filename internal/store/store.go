// Package store persists analysed candidates through database/sql.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"yashubustudio/talentos/profiler"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a candidate id does not exist.
var ErrNotFound = errors.New("candidate not found")

// Candidate is one analysed résumé.
type Candidate struct {
	ID         int64     `json:"id"`
	Name       string    `json:"nome"`
	Email      string    `json:"email"`
	Profile    string    `json:"tecnologia"`
	Confidence float64   `json:"confianca"`
	ResumeText string    `json:"curriculo_texto"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCandidate builds the record for an analysed résumé: the first detected
// name and e-mail, the best profile and its confidence.
func NewCandidate(text string, res *profiler.ExtractionResult) Candidate {
	c := Candidate{ResumeText: text, Profile: profiler.UndefinedProfile}
	if res == nil {
		return c
	}
	c.Profile = res.Profile
	c.Confidence = res.Confidence
	if len(res.Names) > 0 {
		c.Name = res.Names[0]
	}
	if len(res.Emails) > 0 {
		c.Email = res.Emails[0]
	}
	return c
}

// Store is a candidate repository backed by SQLite or PostgreSQL.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "talentos.db"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("store: postgres dsn is required")
		}
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite: single writer
	}
	s := &Store{db: db, driver: driver}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	realType := "REAL"
	if s.driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		realType = "DOUBLE PRECISION"
	}
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS candidates (
		id              `+idColumn+`,
		nome            TEXT NOT NULL DEFAULT '',
		email           TEXT NOT NULL DEFAULT '',
		tecnologia      TEXT NOT NULL,
		confianca       `+realType+` NOT NULL DEFAULT 0,
		curriculo_texto TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`)
	return err
}

// Save inserts a candidate and returns its id. A zero CreatedAt is set to now.
func (s *Store) Save(ctx context.Context, c Candidate) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query := s.rebind(`INSERT INTO candidates (nome, email, tecnologia, confianca, curriculo_texto, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	args := []any{c.Name, c.Email, c.Profile, c.Confidence, c.ResumeText, c.CreatedAt.UTC().Format(time.RFC3339Nano)}

	if s.driver == DriverPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("store: insert candidate: %w", err)
		}
		return id, nil
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: insert candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	return id, nil
}

// Get returns one candidate by id.
func (s *Store) Get(ctx context.Context, id int64) (*Candidate, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, nome, email, tecnologia, confianca, curriculo_texto, created_at
		FROM candidates WHERE id = ?`), id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get candidate %d: %w", id, err)
	}
	return c, nil
}

// List returns the most recent candidates, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Candidate, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, nome, email, tecnologia, confianca, curriculo_texto, created_at
		FROM candidates ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("store: list candidates: %w", err)
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan candidate: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*Candidate, error) {
	var (
		c       Candidate
		created string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Profile, &c.Confidence, &c.ResumeText, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	c.CreatedAt = t
	return &c, nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
