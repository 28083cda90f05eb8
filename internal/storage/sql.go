/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Postgres driver registered as "pgx" for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"

	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
	"flowsketch/internal/version"
)

const (
	SQLiteFileName = "flowsketch.sqlite"

	// schemaVersion tracks the diagrams schema. Bump it and add a case to
	// runMigrations for every change.
	schemaVersion = 2
)

// Dialect selects SQL flavor differences.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps diagrams in a relational table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// OpenSQLite opens (or creates) <dir>/flowsketch.sqlite in WAL mode.
func OpenSQLite(ctx context.Context, dir string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("sqlite directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	path := filepath.Join(dir, SQLiteFileName)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Embedded usage: one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &SQLStore{db: db, dialect: DialectSQLite, log: applog.WithComponent("storage").With(slog.String("store", "sqlite"))}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		l.Error("schema init failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("sqlite store ready", slog.String("path", path))
	return s, nil
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "postgres_open")
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		l.Error("ping failed", slog.Any("err", err))
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &SQLStore{db: db, dialect: DialectPostgres, log: applog.WithComponent("storage").With(slog.String("store", "postgres"))}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("postgres store ready")
	return s, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// Dialect reports which backend the store talks to.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(q), args...)
}

func (s *SQLStore) init(ctx context.Context) error {
	if err := s.ensureMetaAndVersion(ctx); err != nil {
		return err
	}
	if _, err := s.exec(ctx, `CREATE TABLE IF NOT EXISTS diagrams (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		data        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create diagrams table: %w", err)
	}
	return s.runMigrations(ctx)
}

func (s *SQLStore) ensureMetaAndVersion(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := s.exec(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	stamp := now().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at schema 1 and migrates forward.
		if _, err := s.exec(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, 1, appv, stamp, stamp); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := s.exec(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, stamp); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the schema number recorded in the database.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	var cur int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return cur, nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func (s *SQLStore) runMigrations(ctx context.Context) error {
	cur, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// listing is per user, newest first
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_diagrams_user_updated ON diagrams(user_id, updated_at)`}
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, now().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		s.log.Info("schema migrated", slog.Int("version", next))
		cur = next
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, d domain.Diagram) (domain.Diagram, error) {
	d, err := prepareCreate(d)
	if err != nil {
		return d, err
	}
	data, err := encodeDocument(d.Data)
	if err != nil {
		return d, err
	}
	_, err = s.exec(ctx, `INSERT INTO diagrams (id, user_id, name, description, category, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Name, d.Description, d.Category, string(data), formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	if err != nil {
		return d, fmt.Errorf("insert diagram: %w", err)
	}
	applog.WithOperation(s.log, "create").InfoContext(applog.WithDiagram(ctx, d.ID), "diagram created", slog.String("name", d.Name))
	return d, nil
}

func (s *SQLStore) Load(ctx context.Context, id, userID string) (domain.Diagram, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, user_id, name, description, category, data, created_at, updated_at
		FROM diagrams WHERE id=? AND user_id=?`), id, userID)
	d, err := scanDiagram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Diagram{}, ErrNotFound
	}
	if err != nil {
		return domain.Diagram{}, err
	}
	return finishLoad(d)
}

func (s *SQLStore) Save(ctx context.Context, d domain.Diagram) error {
	d, err := prepareSave(d)
	if err != nil {
		return err
	}
	data, err := encodeDocument(d.Data)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, `UPDATE diagrams SET name=?, description=?, category=?, data=?, updated_at=? WHERE id=? AND user_id=?`,
		d.Name, d.Description, d.Category, string(data), formatTime(d.UpdatedAt), d.ID, d.UserID)
	if err != nil {
		return fmt.Errorf("update diagram: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	applog.WithOperation(s.log, "save").InfoContext(applog.WithDiagram(ctx, d.ID), "diagram saved",
		slog.Int("nodes", len(d.Data.Nodes)), slog.Int("connections", len(d.Data.Connections)))
	return nil
}

func (s *SQLStore) List(ctx context.Context, userID, query string) ([]Summary, error) {
	q := `SELECT id, user_id, name, description, category, data, created_at, updated_at
		FROM diagrams WHERE user_id=?`
	args := []any{userID}
	if t := strings.ToLower(strings.TrimSpace(query)); t != "" {
		q += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+t+"%", "%"+t+"%")
	}
	q += ` ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Summary
	for rows.Next() {
		d, err := scanDiagram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(d))
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.exec(ctx, `DELETE FROM diagrams WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete diagram: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	applog.WithOperation(s.log, "delete").InfoContext(applog.WithDiagram(ctx, id), "diagram deleted")
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanDiagram(r scanner) (domain.Diagram, error) {
	var (
		d                domain.Diagram
		data             string
		created, updated string
	)
	if err := r.Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.Category, &data, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("scan diagram: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &d.Data); err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return d, nil
}

// timeLayout is fixed width so text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }
