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
	"os"
	"testing"

	"flowsketch/internal/config"
)

func TestSQLiteStoreContract(t *testing.T) {
	stepClock(t)
	s, err := OpenSQLite(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, dir)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	v, err := s.SchemaVersion(ctx)
	if err != nil || v != schemaVersion {
		t.Fatalf("schema version = %d, %v; want %d", v, err, schemaVersion)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	if v, _ := s.SchemaVersion(ctx); v != schemaVersion {
		t.Fatalf("schema version after reopen = %d", v)
	}
	if s.Dialect() != DialectSQLite {
		t.Fatalf("dialect = %s", s.Dialect())
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	if got := pg.rebind("a=? AND b=?"); got != "a=$1 AND b=$2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	lite := &SQLStore{dialect: DialectSQLite}
	if got := lite.rebind("a=?"); got != "a=?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{Driver: config.DriverFile, Dir: t.TempDir()}, "")
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("want *FileStore, got %T", s)
	}
	s, err = Open(ctx, config.StorageConfig{Driver: config.DriverSQLite, Dir: t.TempDir()}, "")
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := s.(*SQLStore); !ok {
		t.Fatalf("want *SQLStore, got %T", s)
	}
	_ = s.Close()
	if _, err := Open(ctx, config.StorageConfig{Driver: "mongo"}, ""); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

// Runs only when a disposable postgres database is provided.
func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv(config.EnvPgDSN)
	if dsn == "" {
		t.Skip("set " + config.EnvPgDSN + " to run against postgres")
	}
	stepClock(t)
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer func() { _ = s.Close() }()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE user_id IN ('alice','bob')`); err != nil {
		t.Fatalf("reset: %v", err)
	}
	exerciseStore(t, s)
}
