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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"flowsketch/internal/domain"
	applog "flowsketch/internal/log"
)

const (
	BackupsDirName = "backups"
	fileExt        = ".json"
)

// FileStore keeps diagrams as <root>/<user>/<id>.json. Previous versions are
// copied to <root>/<user>/backups/<id>.json.<stamp>.bak before each overwrite.
type FileStore struct {
	root string
	log  *slog.Logger
}

// NewFileStore creates root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FileStore{root: root, log: applog.WithComponent("storage").With(slog.String("store", "file"))}, nil
}

// safeSegment rejects ids that would escape the store directory.
func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}

func (s *FileStore) path(userID, id string) (string, bool) {
	if !safeSegment(userID) || !safeSegment(id) {
		return "", false
	}
	return filepath.Join(s.root, userID, id+fileExt), true
}

func (s *FileStore) Create(ctx context.Context, d domain.Diagram) (domain.Diagram, error) {
	d, err := prepareCreate(d)
	if err != nil {
		return d, err
	}
	p, ok := s.path(d.UserID, d.ID)
	if !ok {
		return d, fmt.Errorf("invalid id %q or user %q", d.ID, d.UserID)
	}
	if _, err := os.Stat(p); err == nil {
		return d, fmt.Errorf("diagram %s already exists", d.ID)
	}
	if err := s.write(p, d); err != nil {
		return d, err
	}
	applog.WithOperation(s.log, "create").InfoContext(applog.WithDiagram(ctx, d.ID), "diagram created", slog.String("name", d.Name))
	return d, nil
}

func (s *FileStore) Load(ctx context.Context, id, userID string) (domain.Diagram, error) {
	l := applog.WithOperation(s.log, "load")
	p, ok := s.path(userID, id)
	if !ok {
		return domain.Diagram{}, ErrNotFound
	}
	d, err := readDiagram(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Diagram{}, ErrNotFound
		}
		bd, berr := s.latestBackup(userID, id)
		if berr != nil {
			return domain.Diagram{}, fmt.Errorf("open diagram: %w; backup attempt: %v", err, berr)
		}
		l.WarnContext(applog.WithDiagram(ctx, id), "recovered from backup", slog.Any("err", err))
		d = bd
	}
	if d.UserID != userID || d.ID != id {
		return domain.Diagram{}, ErrNotFound
	}
	return finishLoad(d)
}

func (s *FileStore) Save(ctx context.Context, d domain.Diagram) error {
	d, err := prepareSave(d)
	if err != nil {
		return err
	}
	p, ok := s.path(d.UserID, d.ID)
	if !ok {
		return ErrNotFound
	}
	cur, err := readDiagram(p)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// a corrupt file is replaced, ownership comes from the last good copy
		cur, err = s.latestBackup(d.UserID, d.ID)
	}
	if err != nil || cur.UserID != d.UserID {
		return ErrNotFound
	}
	d.CreatedAt = cur.CreatedAt
	if err := s.backup(p, d.UserID, d.ID); err != nil {
		return err
	}
	if err := s.write(p, d); err != nil {
		return err
	}
	applog.WithOperation(s.log, "save").InfoContext(applog.WithDiagram(ctx, d.ID), "diagram saved",
		slog.Int("nodes", len(d.Data.Nodes)), slog.Int("connections", len(d.Data.Connections)))
	return nil
}

func (s *FileStore) List(ctx context.Context, userID, query string) ([]Summary, error) {
	if !safeSegment(userID) {
		return nil, nil
	}
	ents, err := os.ReadDir(filepath.Join(s.root, userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read user dir: %w", err)
	}
	var out []Summary
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := readDiagram(filepath.Join(s.root, userID, e.Name()))
		if err != nil {
			s.log.Warn("skip unreadable diagram", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		if d.UserID != userID || !matches(d, query) {
			continue
		}
		out = append(out, summarize(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Delete removes the diagram file. Backups are kept.
func (s *FileStore) Delete(ctx context.Context, id, userID string) error {
	p, ok := s.path(userID, id)
	if !ok {
		return ErrNotFound
	}
	d, err := readDiagram(p)
	if err != nil || d.UserID != userID {
		return ErrNotFound
	}
	if err := s.backup(p, userID, id); err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("remove diagram: %w", err)
	}
	applog.WithOperation(s.log, "delete").InfoContext(applog.WithDiagram(ctx, id), "diagram deleted")
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the file backing a diagram, for watchers.
func (s *FileStore) Path(id, userID string) (string, bool) { return s.path(userID, id) }

func readDiagram(p string) (domain.Diagram, error) {
	var d domain.Diagram
	b, err := os.ReadFile(p)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("parse %s: %w", filepath.Base(p), err)
	}
	return d, nil
}

// write marshals d and replaces p transactionally via a temp file and rename.
func (s *FileStore) write(p string, d domain.Diagram) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal diagram: %w", err)
	}
	data = append(data, '\n')
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure user dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(p), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp diagram: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(p); err == nil {
		_ = os.Remove(p)
	}
	if rerr := os.Rename(temp, p); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace diagram: %w", rerr)
	}
	return nil
}

func (s *FileStore) backup(p, userID, id string) error {
	if _, err := os.Stat(p); err != nil {
		return nil
	}
	stamp := time.Now().Format("20060102-150405")
	bpath := filepath.Join(s.root, userID, BackupsDirName, fmt.Sprintf("%s%s.%s.bak", id, fileExt, stamp))
	if err := copyFile(p, bpath); err != nil {
		return fmt.Errorf("backup current diagram: %w", err)
	}
	return nil
}

// latestBackup opens the newest backup of a diagram.
func (s *FileStore) latestBackup(userID, id string) (domain.Diagram, error) {
	bdir := filepath.Join(s.root, userID, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return domain.Diagram{}, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := id + fileExt + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return domain.Diagram{}, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	return readDiagram(candidates[len(candidates)-1])
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
