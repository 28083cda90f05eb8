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
	"strings"
	"time"

	"github.com/google/uuid"

	"flowsketch/internal/domain"
)

var (
	// ErrNotFound is returned for unknown ids and for diagrams owned by another
	// user; callers cannot tell the two apart.
	ErrNotFound = errors.New("diagram not found")
	// ErrInvalidDocument wraps schema violations.
	ErrInvalidDocument = errors.New("invalid diagram document")
)

// Summary is the listing projection of a diagram.
type Summary struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Category    string
	Nodes       int
	Connections int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is implemented by FileStore and SQLStore.
type Store interface {
	// Create assigns an id (when empty) and timestamps, then persists d.
	Create(ctx context.Context, d domain.Diagram) (domain.Diagram, error)
	// Load returns the diagram if it exists and belongs to userID.
	Load(ctx context.Context, id, userID string) (domain.Diagram, error)
	// Save overwrites an existing diagram owned by d.UserID and bumps UpdatedAt.
	Save(ctx context.Context, d domain.Diagram) error
	// List returns the user's diagrams, newest first, filtered by a
	// case-insensitive substring of name or description.
	List(ctx context.Context, userID, query string) ([]Summary, error)
	Delete(ctx context.Context, id, userID string) error
	Close() error
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func prepareCreate(d domain.Diagram) (domain.Diagram, error) {
	if strings.TrimSpace(d.UserID) == "" {
		return d, errors.New("user id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return d, errors.New("diagram name is required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	t := now()
	d.CreatedAt, d.UpdatedAt = t, t
	d.Data = d.Data.Clone()
	if err := Validate(d.Data); err != nil {
		return d, err
	}
	return d, nil
}

func prepareSave(d domain.Diagram) (domain.Diagram, error) {
	if d.ID == "" || d.UserID == "" {
		return d, ErrNotFound
	}
	d.UpdatedAt = now()
	d.Data = d.Data.Clone()
	if err := Validate(d.Data); err != nil {
		return d, err
	}
	return d, nil
}

// finishLoad validates and drops connections whose endpoints are gone.
func finishLoad(d domain.Diagram) (domain.Diagram, error) {
	d.Data = d.Data.Clone()
	if err := Validate(d.Data); err != nil {
		return d, err
	}
	d.Data, _ = Sanitize(d.Data)
	return d, nil
}

func summarize(d domain.Diagram) Summary {
	return Summary{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Nodes:       len(d.Data.Nodes),
		Connections: len(d.Data.Connections),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func matches(d domain.Diagram, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q)
}

func encodeDocument(doc domain.Document) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}
