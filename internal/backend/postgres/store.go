/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mogudian/elasticsearch-orm/internal/backend"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Store executes query plans on a PostgreSQL database.
type Store struct {
	db      *sql.DB
	columns Columns
}

var _ backend.Store = (*Store)(nil)

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, columns: DefaultColumns}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string, maxOpenConns, maxIdleConns, connMaxLifetimeMinutes int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Duration(connMaxLifetimeMinutes) * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureTable creates the document table of an index when it does not exist yet.
func (s *Store) EnsureTable(ctx context.Context, table string) error {
	t := pq.QuoteIdentifier(table)
	c := s.columns
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s TEXT PRIMARY KEY,
	%s JSONB NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT
);
CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (%s jsonb_path_ops);
CREATE INDEX IF NOT EXISTS %s ON %s (%s);`,
		t, pq.QuoteIdentifier(c.ID), pq.QuoteIdentifier(c.Doc), pq.QuoteIdentifier(c.Type), pq.QuoteIdentifier(c.Parent),
		pq.QuoteIdentifier(table+"_doc_idx"), t, pq.QuoteIdentifier(c.Doc),
		pq.QuoteIdentifier(table+"_parent_idx"), t, pq.QuoteIdentifier(c.Parent))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (s *Store) renderer(plan *predicate.QueryPlan) Renderer {
	return Renderer{Table: plan.Index, Columns: s.columns}
}

// Search returns the documents matching plan, in plan order.
func (s *Store) Search(ctx context.Context, plan *predicate.QueryPlan) ([]backend.Document, error) {
	ds, err := s.renderer(plan).Select(plan)
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	logger.LogDebug("postgres search: " + sqlStr)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", plan.Index, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []backend.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		docs = append(docs, backend.Document{ID: id, Source: json.RawMessage(raw)})
	}
	return docs, rows.Err()
}

// Count returns the number of documents matching plan.
func (s *Store) Count(ctx context.Context, plan *predicate.QueryPlan) (int64, error) {
	ds, err := s.renderer(plan).Count(plan)
	if err != nil {
		return 0, err
	}
	sqlStr, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", plan.Index, err)
	}
	return n, nil
}

// DeleteMatching deletes the documents matching plan, typically an expiry plan, and
// returns how many were removed.
func (s *Store) DeleteMatching(ctx context.Context, plan *predicate.QueryPlan) (int64, error) {
	ds, err := s.renderer(plan).Delete(plan)
	if err != nil {
		return 0, err
	}
	sqlStr, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", plan.Index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	logger.LogInfo(fmt.Sprintf("deleted %d documents from %s", n, plan.Index))
	return n, nil
}
