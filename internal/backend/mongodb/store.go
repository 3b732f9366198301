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

package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mogudian/elasticsearch-orm/internal/backend"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Store executes query plans on a MongoDB database. Each index is a collection.
type Store struct {
	db *mongo.Database
}

var _ backend.Store = (*Store)(nil)

// NewStore wraps a database handle.
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect opens a client for uri, pings it and returns a store on database.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewStore(client.Database(database)), nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// FindOptions renders the sorts and page of a plan.
func FindOptions(plan *predicate.QueryPlan) (*options.FindOptions, error) {
	opts := options.Find()
	if len(plan.Sorts) > 0 {
		sort := bson.D{}
		for _, s := range plan.Sorts {
			switch {
			case s.IsScript():
				return nil, fmt.Errorf("%w: script sort", ErrUnsupported)
			case s.Field == config.ScoreField:
				sort = append(sort, bson.E{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}})
			case s.Direction == predicate.DESC:
				sort = append(sort, bson.E{Key: s.Field, Value: -1})
			default:
				sort = append(sort, bson.E{Key: s.Field, Value: 1})
			}
		}
		opts.SetSort(sort)
	}
	if plan.Page.Offset > 0 {
		opts.SetSkip(int64(plan.Page.Offset))
	}
	if plan.Page.Size != nil {
		opts.SetLimit(int64(*plan.Page.Size))
	}
	return opts, nil
}

// Search returns the documents matching plan, in plan order.
func (s *Store) Search(ctx context.Context, plan *predicate.QueryPlan) ([]backend.Document, error) {
	filter, err := Filter(plan.Query)
	if err != nil {
		return nil, err
	}
	opts, err := FindOptions(plan)
	if err != nil {
		return nil, err
	}
	cursor, err := s.db.Collection(plan.Index).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", plan.Index, err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []backend.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		source, err := bson.MarshalExtJSON(raw, false, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, backend.Document{ID: documentID(raw["_id"]), Source: source})
	}
	return docs, cursor.Err()
}

// Count returns the number of documents matching plan.
func (s *Store) Count(ctx context.Context, plan *predicate.QueryPlan) (int64, error) {
	filter, err := Filter(plan.Query)
	if err != nil {
		return 0, err
	}
	n, err := s.db.Collection(plan.Index).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", plan.Index, err)
	}
	return n, nil
}

// DeleteMatching deletes the documents matching plan and returns how many were removed.
func (s *Store) DeleteMatching(ctx context.Context, plan *predicate.QueryPlan) (int64, error) {
	filter, err := Filter(plan.Query)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Collection(plan.Index).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", plan.Index, err)
	}
	logger.LogInfo(fmt.Sprintf("deleted %d documents from %s", res.DeletedCount, plan.Index))
	return res.DeletedCount, nil
}

func documentID(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	}
	return fmt.Sprint(id)
}
