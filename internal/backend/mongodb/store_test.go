package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	plan := &predicate.QueryPlan{
		EntityType: "user",
		Index:      "users",
		Query:      &predicate.Range{Field: "age", GT: int64(18)},
	}

	mt.Run("search decodes documents", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: oid}, {Key: "age", Value: 20}},
			bson.D{{Key: "_id", Value: "u2"}, {Key: "age", Value: 30}},
		))

		docs, err := NewStore(mt.DB).Search(context.Background(), plan)
		require.NoError(mt, err)
		require.Len(mt, docs, 2)
		require.Equal(mt, oid.Hex(), docs[0].ID)
		require.Equal(mt, "u2", docs[1].ID)
		require.JSONEq(mt, `{"_id":"u2","age":30}`, string(docs[1].Source))
	})

	mt.Run("count", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}))

		n, err := NewStore(mt.DB).Count(context.Background(), plan)
		require.NoError(mt, err)
		require.Equal(mt, int64(7), n)
	})

	mt.Run("delete matching", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}))

		n, err := NewStore(mt.DB).DeleteMatching(context.Background(), plan)
		require.NoError(mt, err)
		require.Equal(mt, int64(3), n)
	})

	mt.Run("server errors are wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query", Name: "BadValue"}))

		_, err := NewStore(mt.DB).Search(context.Background(), plan)
		require.Error(mt, err)
		require.Contains(mt, err.Error(), "search users")
	})
}
