package profile_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/clientsync/backoffice/internal/profile"
)

func namespace(mt *mtest.T) string {
	return fmt.Sprintf("%s.%s", mt.Coll.Database().Name(), mt.Coll.Name())
}

func TestRepository_AddComment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("push onto existing profile", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		repo := profile.NewRepository(mt.Coll)
		err := repo.AddComment(context.Background(), 1, "llamar por la mañana")
		require.NoError(mt, err)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 1)
		require.Equal(mt, "update", events[0].CommandName)
	})

	mt.Run("missing profile falls back to create without retrying the push", func(mt *mtest.T) {
		// Update matches nothing, insert succeeds.
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		repo := profile.NewRepository(mt.Coll)
		err := repo.AddComment(context.Background(), 2, "primer comentario")
		require.NoError(mt, err)

		// The fallback creates a default profile and stops: the update is not
		// reissued, so the triggering comment is lost.
		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		require.Equal(mt, "update", events[0].CommandName)
		require.Equal(mt, "insert", events[1].CommandName)
	})
}

func TestRepository_SetPreferences(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("replaces preferences on existing profile", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		repo := profile.NewRepository(mt.Coll)
		err := repo.SetPreferences(context.Background(), 1, map[string]any{"metodo_pago": "PayPal"})
		require.NoError(mt, err)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 1)
		require.Equal(mt, "update", events[0].CommandName)
	})

	mt.Run("missing profile falls back to default create", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		repo := profile.NewRepository(mt.Coll)
		err := repo.SetPreferences(context.Background(), 3, map[string]any{"idioma": "EN"})
		require.NoError(mt, err)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		require.Equal(mt, "insert", events[1].CommandName)
	})
}

func TestRepository_GetProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes the stored document", func(mt *mtest.T) {
		created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
		doc := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "id_cliente", Value: int64(1)},
			{Key: "comentarios", Value: bson.A{
				bson.D{{Key: "texto", Value: "cliente preferente"}, {Key: "fecha", Value: primitive.NewDateTimeFromTime(created)}},
			}},
			{Key: "preferencias", Value: bson.D{
				{Key: "idioma", Value: "ES"},
				{Key: "metodo_pago", Value: "PayPal"},
				{Key: "notificaciones", Value: true},
			}},
			{Key: "fecha_creacion", Value: primitive.NewDateTimeFromTime(created)},
			{Key: "ultima_actualizacion", Value: primitive.NewDateTimeFromTime(created)},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, doc))

		repo := profile.NewRepository(mt.Coll)
		p, err := repo.GetProfile(context.Background(), 1)
		require.NoError(mt, err)
		require.NotNil(mt, p)
		require.Equal(mt, int64(1), p.CustomerID)
		require.Len(mt, p.Comments, 1)
		require.Equal(mt, "cliente preferente", p.Comments[0].Text)
		require.Equal(mt, "PayPal", p.Preferences.PaymentMethod)
	})

	mt.Run("absent document is nil, not an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		repo := profile.NewRepository(mt.Coll)
		p, err := repo.GetProfile(context.Background(), 99)
		require.NoError(mt, err)
		require.Nil(mt, p)
	})
}

func TestRepository_GetComments_AbsentProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty slice for customers without a document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		repo := profile.NewRepository(mt.Coll)
		comments, err := repo.GetComments(context.Background(), 42)
		require.NoError(mt, err)
		require.NotNil(mt, comments)
		require.Empty(mt, comments)
	})
}

func TestRepository_DeleteProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reports removal", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		repo := profile.NewRepository(mt.Coll)
		removed, err := repo.DeleteProfile(context.Background(), 1)
		require.NoError(mt, err)
		require.True(mt, removed)
	})

	mt.Run("absent document reports false without error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		repo := profile.NewRepository(mt.Coll)
		removed, err := repo.DeleteProfile(context.Background(), 99)
		require.NoError(mt, err)
		require.False(mt, removed)
	})
}

func TestRepository_Stats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty collection short-circuits", func(mt *mtest.T) {
		// CountDocuments runs as an aggregate returning an "n" field; an empty
		// cursor means zero documents.
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		repo := profile.NewRepository(mt.Coll)
		stats, err := repo.Stats(context.Background())
		require.NoError(mt, err)
		require.Equal(mt, profile.Stats{}, stats)

		// No comment aggregation when there is nothing to aggregate.
		require.Len(mt, mt.GetAllStartedEvents(), 1)
	})

	mt.Run("computes comments per profile", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int64(2)}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "total", Value: int64(6)}}),
		)

		repo := profile.NewRepository(mt.Coll)
		stats, err := repo.Stats(context.Background())
		require.NoError(mt, err)
		require.Equal(mt, int64(2), stats.Profiles)
		require.Equal(mt, int64(6), stats.Comments)
		require.InDelta(mt, 3.0, stats.CommentsPerProfile, 0.0001)
	})

	mt.Run("profiles without comments aggregate to zero", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int64(3)}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		repo := profile.NewRepository(mt.Coll)
		stats, err := repo.Stats(context.Background())
		require.NoError(mt, err)
		require.Equal(mt, int64(3), stats.Profiles)
		require.Equal(mt, int64(0), stats.Comments)
		require.Zero(mt, stats.CommentsPerProfile)
	})
}
