package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holding one document per customer, keyed by id_cliente.
const CollectionName = "clientes_info"

type Repository interface {
	CreateProfile(ctx context.Context, customerID int64) error
	AddComment(ctx context.Context, customerID int64, text string) error
	SetPreferences(ctx context.Context, customerID int64, raw map[string]any) error
	GetProfile(ctx context.Context, customerID int64) (*Profile, error)
	GetComments(ctx context.Context, customerID int64) ([]Comment, error)
	GetPreferences(ctx context.Context, customerID int64) (*Preferences, error)
	DeleteProfile(ctx context.Context, customerID int64) (bool, error)
	Stats(ctx context.Context) (Stats, error)
}

type mongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) Repository {
	return &mongoRepository{col: col}
}

func (r *mongoRepository) CreateProfile(ctx context.Context, customerID int64) error {
	now := time.Now().UTC()
	doc := Profile{
		CustomerID:  customerID,
		Comments:    []Comment{},
		Preferences: DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("profile: failed to insert document for customer %d: %w", customerID, err)
	}

	log.Info().Int64("customer_id", customerID).Msg("profile: document created")
	return nil
}

// AddComment pushes a comment onto the customer's profile in one atomic
// document update. When no profile exists yet it falls back to CreateProfile
// and returns without retrying the push, so the triggering comment is not
// stored. Callers that need that first comment have to resend it.
func (r *mongoRepository) AddComment(ctx context.Context, customerID int64, text string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$push": bson.M{"comentarios": Comment{Text: text, Date: now}},
		"$set":  bson.M{"ultima_actualizacion": now},
	}

	result, err := r.col.UpdateOne(ctx, bson.M{"id_cliente": customerID}, update)
	if err != nil {
		return fmt.Errorf("profile: failed to add comment for customer %d: %w", customerID, err)
	}

	if result.MatchedCount == 0 {
		return r.CreateProfile(ctx, customerID)
	}

	log.Info().Int64("customer_id", customerID).Msg("profile: comment added")
	return nil
}

// SetPreferences replaces the whole preference map with a normalized version.
// Concurrent callers race at whole-map granularity: last write wins.
func (r *mongoRepository) SetPreferences(ctx context.Context, customerID int64, raw map[string]any) error {
	update := bson.M{
		"$set": bson.M{
			"preferencias":         NormalizePreferences(raw),
			"ultima_actualizacion": time.Now().UTC(),
		},
	}

	result, err := r.col.UpdateOne(ctx, bson.M{"id_cliente": customerID}, update)
	if err != nil {
		return fmt.Errorf("profile: failed to set preferences for customer %d: %w", customerID, err)
	}

	if result.MatchedCount == 0 {
		return r.CreateProfile(ctx, customerID)
	}

	log.Info().Int64("customer_id", customerID).Msg("profile: preferences updated")
	return nil
}

// GetProfile returns (nil, nil) when the customer has no document. Absence is
// normal for customers that never had a comment or preference written.
func (r *mongoRepository) GetProfile(ctx context.Context, customerID int64) (*Profile, error) {
	var p Profile
	err := r.col.FindOne(ctx, bson.M{"id_cliente": customerID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: failed to fetch document for customer %d: %w", customerID, err)
	}
	return &p, nil
}

func (r *mongoRepository) GetComments(ctx context.Context, customerID int64) ([]Comment, error) {
	p, err := r.GetProfile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return []Comment{}, nil
	}
	return p.Comments, nil
}

func (r *mongoRepository) GetPreferences(ctx context.Context, customerID int64) (*Preferences, error) {
	p, err := r.GetProfile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	prefs := p.Preferences
	return &prefs, nil
}

func (r *mongoRepository) DeleteProfile(ctx context.Context, customerID int64) (bool, error) {
	result, err := r.col.DeleteOne(ctx, bson.M{"id_cliente": customerID})
	if err != nil {
		return false, fmt.Errorf("profile: failed to delete document for customer %d: %w", customerID, err)
	}
	if result.DeletedCount == 0 {
		return false, nil
	}

	log.Info().Int64("customer_id", customerID).Msg("profile: document deleted")
	return true, nil
}

func (r *mongoRepository) Stats(ctx context.Context) (Stats, error) {
	profiles, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return Stats{}, fmt.Errorf("profile: failed to count documents: %w", err)
	}

	var stats Stats
	stats.Profiles = profiles
	if profiles == 0 {
		return stats, nil
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$comentarios"}},
		bson.D{{Key: "$count", Value: "total"}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, fmt.Errorf("profile: failed to aggregate comments: %w", err)
	}
	defer cursor.Close(ctx)

	// The pipeline yields no document at all when every comment list is empty.
	if cursor.Next(ctx) {
		var result struct {
			Total int64 `bson:"total"`
		}
		if err := cursor.Decode(&result); err != nil {
			return Stats{}, fmt.Errorf("profile: failed to decode comment count: %w", err)
		}
		stats.Comments = result.Total
	}
	if err := cursor.Err(); err != nil {
		return Stats{}, fmt.Errorf("profile: error reading comment count: %w", err)
	}

	stats.CommentsPerProfile = float64(stats.Comments) / float64(profiles)

	return stats, nil
}
