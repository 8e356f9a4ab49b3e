package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"veenoe/internal/model"
)

type SessionRepo interface {
	Create(ctx context.Context, session *model.VivaSession) error
	GetByID(ctx context.Context, id string) (*model.VivaSession, error)
	GetByUser(ctx context.Context, userID string) ([]*model.VivaSession, error)
	Rename(ctx context.Context, id, title string) error
	AppendTurn(ctx context.Context, id string, turn model.VivaTurn) error
	Conclude(ctx context.Context, id string, feedback *model.VivaFeedback, endedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("viva_sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.VivaSession) error {
	// Generate ObjectID if not provided
	if session.ID == "" {
		session.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.collection.InsertOne(ctx, session)
	return err
}

// idFilter matches on the hex string id exactly as Create stores it.
// Converting to primitive.ObjectID here would never match: BSON does
// not compare strings and objectIDs equal.
func idFilter(id string) bson.M {
	return bson.M{"_id": id}
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.VivaSession, error) {
	var session model.VivaSession
	err := r.collection.FindOne(ctx, idFilter(id)).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Session not found
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepo) GetByUser(ctx context.Context, userID string) ([]*model.VivaSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.VivaSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *sessionRepo) Rename(ctx context.Context, id, title string) error {
	_, err := r.collection.UpdateOne(ctx,
		idFilter(id),
		bson.M{"$set": bson.M{"title": title}},
	)
	return err
}

// AppendTurn pushes one turn onto the session. $push keeps concurrent
// appends from losing turns, but since the caller derives TurnID from
// a prior read, two racing appends can still mint the same TurnID.
func (r *sessionRepo) AppendTurn(ctx context.Context, id string, turn model.VivaTurn) error {
	_, err := r.collection.UpdateOne(ctx,
		idFilter(id),
		bson.M{"$push": bson.M{"turns": turn}},
	)
	return err
}

// Conclude atomically completes the session. The filter requires the
// session to still be in_progress, so a second conclusion never
// matches; the returned bool reports whether the update applied.
func (r *sessionRepo) Conclude(ctx context.Context, id string, feedback *model.VivaFeedback, endedAt time.Time) (bool, error) {
	filter := idFilter(id)
	filter["status"] = model.SessionInProgress

	result, err := r.collection.UpdateOne(ctx,
		filter,
		bson.M{"$set": bson.M{
			"status":   model.SessionCompleted,
			"feedback": feedback,
			"endedAt":  endedAt,
		}},
	)
	if err != nil {
		return false, err
	}

	return result.ModifiedCount > 0, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, idFilter(id))
	return err
}
