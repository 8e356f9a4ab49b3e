package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"veenoe/internal/model"
)

type QuestionRepo interface {
	Create(ctx context.Context, question *model.QuestionBankEntry) error

	// FindByDifficulty selects one question matching topic, class level
	// and exact difficulty whose id is not in excluding.
	FindByDifficulty(ctx context.Context, topic string, classLevel, difficulty int, excluding []string) (*model.QuestionBankEntry, error)

	// FindAny relaxes the difficulty constraint.
	FindAny(ctx context.Context, topic string, classLevel int, excluding []string) (*model.QuestionBankEntry, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("question_bank"),
	}
}

func (r *questionRepo) Create(ctx context.Context, question *model.QuestionBankEntry) error {
	// Generate ObjectID if not provided
	if question.ID == "" {
		question.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.collection.InsertOne(ctx, question)
	return err
}

func (r *questionRepo) FindByDifficulty(ctx context.Context, topic string, classLevel, difficulty int, excluding []string) (*model.QuestionBankEntry, error) {
	filter := baseFilter(topic, classLevel, excluding)
	filter["difficulty"] = difficulty
	return r.findOne(ctx, filter)
}

func (r *questionRepo) FindAny(ctx context.Context, topic string, classLevel int, excluding []string) (*model.QuestionBankEntry, error) {
	return r.findOne(ctx, baseFilter(topic, classLevel, excluding))
}

// findOne sorts by ascending _id so candidate selection is
// deterministic for a given store state.
func (r *questionRepo) findOne(ctx context.Context, filter bson.M) (*model.QuestionBankEntry, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var question model.QuestionBankEntry
	err := r.collection.FindOne(ctx, filter, opts).Decode(&question)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // No candidate remains
		}
		return nil, err
	}

	return &question, nil
}

// baseFilter excludes by the hex string ids Create stores, not by
// primitive.ObjectID: the two BSON types never compare equal, so an
// objectID $nin would silently exclude nothing.
func baseFilter(topic string, classLevel int, excluding []string) bson.M {
	filter := bson.M{
		"topic":      topic,
		"classLevel": classLevel,
	}

	if len(excluding) > 0 {
		filter["_id"] = bson.M{"$nin": excluding}
	}

	return filter
}
