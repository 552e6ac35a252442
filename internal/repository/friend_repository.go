package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection("friendships"),
	}
}

// CreateFriendship inserts a new row. The unique (user_id, friend_id) index
// turns a concurrent duplicate into ErrDuplicate.
func (r *FriendRepository) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt

	if _, err := r.collection.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("failed to create friendship: %w", translate(err))
	}
	return nil
}

func (r *FriendRepository) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindFriendship returns the row for the ordered pair (userID, friendID).
func (r *FriendRepository) FindFriendship(ctx context.Context, userID, friendID string) (*models.Friendship, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "friend_id": friendID})
}

func (r *FriendRepository) findOne(ctx context.Context, filter bson.M) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.collection.FindOne(ctx, filter).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to find friendship: %w", translate(err))
	}
	return &f, nil
}

// TransitionStatus moves a row from one status to another in a single
// conditional write. ErrConflict means the row was not in the expected state.
func (r *FriendRepository) TransitionStatus(ctx context.Context, id, from, to string, at time.Time) (*models.Friendship, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var f models.Friendship
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&f); err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			err = ErrConflict
		}
		return nil, fmt.Errorf("failed to update friendship %s: %w", id, err)
	}
	return &f, nil
}

// UpsertAccepted makes sure an accepted row exists for (userID, friendID).
func (r *FriendRepository) UpsertAccepted(ctx context.Context, userID, friendID string, at time.Time) error {
	filter := bson.M{"user_id": userID, "friend_id": friendID}
	update := bson.M{
		"$set":         bson.M{"status": models.FriendshipAccepted, "updated_at": at},
		"$setOnInsert": bson.M{"_id": NewID(), "created_at": at},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert friendship: %w", translate(err))
	}
	return nil
}

// DeleteIfStatus removes the row only while it still has the given status.
func (r *FriendRepository) DeleteIfStatus(ctx context.Context, id, status string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "status": status})
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to delete friendship %s: %w", id, ErrConflict)
	}
	return nil
}

// DeleteAcceptedPair removes both directional accepted rows between a and b.
func (r *FriendRepository) DeleteAcceptedPair(ctx context.Context, a, b string) (int64, error) {
	filter := bson.M{
		"status": models.FriendshipAccepted,
		"$or": []bson.M{
			{"user_id": a, "friend_id": b},
			{"user_id": b, "friend_id": a},
		},
	}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to remove friend: %w", err)
	}
	return res.DeletedCount, nil
}

// ListByUser returns rows where userID is the requester side.
func (r *FriendRepository) ListByUser(ctx context.Context, userID, status string) ([]models.Friendship, error) {
	return r.find(ctx, bson.M{"user_id": userID, "status": status})
}

// ListByFriend returns rows where friendID is the target side.
func (r *FriendRepository) ListByFriend(ctx context.Context, friendID, status string) ([]models.Friendship, error) {
	return r.find(ctx, bson.M{"friend_id": friendID, "status": status})
}

// RelatedUserIDs returns every counterpart of userID in any row, any status.
func (r *FriendRepository) RelatedUserIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.find(ctx, bson.M{"$or": []bson.M{{"user_id": userID}, {"friend_id": userID}}})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}

// DeleteByUser removes every row that mentions userID.
func (r *FriendRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"$or": []bson.M{{"user_id": userID}, {"friend_id": userID}}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete friendships for user %s: %w", userID, err)
	}
	return res.DeletedCount, nil
}

func (r *FriendRepository) find(ctx context.Context, filter bson.M) ([]models.Friendship, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find friendships: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.Friendship{}
	for cursor.Next(ctx) {
		var f models.Friendship
		if err := cursor.Decode(&f); err != nil {
			return nil, err
		}
		rows = append(rows, f)
	}
	return rows, cursor.Err()
}
