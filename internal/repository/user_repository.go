package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = NewID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		logrus.WithError(err).Error("Failed to insert user into database")
		return fmt.Errorf("failed to insert user: %w", translate(err))
	}

	logrus.WithField("userID", user.ID).Info("User inserted successfully")
	return nil
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		err = translate(err)
		if !errors.Is(err, ErrNotFound) {
			logrus.WithFields(logrus.Fields{
				"filter": filter,
				"error":  err,
			}).Warn("Failed to find user")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	r.upgrade(ctx, &user)
	return &user, nil
}

// upgrade rewrites v1 documents the first time they are read.
func (r *UserRepository) upgrade(ctx context.Context, user *models.User) {
	if !models.UpgradeUser(user) {
		return
	}
	unset := bson.M{
		"first_name":    "",
		"last_initial":  "",
		"recovery_type": "",
		"program":       "",
		"sobriety_date": "",
		"bio":           "",
	}
	set := bson.M{
		"profile":               user.Profile,
		"privacy_settings":      user.PrivacySettings,
		"notification_settings": user.NotificationSettings,
		"schema_version":        user.SchemaVersion,
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set, "$unset": unset})
	if err != nil {
		// the in-memory copy is already upgraded; retry on next read
		logrus.WithError(err).WithField("userID", user.ID).Warn("Failed to persist user schema upgrade")
		return
	}
	logrus.WithField("userID", user.ID).Info("User document upgraded")
}

// SaveUser writes the whole user document, creating it when absent.
func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user, opts); err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": user.ID,
			"error":  err,
		}).Error("Failed to save user")
		return fmt.Errorf("failed to save user: %w", translate(err))
	}

	logrus.WithField("userID", user.ID).Info("User saved successfully")
	return nil
}

// DeleteUser deletes a user from the database.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id,
			"error":  err,
		}).Error("Failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logrus.WithField("userID", id).Info("User deleted successfully")
	return nil
}

// GetUsersByIDs fetches user details for a list of ids (mainly for friends).
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// FindByRecoveryType returns up to limit users with the given recovery type,
// skipping the excluded ids.
func (r *UserRepository) FindByRecoveryType(ctx context.Context, recoveryType string, excludeIDs []string, limit int) ([]models.User, error) {
	filter := bson.M{
		"profile.recovery_type": recoveryType,
		"_id":                   bson.M{"$nin": excludeIDs},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

// ListUserIDsWithSobrietyDate returns every user that has a sobriety date set.
func (r *UserRepository) ListUserIDsWithSobrietyDate(ctx context.Context) ([]string, error) {
	filter := bson.M{"$or": []bson.M{
		{"profile.sobriety_date": bson.M{"$ne": nil}},
		{"sobriety_date": bson.M{"$ne": nil}},
	}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		r.upgrade(ctx, &user)
		users = append(users, user)
	}
	return users, cursor.Err()
}
