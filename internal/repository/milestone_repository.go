package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MilestoneRepository handles database operations related to milestones
type MilestoneRepository struct {
	collection *mongo.Collection
}

// NewMilestoneRepository creates a new instance of MilestoneRepository
func NewMilestoneRepository(db *mongo.Database) *MilestoneRepository {
	return &MilestoneRepository{
		collection: db.Collection("milestones"),
	}
}

// CreateMilestone creates a new milestone in the database
func (r *MilestoneRepository) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	stamp(m)

	if _, err := r.collection.InsertOne(ctx, m); err != nil {
		logger.Log.WithError(err).Error("Failed to insert milestone")
		return fmt.Errorf("failed to insert milestone: %w", translate(err))
	}

	logger.Log.WithField("milestone_id", m.ID).Info("Milestone created successfully")
	return nil
}

// CreateMilestones inserts a batch of milestones with a single write.
func (r *MilestoneRepository) CreateMilestones(ctx context.Context, ms []*models.Milestone) error {
	if len(ms) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(ms))
	for _, m := range ms {
		stamp(m)
		docs = append(docs, m)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		logger.Log.WithError(err).WithField("count", len(docs)).Error("Failed to insert milestone batch")
		return fmt.Errorf("failed to insert milestones: %w", translate(err))
	}

	logger.Log.WithField("count", len(docs)).Info("Milestone batch created successfully")
	return nil
}

func stamp(m *models.Milestone) {
	if m.ID == "" {
		m.ID = NewID()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
}

// GetMilestone fetches a milestone by its ID
func (r *MilestoneRepository) GetMilestone(ctx context.Context, id string) (*models.Milestone, error) {
	var m models.Milestone
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to find milestone %s: %w", id, translate(err))
	}
	return &m, nil
}

// GetMilestoneByTitle fetches a user's milestone by its title.
func (r *MilestoneRepository) GetMilestoneByTitle(ctx context.Context, userID, title string) (*models.Milestone, error) {
	var m models.Milestone
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "title": title}).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to find milestone by title: %w", translate(err))
	}
	return &m, nil
}

// ListMilestones fetches a user's milestones ordered by days required.
func (r *MilestoneRepository) ListMilestones(ctx context.Context, userID string) ([]models.Milestone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "days_required", Value: 1}, {Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to fetch milestones")
		return nil, fmt.Errorf("failed to fetch milestones: %w", err)
	}
	defer cursor.Close(ctx)

	milestones := []models.Milestone{}
	if err := cursor.All(ctx, &milestones); err != nil {
		logger.Log.WithError(err).Error("Failed to decode milestones")
		return nil, fmt.Errorf("failed to decode milestones: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"user_id": userID,
		"count":   len(milestones),
	}).Debug("Milestones fetched")
	return milestones, nil
}

// UpdateMilestone writes the editable fields of a milestone.
func (r *MilestoneRepository) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	m.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":         m.Title,
		"description":   m.Description,
		"days_required": m.DaysRequired,
		"category":      m.Category,
		"icon":          m.Icon,
		"color":         m.Color,
		"updated_at":    m.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": m.ID}, update)
	if err != nil {
		logger.Log.WithError(err).WithField("milestone_id", m.ID).Error("Failed to update milestone")
		return fmt.Errorf("failed to update milestone: %w", translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update milestone %s: %w", m.ID, ErrNotFound)
	}

	logger.Log.WithField("milestone_id", m.ID).Info("Milestone updated successfully")
	return nil
}

// MarkAchieved flips achieved to true only if it is still false, so a
// milestone is achieved, and notified, at most once.
func (r *MilestoneRepository) MarkAchieved(ctx context.Context, id string, at time.Time) (*models.Milestone, error) {
	filter := bson.M{"_id": id, "achieved": false}
	update := bson.M{"$set": bson.M{"achieved": true, "achieved_at": at, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m models.Milestone
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			err = ErrConflict
		}
		return nil, fmt.Errorf("failed to mark milestone %s achieved: %w", id, err)
	}

	logger.Log.WithField("milestone_id", id).Info("Milestone marked achieved")
	return &m, nil
}

// DeleteMilestone deletes a milestone from the database by its ID
func (r *MilestoneRepository) DeleteMilestone(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("milestone_id", id).Error("Failed to delete milestone")
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to delete milestone %s: %w", id, ErrNotFound)
	}

	logger.Log.WithField("milestone_id", id).Info("Milestone deleted successfully")
	return nil
}

// DeleteMilestonesByUser removes every milestone a user owns.
func (r *MilestoneRepository) DeleteMilestonesByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete milestones for user %s: %w", userID, err)
	}
	return res.DeletedCount, nil
}
