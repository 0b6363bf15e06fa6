package scheduler

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/davidkych/cursus-backend/internal/models"
)

var ErrNotFound = errors.New("scheduler: job not found")

// JobStore persists schedule jobs. The Mongo implementation is the durable
// registry; tests substitute an in-memory one.
type JobStore interface {
	Insert(ctx context.Context, job *models.ScheduleJob) error
	Get(ctx context.Context, instanceID string) (*models.ScheduleJob, error)
	Update(ctx context.Context, job *models.ScheduleJob) error
	Delete(ctx context.Context, instanceID string) error
	ListRegistered(ctx context.Context) ([]models.ScheduleJob, error)
}

type mongoJobStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a JobStore backed by the schedules collection.
func NewMongoStore(db *mongo.Database) JobStore {
	return &mongoJobStore{coll: db.Collection("schedules")}
}

func (s *mongoJobStore) Insert(ctx context.Context, job *models.ScheduleJob) error {
	_, err := s.coll.InsertOne(ctx, job)
	return err
}

func (s *mongoJobStore) Get(ctx context.Context, instanceID string) (*models.ScheduleJob, error) {
	var job models.ScheduleJob
	err := s.coll.FindOne(ctx, bson.M{"instanceId": instanceID}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *mongoJobStore) Update(ctx context.Context, job *models.ScheduleJob) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"instanceId": job.InstanceID}, job)
	return err
}

func (s *mongoJobStore) Delete(ctx context.Context, instanceID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"instanceId": instanceID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoJobStore) ListRegistered(ctx context.Context) ([]models.ScheduleJob, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"registered": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []models.ScheduleJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
