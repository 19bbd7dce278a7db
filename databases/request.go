package databases

// go generate: mockery --name RequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jai-platform/jai-api/models"
)

const requestName = "lawyer_requests"

// RequestDatabase contains the methods to use with the lawyer_requests collection
type RequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.LawyerRequest, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LawyerRequest, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type requestDatabase struct {
	db DatabaseHelper
}

// NewRequestDatabase initializes a new instance of request database with the provided db connection
func NewRequestDatabase(db DatabaseHelper) RequestDatabase {
	return &requestDatabase{
		db: db,
	}
}

func (c *requestDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.LawyerRequest, error) {
	request := &models.LawyerRequest{}
	err := c.db.Collection(requestName).FindOne(ctx, filter, opts...).Decode(&request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (c *requestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LawyerRequest, error) {
	var results []models.LawyerRequest
	curr, err := c.db.Collection(requestName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *requestDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(requestName).InsertOne(ctx, document, opts...)
}

func (c *requestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(requestName).UpdateOne(ctx, filter, update, opts...)
}

func (c *requestDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(requestName).CountDocuments(ctx, filter, opts...)
}
