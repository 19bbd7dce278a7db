package databases

// go generate: mockery --name LawyerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jai-platform/jai-api/models"
)

const lawyerName = "lawyers"

// LawyerDatabase contains the methods to use with the lawyers collection
type LawyerDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Lawyer, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Lawyer, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type lawyerDatabase struct {
	db DatabaseHelper
}

// NewLawyerDatabase initializes a new instance of lawyer database with the provided db connection
func NewLawyerDatabase(db DatabaseHelper) LawyerDatabase {
	return &lawyerDatabase{
		db: db,
	}
}

func (c *lawyerDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Lawyer, error) {
	lawyer := &models.Lawyer{}
	err := c.db.Collection(lawyerName).FindOne(ctx, filter, opts...).Decode(&lawyer)
	if err != nil {
		return nil, err
	}
	return lawyer, nil
}

func (c *lawyerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Lawyer, error) {
	var results []models.Lawyer
	curr, err := c.db.Collection(lawyerName).Find(ctx, filter, opts...)
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

func (c *lawyerDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(lawyerName).InsertOne(ctx, document, opts...)
}

func (c *lawyerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(lawyerName).UpdateOne(ctx, filter, update, opts...)
}

func (c *lawyerDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(lawyerName).CountDocuments(ctx, filter, opts...)
}
