package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jai-platform/jai-api/databases"
	"github.com/jai-platform/jai-api/databases/mocks"
)

func TestMessageDatabase_UpdateMany(t *testing.T) {
	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)

	collectionHelper.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)
	dbHelper.On("Collection", "messages").Return(collectionHelper)

	res, err := databases.NewMessageDatabase(dbHelper).UpdateMany(context.Background(), bson.M{}, bson.M{"$set": bson.M{"message.isRead": true}})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), res.ModifiedCount)
}

func TestMessageDatabase_DeleteOne(t *testing.T) {
	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)

	id := primitive.NewObjectID()
	collectionHelper.On("DeleteOne", mock.Anything, bson.M{"_id": id}).Return(int64(1), nil)
	dbHelper.On("Collection", "messages").Return(collectionHelper)

	n, err := databases.NewMessageDatabase(dbHelper).DeleteOne(context.Background(), bson.M{"_id": id})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMessageDatabase_CountDocuments(t *testing.T) {
	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)

	collectionHelper.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("mocked-error"))
	dbHelper.On("Collection", "messages").Return(collectionHelper)

	n, err := databases.NewMessageDatabase(dbHelper).CountDocuments(context.Background(), bson.M{})
	assert.EqualError(t, err, "mocked-error")
	assert.Equal(t, int64(0), n)
}
