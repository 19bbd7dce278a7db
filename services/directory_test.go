package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jai-platform/jai-api/models"
)

func TestDirectory_Register(t *testing.T) {
	e := newEnv(t)

	u, err := e.dir.Register(context.Background(), RegisterInput{
		Email:     " New.User@Example.com ",
		Password:  "correct horse",
		FirstName: "New",
		LastName:  "User",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", u.Details.Email)
	assert.Equal(t, models.UserTypeClient, u.Details.UserType)
	assert.True(t, u.Details.IsActive)
	assert.NotEqual(t, "correct horse", u.Details.PasswordHash)

	found, err := e.dir.Authenticate(context.Background(), "NEW.USER@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestDirectory_RegisterValidation(t *testing.T) {
	e := newEnv(t)

	tests := []RegisterInput{
		{Email: "not-an-email", Password: "password123", FirstName: "A", LastName: "B"},
		{Email: "a@example.com", Password: "short", FirstName: "A", LastName: "B"},
		{Email: "a@example.com", Password: "password123", FirstName: "", LastName: "B"},
		{Email: "a@example.com", Password: "password123", FirstName: "A", LastName: "B", UserType: models.UserTypeAdmin},
		{Email: "client@example.com", Password: "password123", FirstName: "A", LastName: "B"},
	}
	for _, in := range tests {
		_, err := e.dir.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrValidation, in.Email)
	}
}

func TestDirectory_Authenticate(t *testing.T) {
	e := newEnv(t)

	u, err := e.dir.Authenticate(context.Background(), "lawyer@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, e.lawyer.ID, u.ID)

	_, err = e.dir.Authenticate(context.Background(), "lawyer@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = e.dir.Authenticate(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = memDB[models.User]{e.users}.UpdateOne(context.Background(),
		bson.M{"_id": e.client.ID}, bson.M{"$set": bson.M{"user.isActive": false}})
	require.NoError(t, err)
	_, err = e.dir.Authenticate(context.Background(), "client@example.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDirectory_FindAccount(t *testing.T) {
	e := newEnv(t)

	u, err := e.dir.FindAccount(context.Background(), e.client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casey Client", u.FullName())

	_, err = e.dir.FindLawyerProfile(context.Background(), e.lawyer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_UpsertLawyerProfile(t *testing.T) {
	e := newEnv(t)

	_, err := e.dir.UpsertLawyerProfile(context.Background(), e.client, LawyerProfileInput{BarNumber: "B-1"})
	assert.ErrorIs(t, err, ErrPermission)

	_, err = e.dir.UpsertLawyerProfile(context.Background(), e.lawyer, LawyerProfileInput{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.dir.UpsertLawyerProfile(context.Background(), e.lawyer, LawyerProfileInput{BarNumber: "B-1", AvailabilityStatus: "asleep"})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := e.dir.UpsertLawyerProfile(context.Background(), e.lawyer, LawyerProfileInput{
		BarNumber:       "B-1",
		Specializations: []string{"Contract Law"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, created.Details.AvailabilityStatus)

	updated, err := e.dir.UpsertLawyerProfile(context.Background(), e.lawyer, LawyerProfileInput{
		BarNumber:       "B-1",
		LawFirm:         "Lawyer & Co",
		Specializations: []string{"Contract Law", "Real Estate"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	profile, err := e.dir.FindLawyerProfile(context.Background(), e.lawyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lawyer & Co", profile.Details.LawFirm)
	assert.Len(t, profile.Details.Specializations, 2)
	assert.Len(t, memDB[models.Lawyer]{e.lawyers}.all(), 1)
}

func TestDirectory_SearchLawyers(t *testing.T) {
	e := newEnv(t)

	_, err := e.dir.UpsertLawyerProfile(context.Background(), e.lawyer, LawyerProfileInput{
		BarNumber:       "B-1",
		Specializations: []string{"Contract Law"},
	})
	require.NoError(t, err)
	_, err = e.dir.UpsertLawyerProfile(context.Background(), e.otherLawyer, LawyerProfileInput{
		BarNumber:          "B-2",
		Specializations:    []string{"Family Law (Divorce)"},
		AvailabilityStatus: models.AvailabilityBusy,
	})
	require.NoError(t, err)

	results, err := e.dir.SearchLawyers(context.Background(), LawyerQuery{Specialization: "contract"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, e.lawyer.ID.Hex(), results[0].UserID)
	assert.Equal(t, "Lee", results[0].FirstName)
	assert.Equal(t, float64(75), results[0].MatchScore)

	// regex metacharacters are matched literally
	results, err = e.dir.SearchLawyers(context.Background(), LawyerQuery{Specialization: "(divorce)"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, e.otherLawyer.ID.Hex(), results[0].UserID)

	results, err = e.dir.SearchLawyers(context.Background(), LawyerQuery{Availability: models.AvailabilityAvailable})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = e.dir.SearchLawyers(context.Background(), LawyerQuery{})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	first, err := e.dir.SearchLawyers(context.Background(), LawyerQuery{Limit: 1, Page: 1})
	require.NoError(t, err)
	second, err := e.dir.SearchLawyers(context.Background(), LawyerQuery{Limit: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].UserID, second[0].UserID)

	past, err := e.dir.SearchLawyers(context.Background(), LawyerQuery{Limit: 1, Page: 3})
	require.NoError(t, err)
	assert.Empty(t, past)
}
