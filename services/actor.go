package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jai-platform/jai-api/models"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	ID       primitive.ObjectID
	UserType string
}

// IsClient reports whether the actor has a client account
func (a Actor) IsClient() bool { return a.UserType == models.UserTypeClient }

// IsLawyer reports whether the actor has a lawyer account
func (a Actor) IsLawyer() bool { return a.UserType == models.UserTypeLawyer }

// AccountFinder resolves accounts for display names and email addresses
type AccountFinder interface {
	FindAccount(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// displayNames resolves and memoizes account names for one response
type displayNames struct {
	accounts AccountFinder
	cache    map[primitive.ObjectID]*models.User
}

func newDisplayNames(accounts AccountFinder) *displayNames {
	return &displayNames{accounts: accounts, cache: map[primitive.ObjectID]*models.User{}}
}

func (d *displayNames) user(ctx context.Context, id primitive.ObjectID) *models.User {
	if u, ok := d.cache[id]; ok {
		return u
	}
	var u *models.User
	if d.accounts != nil {
		u, _ = d.accounts.FindAccount(ctx, id)
	}
	d.cache[id] = u
	return u
}

func (d *displayNames) name(ctx context.Context, id primitive.ObjectID) string {
	if u := d.user(ctx, id); u != nil {
		return u.FullName()
	}
	return "Unknown"
}

func (d *displayNames) email(ctx context.Context, id primitive.ObjectID) string {
	if u := d.user(ctx, id); u != nil {
		return u.Details.Email
	}
	return ""
}

func nowFunc(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
