package services

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jai-platform/jai-api/databases"
	"github.com/jai-platform/jai-api/models"
)

// lawyerMatchScore is the score given to every lawyer search hit
const lawyerMatchScore = 75

// Directory owns user accounts and lawyer profiles
type Directory struct {
	Users   databases.UserDatabase
	Lawyers databases.LawyerDatabase
	Now     func() time.Time
}

// RegisterInput is the payload for creating an account
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	UserType  string `json:"userType"`
}

// LawyerProfileInput is the payload for creating or replacing a lawyer profile
type LawyerProfileInput struct {
	BarNumber          string   `json:"barNumber"`
	BarState           string   `json:"barState"`
	LawFirm            string   `json:"lawFirm"`
	YearsExperience    int      `json:"yearsExperience"`
	HourlyRate         *float64 `json:"hourlyRate"`
	Bio                string   `json:"bio"`
	Specializations    []string `json:"specializations"`
	Languages          []string `json:"languages"`
	AvailabilityStatus string   `json:"availabilityStatus"`
}

// LawyerQuery filters a lawyer search
type LawyerQuery struct {
	Specialization string
	Availability   string
	MinRating      float64
	Limit          int64
	Page           int64
}

// Register validates and stores a new account with a bcrypt password hash
func (d Directory) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, invalid("email is invalid")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, invalid("first and last name are required")
	}
	if utf8.RuneCountInString(in.Password) < 8 {
		return nil, invalid("password must be at least 8 characters")
	}
	userType := in.UserType
	if userType == "" {
		userType = models.UserTypeClient
	}
	if userType != models.UserTypeClient && userType != models.UserTypeLawyer {
		return nil, invalid("user type must be client or lawyer")
	}

	count, err := d.Users.CountDocuments(ctx, bson.M{"user.email": email})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, invalid("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := primitive.NewDateTimeFromTime(nowFunc(d.Now)())
	user := models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:        email,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			Phone:        in.Phone,
			UserType:     userType,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	if _, err := d.Users.InsertOne(ctx, user); err != nil {
		if databases.IsDuplicateKey(err) {
			return nil, invalid("email is already registered")
		}
		return nil, err
	}
	zap.S().Infow("user registered", "userID", user.ID.Hex(), "userType", userType)
	return &user, nil
}

// Authenticate returns the active account matching email and password
func (d Directory) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.Users.FindOne(ctx, bson.M{"user.email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthenticated
	}
	if !user.Details.IsActive {
		return nil, wrap(ErrUnauthenticated, "account is disabled")
	}
	return user, nil
}

// FindAccount returns the account with the given id
func (d Directory) FindAccount(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := d.Users.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, notFound("account %s does not exist", id.Hex())
		}
		return nil, err
	}
	return user, nil
}

// FindLawyerProfile returns the profile owned by the given lawyer account
func (d Directory) FindLawyerProfile(ctx context.Context, userID primitive.ObjectID) (*models.Lawyer, error) {
	lawyer, err := d.Lawyers.FindOne(ctx, bson.M{"lawyer.userID": userID})
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, notFound("lawyer profile for %s does not exist", userID.Hex())
		}
		return nil, err
	}
	return lawyer, nil
}

// UpsertLawyerProfile creates or replaces the actor's lawyer profile
func (d Directory) UpsertLawyerProfile(ctx context.Context, actor Actor, in LawyerProfileInput) (*models.Lawyer, error) {
	if !actor.IsLawyer() {
		return nil, permission("only lawyers can have a lawyer profile")
	}
	if strings.TrimSpace(in.BarNumber) == "" {
		return nil, invalid("bar number is required")
	}
	if in.YearsExperience < 0 {
		return nil, invalid("years of experience must not be negative")
	}
	if in.HourlyRate != nil && *in.HourlyRate < 0 {
		return nil, invalid("hourly rate must not be negative")
	}
	availability := in.AvailabilityStatus
	switch availability {
	case "":
		availability = models.AvailabilityAvailable
	case models.AvailabilityAvailable, models.AvailabilityBusy, models.AvailabilityUnavailable:
	default:
		return nil, invalid("availability must be available, busy or unavailable")
	}

	now := primitive.NewDateTimeFromTime(nowFunc(d.Now)())
	existing, err := d.Lawyers.FindOne(ctx, bson.M{"lawyer.userID": actor.ID})
	if err != nil && !databases.IsNotFound(err) {
		return nil, err
	}

	profile := models.Lawyer{ID: primitive.NewObjectID()}
	if existing != nil {
		profile = *existing
	} else {
		profile.Details.UserID = actor.ID
		profile.Details.CreatedAt = now
	}
	profile.Details.BarNumber = strings.TrimSpace(in.BarNumber)
	profile.Details.BarState = in.BarState
	profile.Details.LawFirm = in.LawFirm
	profile.Details.YearsExperience = in.YearsExperience
	profile.Details.HourlyRate = in.HourlyRate
	profile.Details.Bio = in.Bio
	profile.Details.Specializations = in.Specializations
	profile.Details.Languages = in.Languages
	profile.Details.AvailabilityStatus = availability
	profile.Details.UpdatedAt = now

	if existing != nil {
		_, err = d.Lawyers.UpdateOne(ctx, bson.M{"_id": profile.ID}, bson.M{"$set": bson.M{"lawyer": profile.Details}})
	} else {
		_, err = d.Lawyers.InsertOne(ctx, profile)
	}
	if err != nil {
		if databases.IsDuplicateKey(err) {
			return nil, invalid("bar number is already registered")
		}
		return nil, err
	}
	return &profile, nil
}

// SearchLawyers finds one page of lawyer profiles by specialization,
// availability and rating. Every hit carries the same match score.
func (d Directory) SearchLawyers(ctx context.Context, q LawyerQuery) ([]models.LawyerSearchResult, error) {
	filter := bson.M{}
	if s := strings.TrimSpace(q.Specialization); s != "" {
		filter["lawyer.specializations"] = bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
	}
	if q.Availability != "" {
		filter["lawyer.availabilityStatus"] = q.Availability
	}
	if q.MinRating > 0 {
		filter["lawyer.rating"] = bson.M{"$gte": q.MinRating}
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	opts := databases.Paginate(limit, q.Page).SetSort(bson.D{{Key: "lawyer.rating", Value: -1}})

	lawyers, err := d.Lawyers.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	results := []models.LawyerSearchResult{}
	for _, l := range lawyers {
		user, err := d.FindAccount(ctx, l.Details.UserID)
		if err != nil {
			zap.S().Warnw("lawyer profile without account", "lawyerID", l.ID.Hex(), "error", err)
			continue
		}
		results = append(results, models.LawyerSearchResult{
			UserID:             l.Details.UserID.Hex(),
			FirstName:          user.Details.FirstName,
			LastName:           user.Details.LastName,
			Email:              user.Details.Email,
			Specializations:    l.Details.Specializations,
			Rating:             l.Details.Rating,
			YearsExperience:    l.Details.YearsExperience,
			HourlyRate:         l.Details.HourlyRate,
			LawFirm:            l.Details.LawFirm,
			Bio:                l.Details.Bio,
			AvailabilityStatus: l.Details.AvailabilityStatus,
			MatchScore:         lawyerMatchScore,
		})
	}
	return results, nil
}
