package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/databases"
	"github.com/jai-platform/jai-api/meetings"
	"github.com/jai-platform/jai-api/models"
)

// Respond actions
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// MeetingIssuer produces a meeting link for an accepted request. A nil link
// with a nil error means issuance is disabled.
type MeetingIssuer interface {
	Issue(ctx context.Context, in meetings.IssueInput) (*models.MeetingLink, error)
}

// RequestService owns the request lifecycle: pending to accepted, rejected or
// cancelled, plus the case and meeting link created on acceptance
type RequestService struct {
	Requests databases.RequestDatabase
	Cases    databases.CaseDatabase
	Accounts AccountFinder
	Meetings MeetingIssuer
	Notifier Notifier
	Now      func() time.Time
}

// CreateRequestInput is the content of a new request
type CreateRequestInput struct {
	LawyerID             string   `json:"lawyerID"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	UrgencyLevel         string   `json:"urgencyLevel"`
	BudgetMin            *float64 `json:"budgetMin"`
	BudgetMax            *float64 `json:"budgetMax"`
	PreferredMeetingType string   `json:"preferredMeetingType"`
	Location             string   `json:"location"`
	AdditionalNotes      string   `json:"additionalNotes"`
}

// RequestPatch holds the client-writable fields of a pending request. Nil
// fields are left unchanged.
type RequestPatch struct {
	Title                *string  `json:"title"`
	Description          *string  `json:"description"`
	Category             *string  `json:"category"`
	UrgencyLevel         *string  `json:"urgencyLevel"`
	BudgetMin            *float64 `json:"budgetMin"`
	BudgetMax            *float64 `json:"budgetMax"`
	PreferredMeetingType *string  `json:"preferredMeetingType"`
	Location             *string  `json:"location"`
	AdditionalNotes      *string  `json:"additionalNotes"`
}

// RespondInput is the lawyer's answer to a pending request
type RespondInput struct {
	Action       string               `json:"action"`
	Message      string               `json:"message"`
	MeetingSlots []models.MeetingSlot `json:"meetingSlots"`
}

func (s RequestService) now() time.Time { return nowFunc(s.Now)() }

// Create stores a pending request from a client to a lawyer
func (s RequestService) Create(ctx context.Context, actor Actor, in CreateRequestInput) (*models.LawyerRequest, error) {
	if !actor.IsClient() {
		return nil, permission("only clients can create requests")
	}
	lawyerID, err := primitive.ObjectIDFromHex(in.LawyerID)
	if err != nil {
		return nil, invalid("lawyer id is malformed")
	}
	urgency := in.UrgencyLevel
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	details := models.LawyerRequestDetails{
		ClientID:             actor.ID,
		LawyerID:             lawyerID,
		Title:                strings.TrimSpace(in.Title),
		Description:          strings.TrimSpace(in.Description),
		Category:             strings.TrimSpace(in.Category),
		UrgencyLevel:         urgency,
		BudgetMin:            in.BudgetMin,
		BudgetMax:            in.BudgetMax,
		PreferredMeetingType: in.PreferredMeetingType,
		Location:             in.Location,
		AdditionalNotes:      in.AdditionalNotes,
		Status:               models.RequestStatusPending,
	}
	if err := validateContent(details); err != nil {
		return nil, err
	}

	lawyer, err := s.Accounts.FindAccount(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	if lawyer.Details.UserType != models.UserTypeLawyer {
		return nil, notFound("lawyer %s does not exist", lawyerID.Hex())
	}

	now := primitive.NewDateTimeFromTime(s.now())
	details.CreatedAt = now
	details.UpdatedAt = now
	req := models.LawyerRequest{ID: primitive.NewObjectID(), Details: details}
	if _, err := s.Requests.InsertOne(ctx, req); err != nil {
		return nil, err
	}

	zap.S().Infow("request created", "requestID", req.ID.Hex(), "clientID", actor.ID.Hex(), "lawyerID", lawyerID.Hex())
	if s.Notifier != nil {
		s.Notifier.RequestCreated(ctx, req)
	}
	return &req, nil
}

// Respond accepts or rejects a pending request. Only the request's lawyer may
// respond, and only once: the status write is conditional on the request
// still being pending.
func (s RequestService) Respond(ctx context.Context, actor Actor, requestID primitive.ObjectID, in RespondInput) (*models.LawyerRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.ID != req.Details.LawyerID {
		return nil, permission("only the request's lawyer can respond")
	}
	if req.Details.Status != models.RequestStatusPending {
		return nil, conflict("request is not pending")
	}
	if in.Action != ActionAccept && in.Action != ActionReject {
		return nil, invalid("action must be accept or reject")
	}
	if utf8.RuneCountInString(in.Message) > 500 {
		return nil, invalid("response message must be at most 500 characters")
	}

	now := s.now()
	respondedAt := primitive.NewDateTimeFromTime(now)
	set := bson.M{
		"request.responseMessage": in.Message,
		"request.respondedAt":     respondedAt,
		"request.updatedAt":       respondedAt,
	}
	var slots []models.MeetingSlot
	if in.Action == ActionAccept {
		slots, err = normalizeSlots(in.MeetingSlots)
		if err != nil {
			return nil, err
		}
		set["request.status"] = models.RequestStatusAccepted
		set["request.meetingSlots"] = slots
	} else {
		set["request.status"] = models.RequestStatusRejected
	}

	res, err := s.Requests.UpdateOne(ctx,
		bson.M{"_id": req.ID, "request.status": models.RequestStatusPending},
		bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, conflict("request is not pending")
	}

	prev := req.Details
	req.Details.Status = set["request.status"].(string)
	req.Details.ResponseMessage = in.Message
	req.Details.RespondedAt = &respondedAt
	req.Details.UpdatedAt = respondedAt
	if in.Action == ActionAccept {
		req.Details.MeetingSlots = slots
		if err := s.openCase(ctx, *req, now); err != nil {
			s.reopen(ctx, req.ID, prev)
			return nil, err
		}
		if len(slots) > 0 {
			req.Details.MeetingLink = s.issueMeetingLink(ctx, *req)
		}
	}

	zap.S().Infow("request responded", "requestID", req.ID.Hex(), "status", req.Details.Status)
	if s.Notifier != nil {
		s.Notifier.RequestResponded(ctx, *req)
	}
	return req, nil
}

// openCase snapshots an accepted request into the cases collection
func (s RequestService) openCase(ctx context.Context, req models.LawyerRequest, now time.Time) error {
	id := primitive.NewObjectID()
	hex := id.Hex()
	created := primitive.NewDateTimeFromTime(now)
	c := models.Case{
		ID: id,
		Details: models.CaseDetails{
			CaseNumber:   fmt.Sprintf("CASE-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex[len(hex)-6:])),
			RequestID:    req.ID,
			ClientID:     req.Details.ClientID,
			LawyerID:     req.Details.LawyerID,
			Title:        req.Details.Title,
			Description:  req.Details.Description,
			Category:     req.Details.Category,
			UrgencyLevel: req.Details.UrgencyLevel,
			BudgetMin:    req.Details.BudgetMin,
			BudgetMax:    req.Details.BudgetMax,
			Status:       models.CaseStatusInProgress,
			CreatedAt:    created,
			UpdatedAt:    created,
		},
	}
	if _, err := s.Cases.InsertOne(ctx, c); err != nil {
		zap.S().Errorw("failed to create case for accepted request", "requestID", req.ID.Hex(), "error", err)
		return err
	}
	return nil
}

// reopen puts an accepted request back to pending with its previous response
// fields, so a failed acceptance can be retried
func (s RequestService) reopen(ctx context.Context, id primitive.ObjectID, prev models.LawyerRequestDetails) {
	res, err := s.Requests.UpdateOne(ctx,
		bson.M{"_id": id, "request.status": models.RequestStatusAccepted},
		bson.M{"$set": bson.M{
			"request.status":          models.RequestStatusPending,
			"request.responseMessage": prev.ResponseMessage,
			"request.respondedAt":     prev.RespondedAt,
			"request.meetingSlots":    prev.MeetingSlots,
			"request.updatedAt":       prev.UpdatedAt,
		}})
	if err != nil || res.MatchedCount == 0 {
		zap.S().Errorw("failed to reopen request after case creation failed", "requestID", id.Hex(), "error", err)
	}
}

// issueMeetingLink tries to create a meeting for the first proposed slot.
// Failures are logged and leave the request without a link.
func (s RequestService) issueMeetingLink(ctx context.Context, req models.LawyerRequest) *models.MeetingLink {
	if s.Meetings == nil {
		return nil
	}
	names := newDisplayNames(s.Accounts)
	link, err := s.Meetings.Issue(ctx, meetings.IssueInput{
		Title:       req.Details.Title,
		Description: req.Details.Description,
		Slot:        req.Details.MeetingSlots[0],
		HostEmail:   names.email(ctx, req.Details.LawyerID),
		Attendees:   nonEmpty(names.email(ctx, req.Details.ClientID)),
	})
	if err != nil {
		zap.S().Warnw("meeting link not issued", "requestID", req.ID.Hex(), "error", err)
		return nil
	}
	if link == nil {
		return nil
	}
	if _, err := s.Requests.UpdateOne(ctx, bson.M{"_id": req.ID}, bson.M{"$set": bson.M{"request.meetingLink": link}}); err != nil {
		zap.S().Errorw("failed to store meeting link", "requestID", req.ID.Hex(), "error", err)
		return nil
	}
	return link
}

// Update applies a client patch to a pending request
func (s RequestService) Update(ctx context.Context, actor Actor, requestID primitive.ObjectID, patch RequestPatch) (*models.LawyerRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.ID != req.Details.ClientID {
		return nil, permission("only the request's client can update it")
	}
	if req.Details.Status != models.RequestStatusPending {
		return nil, conflict("request is not pending")
	}

	set := bson.M{}
	d := req.Details
	if patch.Title != nil {
		d.Title = strings.TrimSpace(*patch.Title)
		set["request.title"] = d.Title
	}
	if patch.Description != nil {
		d.Description = strings.TrimSpace(*patch.Description)
		set["request.description"] = d.Description
	}
	if patch.Category != nil {
		d.Category = strings.TrimSpace(*patch.Category)
		set["request.category"] = d.Category
	}
	if patch.UrgencyLevel != nil {
		d.UrgencyLevel = *patch.UrgencyLevel
		set["request.urgencyLevel"] = d.UrgencyLevel
	}
	if patch.BudgetMin != nil {
		d.BudgetMin = patch.BudgetMin
		set["request.budgetMin"] = d.BudgetMin
	}
	if patch.BudgetMax != nil {
		d.BudgetMax = patch.BudgetMax
		set["request.budgetMax"] = d.BudgetMax
	}
	if patch.PreferredMeetingType != nil {
		d.PreferredMeetingType = *patch.PreferredMeetingType
		set["request.preferredMeetingType"] = d.PreferredMeetingType
	}
	if patch.Location != nil {
		d.Location = *patch.Location
		set["request.location"] = d.Location
	}
	if patch.AdditionalNotes != nil {
		d.AdditionalNotes = *patch.AdditionalNotes
		set["request.additionalNotes"] = d.AdditionalNotes
	}
	if len(set) == 0 {
		return nil, invalid("no updatable fields given")
	}
	if err := validateContent(d); err != nil {
		return nil, err
	}

	d.UpdatedAt = primitive.NewDateTimeFromTime(s.now())
	set["request.updatedAt"] = d.UpdatedAt
	if err := s.conditionalSet(ctx, req.ID, models.RequestStatusPending, set, "request is not pending"); err != nil {
		return nil, err
	}
	req.Details = d
	return req, nil
}

// Cancel withdraws a pending request
func (s RequestService) Cancel(ctx context.Context, actor Actor, requestID primitive.ObjectID) (*models.LawyerRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.ID != req.Details.ClientID {
		return nil, permission("only the request's client can cancel it")
	}
	if req.Details.Status != models.RequestStatusPending {
		return nil, conflict("request is not pending")
	}

	updated := primitive.NewDateTimeFromTime(s.now())
	set := bson.M{"request.status": models.RequestStatusCancelled, "request.updatedAt": updated}
	if err := s.conditionalSet(ctx, req.ID, models.RequestStatusPending, set, "request is not pending"); err != nil {
		return nil, err
	}
	req.Details.Status = models.RequestStatusCancelled
	req.Details.UpdatedAt = updated
	zap.S().Infow("request cancelled", "requestID", req.ID.Hex())
	return req, nil
}

// SelectMeeting stores the client's chosen slot on an accepted request. The
// last selection wins and it is not checked against the proposed slots.
func (s RequestService) SelectMeeting(ctx context.Context, actor Actor, requestID primitive.ObjectID, slot models.MeetingSlot) (*models.LawyerRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.ID != req.Details.ClientID {
		return nil, permission("only the request's client can select a meeting")
	}
	if req.Details.Status != models.RequestStatusAccepted {
		return nil, conflict("request is not accepted")
	}
	if strings.TrimSpace(slot.Date) == "" || strings.TrimSpace(slot.Time) == "" {
		return nil, invalid("meeting date and time are required")
	}
	if slot.Duration <= 0 {
		slot.Duration = int(meetings.DefaultDuration / time.Minute)
	}
	if slot.MeetingType == "" {
		slot.MeetingType = models.MeetingTypeOnline
	}

	now := primitive.NewDateTimeFromTime(s.now())
	selected := &models.SelectedMeeting{MeetingSlot: slot, SelectedAt: now}
	if start, err := meetings.ParseSlot(slot.Date, slot.Time); err == nil {
		startsAt := primitive.NewDateTimeFromTime(start)
		selected.StartsAt = &startsAt
	}

	set := bson.M{"request.selectedMeeting": selected, "request.updatedAt": now}
	if err := s.conditionalSet(ctx, req.ID, models.RequestStatusAccepted, set, "request is not accepted"); err != nil {
		return nil, err
	}
	req.Details.SelectedMeeting = selected
	req.Details.UpdatedAt = now
	return req, nil
}

// Get returns a request to one of its parties
func (s RequestService) Get(ctx context.Context, actor Actor, requestID primitive.ObjectID) (*models.RequestView, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(actor.ID) {
		return nil, permission("only the request's client or lawyer can view it")
	}
	view := s.view(ctx, newDisplayNames(s.Accounts), *req)
	return &view, nil
}

// ListFor returns the requests the actor sent (clients) or received
// (lawyers), newest first
func (s RequestService) ListFor(ctx context.Context, actor Actor) ([]models.RequestView, error) {
	var filter bson.M
	switch {
	case actor.IsClient():
		filter = bson.M{"request.clientID": actor.ID}
	case actor.IsLawyer():
		filter = bson.M{"request.lawyerID": actor.ID}
	default:
		return nil, permission("only clients and lawyers have requests")
	}
	return s.list(ctx, filter)
}

// ListPending returns the lawyer's requests awaiting a response, newest first
func (s RequestService) ListPending(ctx context.Context, actor Actor) ([]models.RequestView, error) {
	if !actor.IsLawyer() {
		return nil, permission("only lawyers can list pending requests")
	}
	return s.list(ctx, bson.M{"request.lawyerID": actor.ID, "request.status": models.RequestStatusPending})
}

// ListCasesFor returns the cases the actor is a party to, newest first
func (s RequestService) ListCasesFor(ctx context.Context, actor Actor) ([]models.Case, error) {
	filter := bson.M{"$or": []bson.M{{"case.clientID": actor.ID}, {"case.lawyerID": actor.ID}}}
	cases, err := s.Cases.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "case.createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases, nil
}

// GetCase returns a case to one of its parties
func (s RequestService) GetCase(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, error) {
	c, err := s.Cases.FindOne(ctx, bson.M{"_id": caseID})
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, notFound("case %s does not exist", caseID.Hex())
		}
		return nil, err
	}
	if actor.ID != c.Details.ClientID && actor.ID != c.Details.LawyerID {
		return nil, permission("only the case's client or lawyer can view it")
	}
	return c, nil
}

func (s RequestService) list(ctx context.Context, filter bson.M) ([]models.RequestView, error) {
	reqs, err := s.Requests.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "request.createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	names := newDisplayNames(s.Accounts)
	views := make([]models.RequestView, 0, len(reqs))
	for _, r := range reqs {
		views = append(views, s.view(ctx, names, r))
	}
	return views, nil
}

func (s RequestService) view(ctx context.Context, names *displayNames, r models.LawyerRequest) models.RequestView {
	return models.RequestView{
		LawyerRequest: r,
		ClientName:    names.name(ctx, r.Details.ClientID),
		ClientEmail:   names.email(ctx, r.Details.ClientID),
		LawyerName:    names.name(ctx, r.Details.LawyerID),
		LawyerEmail:   names.email(ctx, r.Details.LawyerID),
	}
}

func (s RequestService) load(ctx context.Context, id primitive.ObjectID) (*models.LawyerRequest, error) {
	return loadRequest(ctx, s.Requests, id)
}

// conditionalSet applies set only while the request still has status
func (s RequestService) conditionalSet(ctx context.Context, id primitive.ObjectID, status string, set bson.M, lost string) error {
	res, err := s.Requests.UpdateOne(ctx, bson.M{"_id": id, "request.status": status}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return conflict("%s", lost)
	}
	return nil
}

func loadRequest(ctx context.Context, db databases.RequestDatabase, id primitive.ObjectID) (*models.LawyerRequest, error) {
	req, err := db.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, notFound("request %s does not exist", id.Hex())
		}
		return nil, err
	}
	return req, nil
}

var urgencies = map[string]bool{
	models.UrgencyLow:    true,
	models.UrgencyMedium: true,
	models.UrgencyHigh:   true,
	models.UrgencyUrgent: true,
}

func validateContent(d models.LawyerRequestDetails) error {
	chars := utf8.RuneCountInString
	switch {
	case chars(d.Title) < 1 || chars(d.Title) > 200:
		return invalid("title must be 1 to 200 characters")
	case chars(d.Description) < 10 || chars(d.Description) > 2000:
		return invalid("description must be 10 to 2000 characters")
	case chars(d.Category) < 1 || chars(d.Category) > 100:
		return invalid("category must be 1 to 100 characters")
	case !urgencies[d.UrgencyLevel]:
		return invalid("urgency must be low, medium, high or urgent")
	case d.BudgetMin != nil && *d.BudgetMin < 0, d.BudgetMax != nil && *d.BudgetMax < 0:
		return invalid("budget must not be negative")
	case d.BudgetMin != nil && d.BudgetMax != nil && *d.BudgetMin > *d.BudgetMax:
		return invalid("budget minimum must not exceed maximum")
	case chars(d.PreferredMeetingType) > 50:
		return invalid("preferred meeting type must be at most 50 characters")
	case chars(d.Location) > 200:
		return invalid("location must be at most 200 characters")
	case chars(d.AdditionalNotes) > 1000:
		return invalid("additional notes must be at most 1000 characters")
	}
	return nil
}

// normalizeSlots fills slot defaults and marks every proposed slot available
func normalizeSlots(in []models.MeetingSlot) ([]models.MeetingSlot, error) {
	slots := make([]models.MeetingSlot, 0, len(in))
	for i, slot := range in {
		if strings.TrimSpace(slot.Date) == "" || strings.TrimSpace(slot.Time) == "" {
			return nil, invalid("meeting slot %d needs a date and time", i+1)
		}
		if slot.Duration <= 0 {
			slot.Duration = int(meetings.DefaultDuration / time.Minute)
		}
		if slot.MeetingType == "" {
			slot.MeetingType = models.MeetingTypeOnline
		}
		slot.Available = true
		slots = append(slots, slot)
	}
	return slots, nil
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
