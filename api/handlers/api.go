package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/api"
	"github.com/jai-platform/jai-api/api/scheduler"
	"github.com/jai-platform/jai-api/attachments"
	"github.com/jai-platform/jai-api/config"
	"github.com/jai-platform/jai-api/databases"
	"github.com/jai-platform/jai-api/mailer"
	"github.com/jai-platform/jai-api/meetings"
	"github.com/jai-platform/jai-api/models"
	"github.com/jai-platform/jai-api/realtime"
	"github.com/jai-platform/jai-api/services"
	"github.com/jai-platform/jai-api/session"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler

	dbHelper    databases.DatabaseHelper
	client      databases.ClientHelper
	revocations api.Revocations
	attachments attachments.Store
	closers     []func() error
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	users := databases.NewUserDatabase(a.dbHelper)
	requests := databases.NewRequestDatabase(a.dbHelper)
	dir := services.Directory{Users: users, Lawyers: databases.NewLawyerDatabase(a.dbHelper)}

	hub := realtime.NewHub()
	var mail services.Mailer
	if sg := mailer.NewSendGrid(a.Config.Mail); sg.Enabled() {
		mail = sg
	}
	notifier := services.Notifications{Pusher: hub, Mailer: mail, Accounts: dir}

	issuer := meetings.NewIssuer(a.Config.Meetings, &http.Client{Timeout: a.Config.Meetings.ProviderTimeout})
	zap.S().Infow("meeting links", "provider", issuer.ProviderName())

	reqs := services.RequestService{
		Requests: requests,
		Cases:    databases.NewCaseDatabase(a.dbHelper),
		Accounts: dir,
		Meetings: issuer,
		Notifier: notifier,
	}
	conv := services.ConversationService{
		Requests: requests,
		Messages: databases.NewMessageDatabase(a.dbHelper),
		Accounts: dir,
		Notifier: notifier,
	}

	ttl := a.Config.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	revocations := a.revocations
	if revocations == nil {
		revocations = api.NewMemoryRevocations(ttl)
	}
	guard := api.NewAuth(dir, api.NewTokenIssuer(a.Config.JWTSecret, ttl), revocations)
	a.Scheduler = scheduler.NewScheduler(requests, dir, mail)

	auth := Auth{Directory: dir, Guard: guard}
	l := Lawyer{Directory: dir}
	q := Request{Service: reqs}
	m := Message{Conversations: conv, Attachments: a.attachments}
	rt := Realtime{Hub: hub}

	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := mux.NewRouter()
	r.Use(api.LoggingMiddleware, api.TimeoutMiddleware(timeout))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/ws", queryToken(guard.Middleware(http.HandlerFunc(rt.ConnectHandler))))

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", guard.Middleware(http.HandlerFunc(auth.TokenHandler))).Methods("POST")
	apiCreate.Handle("/auth/logout", guard.Middleware(http.HandlerFunc(auth.LogoutHandler))).Methods("DELETE")
	apiCreate.Handle("/auth/me", guard.Middleware(http.HandlerFunc(auth.MeHandler))).Methods("GET")

	apiCreate.Handle("/lawyers", guard.Middleware(http.HandlerFunc(l.SearchHandler))).Methods("GET")
	apiCreate.Handle("/lawyers/profile", guard.Middleware(http.HandlerFunc(l.UpsertProfileHandler))).Methods("PUT")
	apiCreate.Handle("/lawyers/{user_id}", guard.Middleware(http.HandlerFunc(l.LawyerHandler))).Methods("GET")

	apiCreate.Handle("/requests", guard.Middleware(http.HandlerFunc(q.CreateRequestHandler))).Methods("POST")
	apiCreate.Handle("/requests", guard.Middleware(http.HandlerFunc(q.RequestsHandler))).Methods("GET")
	apiCreate.Handle("/requests/pending", guard.Middleware(http.HandlerFunc(q.PendingRequestsHandler))).Methods("GET")
	apiCreate.Handle("/requests/{id}", guard.Middleware(http.HandlerFunc(q.RequestByIDHandler))).Methods("GET")
	apiCreate.Handle("/requests/{id}", guard.Middleware(http.HandlerFunc(q.UpdateRequestHandler))).Methods("PUT")
	apiCreate.Handle("/requests/{id}", guard.Middleware(http.HandlerFunc(q.CancelRequestHandler))).Methods("DELETE")
	apiCreate.Handle("/requests/{id}/respond", guard.Middleware(http.HandlerFunc(q.RespondHandler))).Methods("POST")
	apiCreate.Handle("/requests/{id}/meeting", guard.Middleware(http.HandlerFunc(q.SelectMeetingHandler))).Methods("PUT")
	apiCreate.Handle("/requests/{id}/messages", guard.Middleware(http.HandlerFunc(m.MessagesHandler))).Methods("GET")
	apiCreate.Handle("/requests/{id}/messages", guard.Middleware(http.HandlerFunc(m.SendMessageHandler))).Methods("POST")
	apiCreate.Handle("/requests/{id}/mark-read", guard.Middleware(http.HandlerFunc(m.MarkConversationReadHandler))).Methods("POST")
	apiCreate.Handle("/requests/{id}/info", guard.Middleware(http.HandlerFunc(m.ConversationInfoHandler))).Methods("GET")
	apiCreate.Handle("/requests/{id}/attachments", guard.Middleware(http.HandlerFunc(m.UploadAttachmentHandler))).Methods("POST")

	apiCreate.Handle("/messages/mark-read", guard.Middleware(http.HandlerFunc(m.MarkReadHandler))).Methods("PUT")
	apiCreate.Handle("/messages/{id}", guard.Middleware(http.HandlerFunc(m.EditMessageHandler))).Methods("PUT")
	apiCreate.Handle("/messages/{id}", guard.Middleware(http.HandlerFunc(m.DeleteMessageHandler))).Methods("DELETE")
	apiCreate.Handle("/conversations", guard.Middleware(http.HandlerFunc(m.ConversationsHandler))).Methods("GET")

	apiCreate.Handle("/cases", guard.Middleware(http.HandlerFunc(q.CasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/{id}", guard.Middleware(http.HandlerFunc(q.CaseByIDHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("jai-api has connected to the database")

	if err := databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		zap.S().With(err).Error("failed to create indexes")
		return err
	}

	a.initializeSessions()
	a.initializeAttachments(ctx)
	a.initializeRoutes()
	a.Scheduler.Start()
	return nil
}

// initializeSessions uses the redis denylist when configured, otherwise
// revocations stay in process
func (a *App) initializeSessions() {
	if a.Config.RedisURL == "" {
		return
	}
	store, err := session.NewRevocationStore(a.Config.RedisURL)
	if err != nil {
		zap.S().Warnw("redis unavailable, token revocations are kept in memory", "error", err)
		return
	}
	a.revocations = store
	a.closers = append(a.closers, store.Close)
}

// initializeAttachments prefers MinIO and falls back to Cloudinary
func (a *App) initializeAttachments(ctx context.Context) {
	switch {
	case a.Config.Minio.Endpoint != "":
		store, err := attachments.NewMinioStore(a.Config.Minio)
		if err == nil {
			err = store.EnsureBucket(ctx)
		}
		if err != nil {
			zap.S().Warnw("attachments disabled", "store", "minio", "error", err)
			return
		}
		a.attachments = store
	case a.Config.Cloud.CloudName != "":
		store, err := attachments.NewCloudinaryStore(a.Config.Cloud)
		if err != nil {
			zap.S().Warnw("attachments disabled", "store", "cloudinary", "error", err)
			return
		}
		a.attachments = store
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close stops background work and releases connections
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			zap.S().Warnw("failed to close resource", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthCheckResponse{Alive: true})
}
