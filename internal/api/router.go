package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/blob"
	"github.com/groundcrewhq/groundcrew/internal/middleware"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Deps carries everything the router mounts.
type Deps struct {
	Staff         *store.StaffStore
	Audit         *store.AuditStore
	Teams         *store.TeamStore
	Facilities    *store.FacilityStore
	Tasks         *store.TaskStore
	Issues        *store.IssueStore
	Shifts        *store.ShiftStore
	Headcounts    *store.HeadcountStore
	Notifications *store.NotificationStore
	Ads           *store.AdStore
	Uploads       *store.BulkUploadStore

	Hub       *ws.Hub
	Publisher ws.Publisher
	Verifier  middleware.Verifier
	Auth      Authenticator
	Blob      *blob.Client
	Log       *zap.Logger
}

// NewRouter wires the full HTTP surface. Issue reporting and published
// ads are public; everything else requires a session.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimiddleware.Recoverer)

	staff := &StaffHandler{Store: deps.Staff, Audit: deps.Audit, Log: deps.Log}
	teams := &TeamsHandler{Store: deps.Teams, Log: deps.Log}
	facilities := &FacilitiesHandler{Store: deps.Facilities, Publisher: deps.Publisher, Log: deps.Log}
	tasks := &TasksHandler{Store: deps.Tasks, Publisher: deps.Publisher, Log: deps.Log}
	issues := &IssuesHandler{Store: deps.Issues, Publisher: deps.Publisher, Log: deps.Log}
	shifts := &ShiftsHandler{Store: deps.Shifts, Log: deps.Log}
	headcounts := &HeadcountsHandler{Headcounts: deps.Headcounts, Shifts: deps.Shifts, Publisher: deps.Publisher, Log: deps.Log}
	notifications := &NotificationsHandler{Store: deps.Notifications, Log: deps.Log}
	ads := &AdsHandler{Store: deps.Ads, Log: deps.Log}
	analytics := &AnalyticsHandler{
		Staff:      deps.Staff,
		Facilities: deps.Facilities,
		Tasks:      deps.Tasks,
		Issues:     deps.Issues,
		Headcounts: deps.Headcounts,
		Shifts:     deps.Shifts,
		Log:        deps.Log,
	}
	exports := &ExportHandler{Staff: deps.Staff, Tasks: deps.Tasks, Issues: deps.Issues, Log: deps.Log}
	uploads := &UploadsHandler{Staff: deps.Staff, Uploads: deps.Uploads, Blob: deps.Blob, Log: deps.Log}
	auth := &AuthHandler{Identity: deps.Auth, Log: deps.Log}

	r.Get("/health", handleHealth)
	r.Get("/", handleRoot)

	if deps.Hub != nil {
		r.Handle("/ws", &ws.Handler{Hub: deps.Hub})
	}

	r.Post("/api/auth/login", auth.Login)
	r.Post("/api/auth/logout", auth.Logout)
	r.Post("/api/auth/reset-password", auth.ResetPassword)

	// Public: anyone on site can report an issue or read announcements.
	r.Post("/api/issues", issues.Create)
	r.Get("/api/ads/published", ads.Published)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Verifier))

		r.Get("/api/staff", staff.List)
		r.Post("/api/staff", staff.Create)
		r.Get("/api/staff/{id}", staff.Get)
		r.Put("/api/staff/{id}", staff.Update)
		r.Patch("/api/staff/{id}/active", staff.SetActive)
		r.Patch("/api/staff/{id}/duty", staff.SetOnDuty)
		r.Get("/api/staff/{id}/audit", staff.AuditTrail)

		// Destructive routes need an elevated role on top of a session.
		elevated := middleware.RequireRole("admin", "manager")

		r.Get("/api/teams", teams.List)
		r.Post("/api/teams", teams.Create)
		r.Get("/api/teams/{id}", teams.Get)
		r.Put("/api/teams/{id}", teams.Update)
		r.With(elevated).Delete("/api/teams/{id}", teams.Delete)

		r.Get("/api/facilities", facilities.List)
		r.Post("/api/facilities", facilities.Create)
		r.Get("/api/facilities/{id}", facilities.Get)
		r.Put("/api/facilities/{id}", facilities.Update)
		r.Patch("/api/facilities/{id}/status", facilities.Transition)
		r.With(elevated).Delete("/api/facilities/{id}", facilities.Delete)

		r.Get("/api/tasks", tasks.List)
		r.Post("/api/tasks", tasks.Create)
		r.Get("/api/tasks/{id}", tasks.Get)
		r.Patch("/api/tasks/{id}/assignee", tasks.Assign)
		r.Patch("/api/tasks/{id}/status", tasks.Transition)

		r.Get("/api/issues", issues.List)
		r.Get("/api/issues/{id}", issues.Get)
		r.Patch("/api/issues/{id}/assignee", issues.Assign)
		r.Patch("/api/issues/{id}/status", issues.Transition)

		r.Get("/api/shifts", shifts.List)
		r.Post("/api/shifts", shifts.Create)
		r.Get("/api/shifts/{id}", shifts.Get)
		r.Put("/api/shifts/{id}", shifts.Update)
		r.Patch("/api/shifts/{id}/staff", shifts.SetStaff)
		r.With(elevated).Delete("/api/shifts/{id}", shifts.Delete)

		r.Get("/api/headcounts", headcounts.Latest)
		r.Post("/api/headcounts", headcounts.Record)
		r.Get("/api/headcounts/history", headcounts.History)
		r.Get("/api/coverage", headcounts.Coverage)

		r.Get("/api/notifications", notifications.List)
		r.Post("/api/notifications", notifications.Enqueue)

		r.Get("/api/ads", ads.List)
		r.Post("/api/ads", ads.Create)
		r.Get("/api/ads/{id}", ads.Get)
		r.Put("/api/ads/{id}", ads.Update)
		r.Patch("/api/ads/{id}/status", ads.Transition)
		r.With(elevated).Delete("/api/ads/{id}", ads.Delete)

		r.Get("/api/analytics/summary", analytics.Summary)

		r.Get("/api/export/staff.csv", exports.StaffCSV)
		r.Get("/api/export/tasks.csv", exports.TasksCSV)
		r.Get("/api/export/issues.csv", exports.IssuesCSV)

		r.Get("/api/uploads/roster-template.xlsx", uploads.Template)
		r.Post("/api/uploads/roster", uploads.ImportRoster)
		r.Get("/api/uploads", uploads.List)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":   "Groundcrew",
		"about":  "Staff coordination for large public events",
		"health": "/health",
	})
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
