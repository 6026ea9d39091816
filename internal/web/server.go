// Package web is the HTTP surface of the gateway: the form page, the
// prediction and report endpoints, and the small JSON APIs the page script
// uses for notifications, theme, storage and analytics.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/risklens/internal/analytics"
	"github.com/Skufu/risklens/internal/form"
	"github.com/Skufu/risklens/internal/notify"
	"github.com/Skufu/risklens/internal/predictor"
	"github.com/Skufu/risklens/internal/progress"
	"github.com/Skufu/risklens/internal/session"
	"github.com/Skufu/risklens/internal/storage"
	"github.com/Skufu/risklens/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Predictor is the backend the gateway forwards to.
type Predictor interface {
	Predict(ctx context.Context, st form.State) (*predictor.Response, error)
	Report(ctx context.Context, st form.State) (*predictor.Report, error)
}

// Deps is everything the handlers need. The composition root owns every
// service; nothing here is global.
type Deps struct {
	Predictor      Predictor
	Rules          form.Rules
	ReportFilename string
	Notify         *notify.Center
	Progress       *progress.Registry
	Theme          *theme.Manager
	Storage        *storage.Manager
	Analytics      *analytics.Registry
	Sequencer      *session.Sequencer
}

type Server struct {
	deps Deps
	tmpl *template.Template
}

func New(deps Deps) (*Server, error) {
	if deps.Predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}
	if deps.ReportFilename == "" {
		deps.ReportFilename = "Rapport_Analyse_Sante.pdf"
	}
	if deps.Notify == nil {
		deps.Notify = notify.NewCenter(0)
	}
	if deps.Progress == nil {
		deps.Progress = progress.NewRegistry(progress.FadeDelay)
	}
	if deps.Storage == nil {
		deps.Storage = storage.NewManager(nil, nil)
	}
	if deps.Theme == nil {
		deps.Theme = theme.NewManager(nil, deps.Storage)
	}
	if deps.Analytics == nil {
		deps.Analytics = analytics.NewRegistry()
	}
	if deps.Sequencer == nil {
		deps.Sequencer = session.NewSequencer()
	}
	if deps.Rules.Bounds.Label == "" {
		deps.Rules.Bounds = form.StrictBounds
	}

	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{deps: deps, tmpl: tmpl}, nil
}

// Register mounts every route. session.Middleware must already be installed.
func (s *Server) Register(r gin.IRouter) {
	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.handleIndex)
	r.POST("/predict", s.handlePredictPage)
	r.POST("/report", s.handleReport)
	r.POST("/theme/toggle", s.handleThemeTogglePage)

	api := r.Group("/api")
	api.POST("/predict", s.handlePredictAPI)
	api.GET("/visibility", s.handleVisibility)
	api.GET("/progress", s.handleProgress)

	api.GET("/notifications", s.handleListNotifications)
	api.DELETE("/notifications", s.handleClearNotifications)
	api.DELETE("/notifications/:id", s.handleRemoveNotification)

	api.GET("/theme", s.handleGetTheme)
	api.POST("/theme/toggle", s.handleToggleTheme)
	api.PUT("/theme/:name", s.handleSetTheme)

	api.GET("/storage/:scope/:key", s.handleStorageGet)
	api.PUT("/storage/:scope/:key", s.handleStorageSet)
	api.DELETE("/storage/:scope/:key", s.handleStorageRemove)
	api.DELETE("/storage/:scope", s.handleStorageClear)

	api.GET("/analytics", s.handleAnalyticsExport)
	api.POST("/analytics/events", s.handleAnalyticsTrack)
	api.POST("/analytics/click", s.handleAnalyticsClick)
	api.DELETE("/analytics", s.handleAnalyticsClear)
}

var templateFuncs = template.FuncMap{
	"field": selectFor,
	"css": func(prop, value string) template.CSS {
		return template.CSS(prop + ": " + value + "; ")
	},
}
