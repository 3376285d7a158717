package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tomvanoss/chorewheel/internal/backup"
	"github.com/tomvanoss/chorewheel/internal/config"
	"github.com/tomvanoss/chorewheel/internal/handler"
	"github.com/tomvanoss/chorewheel/internal/middleware"
	"github.com/tomvanoss/chorewheel/internal/store"
	ws "github.com/tomvanoss/chorewheel/internal/websocket"
)

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	taskH     *handler.TaskHandler
	calendarH *handler.CalendarHandler
	settingsH *handler.SettingsHandler
	backupMgr *backup.Manager
	logger    *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	taskStore := store.NewTaskStore(db)

	backupMgr := backup.NewManager(backup.Config{
		DBPath:     cfg.DBPath,
		Passphrase: cfg.BackupPassphrase,
		S3: backup.S3Config{
			Endpoint:  cfg.BackupEndpoint,
			Bucket:    cfg.BackupBucket,
			Region:    cfg.BackupRegion,
			AccessKey: cfg.BackupKeyID,
			SecretKey: cfg.BackupSecret,
		},
	}, db, logger.With("component", "backup"))

	return &Server{
		db:        db,
		hub:       hub,
		taskH:     handler.NewTaskHandler(taskStore, hub, cfg.Location, logger.With("component", "task")),
		calendarH: handler.NewCalendarHandler(taskStore, cfg.Location, logger.With("component", "calendar")),
		settingsH: handler.NewSettingsHandler(cfg.Location, cfg.TouchMode),
		backupMgr: backupMgr,
		logger:    logger,
	}
}

// Backups returns the snapshot manager for callers that trigger backups.
func (s *Server) Backups() *backup.Manager {
	return s.backupMgr
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}/complete", s.taskH.UndoComplete)
	mux.HandleFunc("GET /api/tasks/{id}/completions", s.taskH.ListCompletions)

	mux.HandleFunc("GET /api/calendar", s.calendarH.Month)
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)

	mux.HandleFunc("POST /api/backup", func(w http.ResponseWriter, r *http.Request) {
		if err := s.backupMgr.Run(r.Context(), ""); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /api/backup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.backupMgr.Status())
	})

	mux.Handle("GET /ws", ws.Handle(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}
