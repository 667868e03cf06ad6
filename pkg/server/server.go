// Package server exposes the alarm manager and todo list over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/borgmon/nudge/pkg/alarm"
	"github.com/borgmon/nudge/pkg/calendar"
	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/parser"
	"github.com/borgmon/nudge/pkg/store"
	"github.com/borgmon/nudge/pkg/todo"
)

// Alarms is the part of the alarm manager the API drives.
type Alarms interface {
	AddAlarm(models.ParsedAlarm) (string, error)
	CancelAlarm(id string) bool
	GetActiveAlarms() []models.Alarm
	GetAllAlarms() []models.Alarm
	ClearAllAlarms()
}

// Todos persists to-do items.
type Todos interface {
	CreateTodo(ctx context.Context, t *models.Todo) error
	GetTodos(ctx context.Context, filter store.TodoFilter) ([]models.Todo, error)
	CompleteTodo(ctx context.Context, id string) error
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
	Auth           *Middleware // nil disables token checks
	Todos          Todos       // nil disables the todo routes
	Now            func() time.Time
}

// Server handles the HTTP API.
type Server struct {
	alarms  Alarms
	todos   Todos
	phrases *parser.Parser
	tasks   *todo.Parser
	auth    *Middleware
	origins []string
	now     func() time.Time
}

// New creates a Server.
func New(alarms Alarms, phrases *parser.Parser, opts Options) *Server {
	s := &Server{
		alarms:  alarms,
		todos:   opts.Todos,
		phrases: phrases,
		tasks:   todo.New(phrases),
		auth:    opts.Auth,
		origins: opts.AllowedOrigins,
		now:     opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/parse", s.handleParse)
	api.HandleFunc("POST /api/alarms", s.handleAddAlarm)
	api.HandleFunc("GET /api/alarms", s.handleListAlarms)
	api.HandleFunc("DELETE /api/alarms", s.handleClearAlarms)
	api.HandleFunc("DELETE /api/alarms/{id}", s.handleCancelAlarm)
	api.HandleFunc("GET /api/alarms.ics", s.handleExport)
	api.HandleFunc("POST /api/todos", s.handleAddTodos)
	api.HandleFunc("GET /api/todos", s.handleListTodos)
	api.HandleFunc("POST /api/todos/{id}/complete", s.handleCompleteTodo)

	var protected http.Handler = api
	if s.auth != nil {
		protected = s.auth.Wrap(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.Handle("/api/", protected)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down api server: %w", err)
		}
		return nil
	}
}

type textRequest struct {
	Text string `json:"text"`
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body textRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return "", false
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return text, true
}

// parse returns the parsed alarm, or writes a 422 explaining the miss.
func (s *Server) parse(w http.ResponseWriter, text string) (*models.ParsedAlarm, bool) {
	now := s.now()
	if p := s.phrases.ParseAt(text, now); p != nil {
		return p, true
	}
	if s.phrases.Extract(text, now) != nil {
		writeError(w, http.StatusUnprocessableEntity, alarm.ErrAlarmInPast.Error())
	} else {
		writeError(w, http.StatusUnprocessableEntity, "no alarm time detected")
	}
	return nil, false
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	p, ok := s.parse(w, text)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddAlarm(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}
	p, ok := s.parse(w, text)
	if !ok {
		return
	}

	id, err := s.alarms.AddAlarm(*p)
	if errors.Is(err, alarm.ErrAlarmInPast) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not add alarm")
		return
	}

	log.Printf("[API] Alarm %s added by %s", id, caller(r))
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "alarm": p})
}

func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		writeJSON(w, http.StatusOK, s.alarms.GetActiveAlarms())
		return
	}
	writeJSON(w, http.StatusOK, s.alarms.GetAllAlarms())
}

func (s *Server) handleCancelAlarm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.alarms.CancelAlarm(id) {
		writeError(w, http.StatusNotFound, "no active alarm with that id")
		return
	}
	log.Printf("[API] Alarm %s cancelled by %s", id, caller(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearAlarms(w http.ResponseWriter, r *http.Request) {
	s.alarms.ClearAllAlarms()
	log.Printf("[API] Alarms cleared by %s", caller(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="nudge.ics"`)
	if err := calendar.Export(w, s.alarms.GetAllAlarms(), s.now()); err != nil {
		log.Printf("[API] Export failed: %v", err)
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

func (s *Server) requireTodos(w http.ResponseWriter) bool {
	if s.todos == nil {
		writeError(w, http.StatusServiceUnavailable, "todos need sqlite or postgres storage")
		return false
	}
	return true
}

func (s *Server) handleAddTodos(w http.ResponseWriter, r *http.Request) {
	if !s.requireTodos(w) {
		return
	}
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	parsed := s.tasks.Parse(text, s.now())
	if len(parsed) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no todos found")
		return
	}

	for i := range parsed {
		if err := s.todos.CreateTodo(r.Context(), &parsed[i]); err != nil {
			log.Printf("[API] Creating todo failed: %v", err)
			writeError(w, http.StatusInternalServerError, "could not save todo")
			return
		}
	}
	writeJSON(w, http.StatusCreated, parsed)
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	if !s.requireTodos(w) {
		return
	}

	var filter store.TodoFilter
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	todos, err := s.todos.GetTodos(r.Context(), filter)
	if err != nil {
		log.Printf("[API] Listing todos failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not list todos")
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *Server) handleCompleteTodo(w http.ResponseWriter, r *http.Request) {
	if !s.requireTodos(w) {
		return
	}

	err := s.todos.CompleteTodo(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not complete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// caller names the token subject of r, or "anonymous" when auth is off.
func caller(r *http.Request) string {
	if sub, ok := SubjectFromContext(r.Context()); ok && sub != "" {
		return sub
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Encoding response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
