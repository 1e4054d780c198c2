package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/specialistvlad/sapmd/internal/ctxlog"
	"github.com/specialistvlad/sapmd/internal/sapm"
)

// Engine is the part of sapm.Graph the API drives.
type Engine interface {
	Components() []sapm.ComponentState
	Component(name string) (sapm.ComponentState, bool)
	Controls() []sapm.ControlInfo
	ControlInfo(name string) (sapm.ControlInfo, bool)
	ReadControl(ctx context.Context, name string) (uint32, error)
	WriteControl(ctx context.Context, name string, value uint32) error
	NotifyStreamActive(ctx context.Context, name string, active bool) error
	IdleStatus() sapm.IdleStatus
	ArmIdleMonitor(ctx context.Context, enable bool)
	RequestStandbyNow(ctx context.Context)
	NotifyActivity(ctx context.Context)
}

// Server serves the HTTP API for one graph.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewServer creates a Server.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	return &Server{engine: engine, logger: logger}
}

// Router builds the route table. metrics is mounted on /metrics when non-nil.
func (s *Server) Router(metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/components", s.listComponents).Methods(http.MethodGet)
	r.HandleFunc("/components/{name}", s.getComponent).Methods(http.MethodGet)
	r.HandleFunc("/controls", s.listControls).Methods(http.MethodGet)
	r.HandleFunc("/controls/{name}", s.getControl).Methods(http.MethodGet)
	r.HandleFunc("/controls/{name}", s.putControl).Methods(http.MethodPut)
	r.HandleFunc("/streams/{name}", s.putStream).Methods(http.MethodPut)
	r.HandleFunc("/idle", s.getIdle).Methods(http.MethodGet)
	r.HandleFunc("/idle", s.putIdle).Methods(http.MethodPut)
	r.HandleFunc("/idle/standby", s.postStandby).Methods(http.MethodPost)
	r.HandleFunc("/idle/wake", s.postWake).Methods(http.MethodPost)
	r.Use(s.logRequests)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), s.logger)))
		s.logger.Debug("API request served.", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type componentJSON struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Powered     bool   `json:"powered"`
	Active      bool   `json:"active"`
	HasRegister bool   `json:"has_register"`
}

func toComponentJSON(c sapm.ComponentState) componentJSON {
	return componentJSON{
		Name:        c.Name,
		Kind:        c.Kind.String(),
		Powered:     c.Powered,
		Active:      c.Active,
		HasRegister: c.HasRegister,
	}
}

func (s *Server) listComponents(w http.ResponseWriter, _ *http.Request) {
	states := s.engine.Components()
	out := make([]componentJSON, 0, len(states))
	for _, c := range states {
		out = append(out, toComponentJSON(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getComponent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	c, ok := s.engine.Component(name)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: component %q", sapm.ErrUnknownControlBinding, name))
		return
	}
	s.writeJSON(w, http.StatusOK, toComponentJSON(c))
}

type controlJSON struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Min    uint32   `json:"min"`
	Max    uint32   `json:"max"`
	Texts  []string `json:"texts,omitempty"`
	Routes []string `json:"routes,omitempty"`
	Value  *uint32  `json:"value,omitempty"`
}

func toControlJSON(c sapm.ControlInfo) controlJSON {
	return controlJSON{
		Name:   c.Name,
		Type:   c.Type.String(),
		Min:    c.Min,
		Max:    c.Max,
		Texts:  c.Texts,
		Routes: c.Routes,
	}
}

func (s *Server) listControls(w http.ResponseWriter, _ *http.Request) {
	infos := s.engine.Controls()
	out := make([]controlJSON, 0, len(infos))
	for _, c := range infos {
		out = append(out, toControlJSON(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getControl(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	info, ok := s.engine.ControlInfo(name)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: control %q", sapm.ErrUnknownControlBinding, name))
		return
	}
	value, err := s.engine.ReadControl(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := toControlJSON(info)
	out.Value = &value
	s.writeJSON(w, http.StatusOK, out)
}

type controlWrite struct {
	Value *uint32 `json:"value"`
}

func (s *Server) putControl(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req controlWrite
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Value == nil {
		s.writeError(w, badRequest(errors.New("missing value")))
		return
	}
	if err := s.engine.WriteControl(r.Context(), name, *req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type streamWrite struct {
	Active *bool `json:"active"`
}

func (s *Server) putStream(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req streamWrite
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Active == nil {
		s.writeError(w, badRequest(errors.New("missing active")))
		return
	}
	if err := s.engine.NotifyStreamActive(r.Context(), name, *req.Active); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type idleJSON struct {
	State        string    `json:"state"`
	Enabled      bool      `json:"enabled"`
	LastActivity time.Time `json:"last_activity"`
	PollInterval string    `json:"poll_interval"`
	StandbyAfter string    `json:"standby_after"`
	SleepAfter   string    `json:"sleep_after"`
	StandbyNow   bool      `json:"standby_now"`
}

func (s *Server) getIdle(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.IdleStatus()
	s.writeJSON(w, http.StatusOK, idleJSON{
		State:        st.State.String(),
		Enabled:      st.Enabled,
		LastActivity: st.LastActivity,
		PollInterval: st.Config.PollInterval.String(),
		StandbyAfter: st.Config.StandbyAfter.String(),
		SleepAfter:   st.Config.SleepAfter.String(),
		StandbyNow:   st.Config.StandbyNow,
	})
}

type idleWrite struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) putIdle(w http.ResponseWriter, r *http.Request) {
	var req idleWrite
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Enabled == nil {
		s.writeError(w, badRequest(errors.New("missing enabled")))
		return
	}
	s.engine.ArmIdleMonitor(r.Context(), *req.Enabled)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postStandby(w http.ResponseWriter, r *http.Request) {
	s.engine.RequestStandbyNow(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postWake(w http.ResponseWriter, r *http.Request) {
	s.engine.NotifyActivity(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
