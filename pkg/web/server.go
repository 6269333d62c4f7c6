// Package web serves benchmark reports and live run status over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/graphbench/pkg/logging"
	"github.com/ritzau/graphbench/pkg/pubsub"
	"github.com/ritzau/graphbench/pkg/runner"
)

// Trigger asks for a new run. It returns false when a run is already queued.
type Trigger func(reason string) bool

// Server represents the web server
type Server struct {
	router  *mux.Router
	broker  *pubsub.Broker
	metrics http.Handler
	trigger Trigger

	mu     sync.RWMutex
	report *runner.Report
	status pubsub.RunStatus
}

// NewServer creates a server. metrics may be nil, in which case /metrics is
// not served.
func NewServer(metrics http.Handler) *Server {
	broker := pubsub.NewBroker()

	// late subscribers only need the current state
	broker.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{BufferSize: 1})
	broker.ConfigureTopic(pubsub.TopicReport, pubsub.TopicConfig{BufferSize: 1})

	s := &Server{
		router:  mux.NewRouter(),
		broker:  broker,
		metrics: metrics,
		status:  pubsub.RunStatus{State: "idle", Message: "Waiting for first run"},
	}
	s.setupRoutes()
	return s
}

// SetTrigger enables POST /api/run.
func (s *Server) SetTrigger(t Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = t
}

// SetReport stores the latest report and announces it to subscribers.
func (s *Server) SetReport(r *runner.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()

	summary := pubsub.ReportSummary{
		RunID:       r.RunID,
		Vertices:    r.Vertices,
		Algorithms:  len(r.Results),
		Mismatching: r.MismatchCount(),
		Failed:      r.ErrorCount(),
	}
	if err := s.broker.Publish(pubsub.TopicReport, "report", summary); err != nil {
		logging.Warn("failed to publish report", "error", err)
	}
}

// ObserveStatus records and publishes a runner status. It has the
// runner.Observer signature.
func (s *Server) ObserveStatus(st runner.Status) {
	status := pubsub.RunStatus{
		RunID:   st.RunID,
		State:   st.State,
		Message: st.Message,
		Step:    st.Step,
		Total:   st.Total,
	}
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if err := s.broker.Publish(pubsub.TopicStatus, st.State, status); err != nil {
		logging.Warn("failed to publish status", "error", err)
	}
}

// Handler returns the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/status", s.subscribe(pubsub.TopicStatus)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/report", s.subscribe(pubsub.TopicReport)).Methods("GET")

	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/run", s.handleRun).Methods("POST")

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		writeError(w, http.StatusNotFound, "no report yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	trigger := s.trigger
	s.mu.RUnlock()

	if trigger == nil {
		writeError(w, http.StatusServiceUnavailable, "runs cannot be triggered")
		return
	}
	if !trigger("requested over HTTP") {
		writeError(w, http.StatusConflict, "a run is already queued")
		return
	}
	logging.InfoContext(r.Context(), "run requested")
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// subscribe streams topic as Server-Sent Events until the client leaves.
func (s *Server) subscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub, err := s.broker.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, ev); err != nil {
					logging.DebugContext(r.Context(), "subscriber gone", "topic", topic, "error", err)
					return
				}
				flusher.Flush()
			}
		}
	}
}

// Start serves on port until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	// SSE handlers only return once their subscriptions close.
	_ = s.broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
