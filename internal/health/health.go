// Package health tracks the two readiness signals of the service: the
// risk model finishing its fit and the transport accepting connections.
// Both live on one shared State passed to bootstrap and handlers alike.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const serviceName = "liquidity-service"

// State is the synchronized readiness snapshot. The zero values (nothing
// loaded, nothing ready) are the correct initial state.
type State struct {
	mu           sync.RWMutex
	modelLoaded  bool
	serviceReady bool
	startTime    time.Time
}

func NewState() *State {
	return &State{startTime: time.Now()}
}

func (s *State) SetModelLoaded(loaded bool) {
	s.mu.Lock()
	s.modelLoaded = loaded
	s.mu.Unlock()
}

func (s *State) SetServiceReady(ready bool) {
	s.mu.Lock()
	s.serviceReady = ready
	s.mu.Unlock()
}

// Ready reports whether the service can accept traffic: transport up and
// model fit complete.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serviceReady && s.modelLoaded
}

func (s *State) snapshot() (modelLoaded, serviceReady bool, uptime time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelLoaded, s.serviceReady, time.Since(s.startTime)
}

// LivenessHandler answers /health: the process is up.
func LivenessHandler(s *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, uptime := s.snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "healthy",
			"service":        serviceName,
			"timestamp":      time.Now().Format(time.RFC3339),
			"uptime_seconds": uptime.Seconds(),
		})
	}
}

// ReadinessHandler answers /ready: 503 until the model is loaded and the
// server is accepting connections.
func ReadinessHandler(s *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelLoaded, serviceReady, _ := s.snapshot()
		status := http.StatusOK
		if !(modelLoaded && serviceReady) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{
			"ready":        modelLoaded && serviceReady,
			"service":      serviceName,
			"timestamp":    time.Now().Format(time.RFC3339),
			"model_loaded": modelLoaded,
			"server_ready": serviceReady,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
