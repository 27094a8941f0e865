package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
)

// StartupStatus tracks the initialization steps reported by /healthz
type StartupStatus struct {
	mu    sync.RWMutex
	ready bool
	steps []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// CompleteStep marks a step as completed
func (s *StartupStatus) CompleteStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == name {
			s.steps[i].Completed = true
			return
		}
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Progress is the completed share of steps, 0 to 100
func (s *StartupStatus) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.steps) == 0 {
		return 100
	}
	done := 0
	for _, step := range s.steps {
		if step.Completed {
			done++
		}
	}
	return done * 100 / len(s.steps)
}

// ServeHTTP reports readiness as JSON; 503 until MarkReady
func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	progress := s.Progress()

	s.mu.RLock()
	body := struct {
		Ready    bool          `json:"ready"`
		Progress int           `json:"progress"`
		Steps    []StartupStep `json:"steps"`
	}{s.ready, progress, append([]StartupStep(nil), s.steps...)}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !body.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}
