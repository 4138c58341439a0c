// Package health exposes HTTP handlers for liveness and readiness.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/basket-engine/internal/fixture"
)

// Handler exposes HTTP handlers for health endpoints.
type Handler struct{}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness: every embedded fixture set must parse and build.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	status := map[string]string{}
	healthy := true
	for _, name := range fixture.Names() {
		state := "ok"
		if err := probe(name); err != nil {
			state = err.Error()
			healthy = false
		}
		status[name] = state
	}
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func probe(name string) error {
	def, err := fixture.Load(name)
	if err != nil {
		return err
	}
	_, err = def.Build(zerolog.Nop())
	return err
}
