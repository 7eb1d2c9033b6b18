// Package api wires the gateway's chi.Router and implements its HTTP
// surface on top of ChainRouter, PriceAggregator, and the registry.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/watchwallet/gateway/internal/chainerr"
)

// decodeJSON reads and decodes a request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// JSON writes a bare JSON payload with the given status code, matching the
// gateway's unwrapped response shape (no status/message envelope — the
// per-endpoint shapes in spec.md §6 are returned directly).
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes a classified chainerr.Error (or a generic message) as JSON,
// using the classification's mapped HTTP status.
func Error(w http.ResponseWriter, err error) {
	if cerr, ok := chainerr.AsError(err); ok {
		JSON(w, cerr.Classification.HTTPStatus(), map[string]string{"error": cerr.Message})
		return
	}
	JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
