package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"traceId,omitempty"`
}

// WriteJSONError writes {"error": message} with the given status code
func WriteJSONError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, errorResponse{Error: message})
}

// writeServerError is WriteJSONError carrying the request trace id, so a
// failure report can be matched to the server logs
func writeServerError(w http.ResponseWriter, r *http.Request, code int, message string) {
	RespondWithJSON(w, code, errorResponse{Error: message, TraceID: TraceIDFromContext(r.Context())})
}

// writeValidationError reports per-field messages with a 400
func writeValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	RespondWithJSON(w, http.StatusBadRequest, errorResponse{Error: message, Fields: fields})
}

// RespondWithJSON encodes payload as the response body
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// decodeJSON reads a single JSON document, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
