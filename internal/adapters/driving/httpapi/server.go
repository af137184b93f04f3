// Package httpapi exposes the chat engine over HTTP.
//
// The surface is deliberately small: POST /chat runs one turn, GET
// /health reports liveness, and GET / serves the embedded web console.
// Requests without a session key share the default session.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
)

// DefaultSession is the session key used when a request names none.
const DefaultSession = "default"

// Server handles chat requests against the engine.
type Server struct {
	svc driving.ChatService
}

// NewHandler builds the HTTP handler with CORS and request logging.
func NewHandler(svc driving.ChatService) http.Handler {
	s := &Server{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleConsole)

	return chain(mux, withCORS, withRequestLog)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Text      string             `json:"text"`
	Citations []citationResponse `json:"citations"`
	Degraded  bool               `json:"degraded"`
}

type citationResponse struct {
	Source  string `json:"source"`
	Locator string `json:"locator"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSession
	}

	answer, err := s.svc.Ask(r.Context(), sessionID, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			badRequest(w, "message is required")
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(answer))
}

// handleHealth reports liveness. The payload is fixed so load balancers
// see the process as healthy even while every knowledge source is down;
// degradation is reported per answer, not per process.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: "pitwall",
	})
}

func toChatResponse(answer *domain.Answer) chatResponse {
	citations := make([]citationResponse, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		citations = append(citations, citationResponse{
			Source:  c.Label,
			Locator: c.Reference,
		})
	}
	return chatResponse{
		Text:      answer.Text,
		Citations: citations,
		Degraded:  answer.Degraded,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
