package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/ingress"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool/builtin"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"
)

const maxBodyBytes = 1 << 20

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

type endpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// decodeBody lays the JSON body over out, so absent fields keep their defaults.
func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return apperrors.InvalidInput("request body is required")
		}
		return apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Travel Agent API",
		"docs":    "/docs",
	})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	endpoints := []endpointDoc{
		{Method: http.MethodGet, Path: "/", Description: "Welcome message"},
		{Method: http.MethodGet, Path: "/health", Description: "Liveness check"},
		{Method: http.MethodPost, Path: "/flights/search", Description: "Search Google Flights through SerpAPI"},
		{Method: http.MethodPost, Path: "/hotels/search", Description: "Search Google Hotels through SerpAPI (top 5 properties)"},
	}
	if s.opts.Chat != nil {
		endpoints = append(endpoints, endpointDoc{Method: http.MethodPost, Path: "/v1/chat", Description: "Ask the travel assistant one question"})
	}
	if s.opts.Voice != nil {
		endpoints = append(endpoints, endpointDoc{Method: http.MethodGet, Path: s.opts.VoicePath, Description: "Realtime websocket session for the voice pipeline"})
	}
	if s.opts.MetricsEnabled {
		endpoints = append(endpoints, endpointDoc{Method: http.MethodGet, Path: s.opts.MetricsPath, Description: "Prometheus metrics"})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"title":       "Travel Agent API",
		"description": "API for finding flights and hotels using AI-powered travel assistant",
		"version":     "1.0.0",
		"endpoints":   endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "healthy"}
	if s.opts.Health == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	components := make(map[string]any)
	report := s.opts.Health(r.Context())
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := map[string]any{"healthy": report[name] == nil}
		if err := report[name]; err != nil {
			entry["error"] = err.Error()
			resp["status"] = "degraded"
		}
		components[name] = entry
	}
	resp["components"] = components
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlightSearch(w http.ResponseWriter, r *http.Request) {
	params := travel.NewFlightSearch()
	if err := decodeBody(w, r, &params); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.search(w, r, builtin.FlightsToolName, "flights", params)
}

func (s *Server) handleHotelSearch(w http.ResponseWriter, r *http.Request) {
	params := travel.NewHotelSearch()
	if err := decodeBody(w, r, &params); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.search(w, r, builtin.HotelsToolName, "hotels", params)
}

// search runs the same tool the assistant uses. Provider failures come back
// as an {"error"} result with status 200; only unexpected tool failures are 500.
func (s *Server) search(w http.ResponseWriter, r *http.Request, toolName, noun string, params any) {
	if s.opts.Tools == nil {
		writeDetail(w, http.StatusServiceUnavailable, "search tools are not configured")
		return
	}

	result, err := s.opts.Tools.Execute(r.Context(), toolName, params)
	if err != nil {
		slog.Error("Search failed", "tool", toolName, "error", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error searching %s: %s", noun, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	evt := ingress.NewEvent(SourceHTTP, ingress.TypeUserMessage, strings.TrimSpace(req.SessionID), req.Message, nil)
	sessionID, err := ingress.NewStandardResolver().ResolveSession(r.Context(), &evt)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := s.opts.Chat.Run(r.Context(), sessionID, req.Message)
	if err != nil {
		writeDetail(w, apperrors.HTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{SessionID: sessionID, Response: reply})
}

// SourceHTTP tags events that arrive through the synchronous chat endpoint.
const SourceHTTP = "http"
