// Package server exposes the HTTP surface: GET /health, POST /callback for
// LINE, POST /teamshook for Teams. Handlers collect the raw body, headers,
// and query into an InboundRequest and let the dispatch engine decide the
// response.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-chatbridge/core"
	"github.com/google/uuid"
)

const maxInboundBodyBytes int64 = 1 << 20 // 1 MiB

// Dispatcher is the slice of the dispatch engine the server needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

type healthBody struct {
	Status    string           `json:"status"`
	Service   string           `json:"service"`
	Timestamp string           `json:"timestamp"`
	Ledger    core.LedgerStats `json:"ledger"`
}

type Server struct {
	dispatcher  Dispatcher
	tokens      core.ReplyTokenLedger
	serviceName string
	logger      core.Logger
	Now         func() time.Time
}

func New(dispatcher Dispatcher, tokens core.ReplyTokenLedger, serviceName string, logger core.Logger) (*Server, error) {
	if dispatcher == nil {
		return nil, serverInternal("server: dispatcher is required")
	}
	if tokens == nil {
		return nil, serverInternal("server: reply token ledger is required")
	}
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "chatbridge"
	}
	return &Server{
		dispatcher:  dispatcher,
		tokens:      tokens,
		serviceName: strings.TrimSpace(serviceName),
		logger:      logger,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /callback", s.channelHandler(core.ChannelLine))
	mux.HandleFunc("POST /teamshook", s.channelHandler(core.ChannelTeams))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tokens.Stats(r.Context())
	if err != nil {
		core.LogError(r.Context(), s.logger, "server: ledger stats failed", map[string]any{"error": err.Error()})
		http.Error(w, "ledger unavailable", http.StatusInternalServerError)
		return
	}
	body := healthBody{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: s.now().Format(time.RFC3339),
		Ledger:    stats,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		core.LogError(r.Context(), s.logger, "server: encode health body", map[string]any{"error": err.Error()})
	}
}

func (s *Server) channelHandler(channel core.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		body, err := io.ReadAll(io.LimitReader(r.Body, maxInboundBodyBytes))
		if err != nil {
			core.LogError(r.Context(), s.logger, "server: read request body", map[string]any{
				"channel":    string(channel),
				"request_id": requestID,
				"error":      err.Error(),
			})
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		req := core.InboundRequest{
			Channel:   channel,
			Headers:   flattenRequestHeaders(r.Header),
			Query:     flattenQuery(r.URL.Query()),
			Body:      body,
			RequestID: requestID,
		}
		result, err := s.dispatcher.Dispatch(r.Context(), req)
		if err != nil {
			core.LogError(r.Context(), s.logger, "server: dispatch failed", map[string]any{
				"channel":    string(channel),
				"request_id": requestID,
				"error":      err.Error(),
			})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status := result.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("X-Request-Id", requestID)
		w.WriteHeader(status)
		if status != http.StatusNoContent && result.Body != "" {
			_, _ = io.WriteString(w, result.Body)
		}
	}
}

func (s *Server) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func flattenRequestHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = values[0]
	}
	return flat
}

func flattenQuery(values map[string][]string) map[string]string {
	flat := make(map[string]string, len(values))
	for key, list := range values {
		if len(list) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = list[0]
	}
	return flat
}
