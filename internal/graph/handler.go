// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package graph

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/accounts/internal/account"
	"github.com/holomush/accounts/internal/observability"
	"github.com/holomush/accounts/internal/reqauth"
)

// MaxRequestBytes bounds the size of a GraphQL request body.
const MaxRequestBytes = 1 << 20

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type response struct {
	Data   json.RawMessage  `json:"data,omitempty"`
	Errors []FormattedError `json:"errors,omitempty"`
}

// Handler serves GraphQL over HTTP POST. It creates the per-request
// authentication context before executing the operation.
type Handler struct {
	schema   *graphql.Schema
	sessions account.SessionStore
	users    reqauth.UserResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler(schema *graphql.Schema, sessions account.SessionStore, users reqauth.UserResolver, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		schema:   schema,
		sessions: sessions,
		users:    users,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("github.com/holomush/accounts/internal/graph"),
	}
}

// ServeHTTP executes one GraphQL request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		h.write(w, http.StatusBadRequest, response{Errors: []FormattedError{{
			Message: "request body is not a GraphQL request",
			Code:    CodeBadRequest,
			Details: err.Error(),
		}}})
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "graphql.request",
		trace.WithAttributes(attribute.String("graphql.operation.name", req.OperationName)))
	defer span.End()

	ac := reqauth.New(w, r, h.sessions, h.users)
	ctx = reqauth.WithContext(ctx, ac)

	start := time.Now()
	result := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	elapsed := time.Since(start)

	formatted := FormatErrors(result.Errors)
	errorCodes := make([]string, 0, len(formatted))
	for _, fe := range formatted {
		errorCodes = append(errorCodes, fe.Code)
	}
	h.metrics.ObserveRequest(elapsed, errorCodes)
	if len(errorCodes) > 0 {
		span.SetStatus(codes.Error, errorCodes[0])
		span.SetAttributes(attribute.StringSlice("graphql.error.codes", errorCodes))
	}

	h.logger.DebugContext(ctx, "graphql request",
		"operation", req.OperationName,
		"duration", elapsed,
		"errors", len(formatted))

	h.write(w, http.StatusOK, response{Data: result.Data, Errors: formatted})
}

func (h *Handler) write(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to write graphql response", "error", err)
	}
}
