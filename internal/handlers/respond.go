package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/veotube/backend/internal/logging"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", message)
	} else {
		logger.Warn("request rejected", "status", status, "error", message)
	}
	respondJSON(ctx, w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
