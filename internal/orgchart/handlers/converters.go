package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxBodyBytes = 1 << 20

// mapServiceError maps domain or repository errors to gRPC status codes,
// which the gateway renders as HTTP statuses.
func (h *HTTPHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, e.ErrDuplicateName):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}

// writeError renders err through the gateway's error handler.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := status.FromError(err); !ok {
		err = h.mapServiceError(err)
	}
	_, outbound := runtime.MarshalerForRequest(h.mux, r)
	runtime.HTTPError(r.Context(), h.mux, outbound, w, r, err)
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

// decodeBody reads a JSON request body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func parseID(params map[string]string, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(params[name])
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid %s: %q", name, params[name]))
	}
	return id, nil
}
