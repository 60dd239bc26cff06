// Package v1 implements the HTTP surface of the registry node: the
// registry read/write endpoints, the cluster introspection endpoints,
// and the snapshot endpoint used by peer replication.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	clustererrors "github.com/clusterreg/clusterreg/pkg/errors"
	"github.com/clusterreg/clusterreg/pkg/logger"
)

// writeJSON encodes v as the response body with a 200 status, or logs
// and falls back to a 500 if encoding itself fails.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("api: failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// writeError maps a domain error to an HTTP status code and writes a
// small JSON error body.
func writeError(w http.ResponseWriter, err error) {
	var cerr *clustererrors.Error
	status := http.StatusInternalServerError
	leader := ""
	if errors.As(err, &cerr) {
		switch cerr.Type {
		case clustererrors.ErrNotLeader:
			status = http.StatusForbidden
			leader = cerr.Leader
		case clustererrors.ErrInvalidArgument:
			status = http.StatusBadRequest
		case clustererrors.ErrPeerUnreachable:
			status = http.StatusBadGateway
		case clustererrors.ErrSnapshotDecode:
			status = http.StatusUnprocessableEntity
		case clustererrors.ErrPersistence:
			status = http.StatusInternalServerError
		default:
			status = http.StatusInternalServerError
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": err.Error()}
	if leader != "" {
		body["leader"] = leader
	}
	_ = json.NewEncoder(w).Encode(body)
}

// serviceParam reads the required "service" query parameter.
func serviceParam(r *http.Request) (string, error) {
	svc := r.URL.Query().Get("service")
	if svc == "" {
		return "", clustererrors.NewInvalidArgumentError("missing required \"service\" query parameter", nil)
	}
	return svc, nil
}

// servicesParam reads the required comma-joined "services" query parameter.
func servicesParam(r *http.Request) ([]string, error) {
	raw := r.URL.Query().Get("services")
	if raw == "" {
		return nil, clustererrors.NewInvalidArgumentError("missing required \"services\" query parameter", nil)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, clustererrors.NewInvalidArgumentError("\"services\" query parameter contained no names", nil)
	}
	return out, nil
}
