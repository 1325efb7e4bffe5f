package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
)

// ParseUUIDParam reads a required chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	return parseUUID(raw, key)
}

// ParseQueryUUID reads an optional query parameter. ok is false when it is absent.
func ParseQueryUUID(r *http.Request, key string) (id uuid.UUID, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err = parseUUID(raw, key)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func parseUUID(raw, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "must be a valid UUID").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
