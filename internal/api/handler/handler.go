package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"hr.backoffice/internal/core/model"
)

// Caller identity is authenticated upstream and forwarded in these headers.
const (
	UserCodeHeader     = "X-User-Code"
	EmployeeCodeHeader = "X-Employee-Code"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Kind   model.Kind        `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func statusFor(kind model.Kind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindIntegrity:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError maps err onto a status code. Internal errors are logged and
// never echoed to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)
	status := statusFor(kind)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}

	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		resp.Fields = vErr.FieldErrors
	}
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		resp = ErrorResponse{Error: "internal server error", Kind: kind}
	}
	writeJSON(w, status, resp)
}

func fieldError(field, message string) error {
	vErr := &model.ValidationError{}
	vErr.Add(field, message)
	return vErr
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fieldError("body", fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// requireHeader returns the caller code carried in header.
func requireHeader(r *http.Request, header string) (string, error) {
	v := r.Header.Get(header)
	if v == "" {
		return "", fieldError(header, "header is required")
	}
	return v, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fieldError("id", "must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(name, "must be an integer")
	}
	return n, nil
}
