package api

import (
	"errors"
	"net/http"
	"strconv"

	json "github.com/json-iterator/go"

	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

var codec = json.ConfigCompatibleWithStandardLibrary

type errorBody struct {
	Error *apperrors.AppError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = codec.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError renders an AppError with its status. Anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, appErr.Code.StatusCode(), errorBody{Error: appErr})
}

func decode(r *http.Request, into any) error {
	if err := codec.NewDecoder(r.Body).Decode(into); err != nil {
		return apperrors.Validation("body", "malformed JSON body")
	}
	return nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
