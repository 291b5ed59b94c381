package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"evalconsole/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeAppError maps a service error onto its status code and detail
func writeAppError(w http.ResponseWriter, err error) {
	writeError(w, apperr.HTTPStatus(err), apperr.Detail(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("request body exceeds %d bytes", maxBodyBytes)
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
