package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal first so encoding errors are caught before headers are written.
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// statusForError maps wizard errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCredentialRequired):
		return http.StatusConflict
	case errors.Is(err, models.ErrCredentialInvalid),
		errors.Is(err, models.ErrEmptyCredential),
		errors.Is(err, models.ErrIndexOutOfRange),
		errors.Is(err, models.ErrUnknownAction),
		errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrUnknownList),
		errors.Is(err, models.ErrInvalidOption),
		errors.Is(err, models.ErrInvalidIntensity),
		errors.Is(err, models.ErrInvalidStep):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
