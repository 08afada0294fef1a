package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sitekick/pipeline/internal/usecase"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's taxonomy onto HTTP. Conflicts and illegal
// transitions are expected outcomes, not server failures.
func writeError(w http.ResponseWriter, err error) {
	code := usecase.ErrorCode(err)

	status := http.StatusInternalServerError
	switch code {
	case usecase.CodeValidation:
		status = http.StatusBadRequest
	case usecase.CodeNotFound:
		status = http.StatusNotFound
	case usecase.CodeNotAuthorized:
		status = http.StatusForbidden
	case usecase.CodeConflict, usecase.CodeInvalidTransition, usecase.CodeAlreadyRefunded:
		status = http.StatusConflict
	case usecase.CodeExternalService:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}
