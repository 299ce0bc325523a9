package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"gomarket_feedbacks/pkg/logger"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to encode response: %v", err)
		http.Error(w, `{"detail":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Debug("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, status int, detail string) {
	writeJSON(w, log, status, errorResponse{Detail: detail})
}
