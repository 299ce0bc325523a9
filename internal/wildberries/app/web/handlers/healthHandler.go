package handlers

import (
	"context"
	"net/http"
	"time"

	"gomarket_feedbacks/pkg/logger"
)

const ServiceName = "wb-feedback-monitor"

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
	log     logger.Logger
}

func NewHealthHandler(db Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second, log: log.WithPrefix("[HealthHandler]")}
}

// GetHealthHandler always answers 200; the database state is informational.
func (h *HealthHandler) GetHealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Service: ServiceName, Database: "ok"}

	if h.db == nil {
		resp.Database = "unavailable"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("Database ping failed: %v", err)
			resp.Database = "unavailable"
		}
	}
	writeJSON(w, h.log, http.StatusOK, resp)
}
