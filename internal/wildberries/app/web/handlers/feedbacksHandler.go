package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/internal/wildberries/business/services"
	"gomarket_feedbacks/pkg/logger"
)

type FeedbackItem struct {
	ID          string `json:"id"`
	Rating      int    `json:"rating"`
	Text        string `json:"text"`
	Pros        string `json:"pros"`
	Cons        string `json:"cons"`
	UserName    string `json:"user_name"`
	Color       string `json:"color"`
	CreatedDate string `json:"created_date"`
	HasPhoto    bool   `json:"has_photo"`
	HasVideo    bool   `json:"has_video"`
}

type FeedbacksResponse struct {
	SKU            int            `json:"sku"`
	TotalFeedbacks int            `json:"total_feedbacks"`
	Feedbacks      []FeedbackItem `json:"feedbacks"`
}

type FeedbacksHandler struct {
	reader services.FeedbackReader
	log    logger.Logger
}

func NewFeedbacksHandler(reader services.FeedbackReader, log logger.Logger) *FeedbacksHandler {
	return &FeedbacksHandler{reader: reader, log: log.WithPrefix("[FeedbacksHandler]")}
}

// GetFeedbacksHandler lists stored bad feedbacks for GET /feedbacks/{sku}, newest first.
func (h *FeedbacksHandler) GetFeedbacksHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	sku, err := strconv.Atoi(chi.URLParam(r, "sku"))
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "sku must be an integer")
		return
	}

	records, err := h.reader.ListByNmID(r.Context(), sku)
	if err != nil {
		log.Error("Failed to list feedbacks for %d: %v", sku, err)
		writeError(w, log, http.StatusInternalServerError, "Failed to fetch feedbacks: "+err.Error())
		return
	}

	items := make([]FeedbackItem, 0, len(records))
	for _, rec := range records {
		items = append(items, toFeedbackItem(rec))
	}
	writeJSON(w, log, http.StatusOK, FeedbacksResponse{
		SKU:            sku,
		TotalFeedbacks: len(items),
		Feedbacks:      items,
	})
}

func toFeedbackItem(rec models.FeedbackRecord) FeedbackItem {
	return FeedbackItem{
		ID:          rec.FeedbackID,
		Rating:      rec.ProductValuation,
		Text:        rec.Text,
		Pros:        rec.Pros,
		Cons:        rec.Cons,
		UserName:    rec.UserName,
		Color:       rec.Color,
		CreatedDate: isoFormat(rec.CreatedDate),
		HasPhoto:    rec.HasPhoto,
		HasVideo:    rec.HasVideo,
	}
}

// isoFormat renders a naive timestamp, with microseconds only when present.
func isoFormat(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}
	return t.Format("2006-01-02T15:04:05")
}
