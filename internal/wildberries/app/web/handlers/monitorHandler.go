package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"gomarket_feedbacks/config/values"
	"gomarket_feedbacks/internal/wildberries/business/services/get"
	"gomarket_feedbacks/internal/wildberries/business/services/monitor"
	"gomarket_feedbacks/pkg/logger"
)

const maxFormMemory = 1 << 20

type MonitorRunner interface {
	Run(ctx context.Context, req monitor.Request) (*monitor.Result, error)
}

type MonitorForm struct {
	SKU        int `validate:"gt=0"`
	MinRating  int `validate:"gte=1,lte=5"`
	DaysPeriod int `validate:"gte=1"`
}

type MonitorResponse struct {
	Message        string `json:"message"`
	SavedFeedbacks int    `json:"saved_feedbacks"`
	TotalFeedbacks int    `json:"total_feedbacks"`
	MinRating      int    `json:"min_rating"`
	DaysPeriod     int    `json:"days_period"`
}

type MonitorHandler struct {
	runner   MonitorRunner
	defaults values.MonitorValues
	log      logger.Logger
}

func NewMonitorHandler(runner MonitorRunner, defaults values.MonitorValues, log logger.Logger) *MonitorHandler {
	return &MonitorHandler{runner: runner, defaults: defaults, log: log.WithPrefix("[MonitorHandler]")}
}

// PostMonitorHandler handles POST /monitor with form fields sku, min_rating and days_period.
func (h *MonitorHandler) PostMonitorHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	form, err := h.parseForm(r)
	if err != nil {
		log.Debug("Invalid monitor form: %v", err)
		writeError(w, log, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.runner.Run(r.Context(), monitor.Request{
		NmID:            form.SKU,
		RatingThreshold: form.MinRating,
		DaysPeriod:      form.DaysPeriod,
	})
	switch {
	case errors.Is(err, get.ErrShardNotFound), errors.Is(err, get.ErrProductNotFound):
		writeError(w, log, http.StatusNotFound,
			fmt.Sprintf("Product %d not found. The SKU may be wrong or the product was removed from the marketplace.", form.SKU))
		return
	case errors.Is(err, get.ErrFeedbacksNotFound):
		writeError(w, log, http.StatusNotFound, "Feedbacks not found")
		return
	case err != nil:
		log.Error("Monitoring %d failed: %v", form.SKU, err)
		writeError(w, log, http.StatusInternalServerError, fmt.Sprintf("Processing error: %v", err))
		return
	}

	log.Log("Saved %d new bad feedbacks for %d, %d stored in total", res.Saved, form.SKU, res.Total)
	writeJSON(w, log, http.StatusOK, MonitorResponse{
		Message:        fmt.Sprintf("Monitoring started for product %d", form.SKU),
		SavedFeedbacks: res.Saved,
		TotalFeedbacks: res.Total,
		MinRating:      res.RatingThreshold,
		DaysPeriod:     res.DaysPeriod,
	})
}

func (h *MonitorHandler) parseForm(r *http.Request) (MonitorForm, error) {
	form := MonitorForm{MinRating: h.defaults.RatingThreshold, DaysPeriod: h.defaults.DaysPeriod}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return form, fmt.Errorf("malformed form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return form, fmt.Errorf("malformed form: %w", err)
	}

	sku := strings.TrimSpace(r.PostFormValue("sku"))
	if sku == "" {
		return form, errors.New("field sku is required")
	}
	fields := []struct {
		name  string
		raw   string
		value *int
	}{
		{"sku", sku, &form.SKU},
		{"min_rating", r.PostFormValue("min_rating"), &form.MinRating},
		{"days_period", r.PostFormValue("days_period"), &form.DaysPeriod},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return form, fmt.Errorf("field %s must be an integer", f.name)
		}
		*f.value = v
	}

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return form, fmt.Errorf("field %s failed %s=%s", formFieldName(verrs[0].Field()), verrs[0].Tag(), verrs[0].Param())
		}
		return form, err
	}
	return form, nil
}

func formFieldName(field string) string {
	switch field {
	case "SKU":
		return "sku"
	case "MinRating":
		return "min_rating"
	case "DaysPeriod":
		return "days_period"
	default:
		return field
	}
}
