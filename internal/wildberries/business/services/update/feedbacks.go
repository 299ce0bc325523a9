package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gomarket_feedbacks/internal/wildberries/business/models/dto/response"
	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/internal/wildberries/business/services"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/business/service"
	"gomarket_feedbacks/pkg/logger"
)

// ErrPersistence wraps every storage failure of a save run.
var ErrPersistence = errors.New("persist feedbacks")

const shortFieldLength = 255

// Layouts accepted for createdDate/updatedDate. Any zone is dropped after parsing.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

type FeedbackSaver struct {
	store   services.FeedbackStore
	text    service.ITextService
	log     logger.Logger
	metrics *metrics.MonitorMetrics
	now     func() time.Time
}

func NewFeedbackSaver(store services.FeedbackStore, log logger.Logger, m *metrics.MonitorMetrics) *FeedbackSaver {
	if m == nil {
		m = &metrics.MonitorMetrics{}
	}
	return &FeedbackSaver{
		store:   store,
		text:    service.NewTextService(),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for the cutoff and missing dates.
func (s *FeedbackSaver) WithClock(now func() time.Time) *FeedbackSaver {
	s.now = now
	return s
}

// SaveBadFeedbacks stores every feedback of batch rated at most ratingThreshold
// and created within the last daysPeriod days that is not stored yet. All rows
// go in one transaction; the number of rows actually inserted is returned.
func (s *FeedbackSaver) SaveBadFeedbacks(
	ctx context.Context,
	batch *response.FeedbackResponse,
	nmID, imtID, ratingThreshold, daysPeriod int,
) (int, error) {
	if batch == nil || len(batch.Feedbacks) == 0 {
		return 0, nil
	}

	now := naive(s.now())
	cutoff := now.Add(-time.Duration(daysPeriod) * 24 * time.Hour)
	s.log.Log("Filtering %d feedbacks of %d: rating <= %d, created >= %s",
		len(batch.Feedbacks), nmID, ratingThreshold, cutoff.Format(time.DateTime))

	candidates := s.filter(batch, nmID, imtID, ratingThreshold, cutoff, now)
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, rec := range candidates {
		ids = append(ids, rec.FeedbackID)
	}
	existing, err := s.store.ExistingFeedbackIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	staged := make([]*models.FeedbackRecord, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, rec := range candidates {
		if _, ok := existing[rec.FeedbackID]; ok {
			s.log.Debug("Feedback %s already stored", rec.FeedbackID)
			s.metrics.DuplicateCount.Add(1)
			continue
		}
		if _, ok := seen[rec.FeedbackID]; ok {
			s.log.Debug("Feedback %s repeated in batch", rec.FeedbackID)
			s.metrics.DuplicateCount.Add(1)
			continue
		}
		seen[rec.FeedbackID] = struct{}{}
		staged = append(staged, rec)
	}
	if len(staged) == 0 {
		return 0, nil
	}

	saved, err := s.persist(ctx, staged)
	if err != nil {
		s.log.Error("Failed to save feedbacks of %d: %v", nmID, err)
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.metrics.SavedFeedbacks.Add(int32(saved))
	metrics.RecordSavedFeedbacks(saved)
	s.log.Log("Saved %d bad feedbacks for %d", saved, nmID)
	return saved, nil
}

func (s *FeedbackSaver) filter(
	batch *response.FeedbackResponse,
	nmID, imtID, ratingThreshold int,
	cutoff, now time.Time,
) []*models.FeedbackRecord {
	records := make([]*models.FeedbackRecord, 0, len(batch.Feedbacks))
	for i, raw := range batch.Feedbacks {
		fb, err := response.DecodeFeedback(raw)
		if err != nil {
			s.log.Warn("Skipping feedback #%d of %d: %v", i, nmID, err)
			s.metrics.MalformedCount.Add(1)
			continue
		}
		if strings.TrimSpace(fb.ID) == "" {
			s.log.Warn("Skipping feedback #%d of %d: empty id", i, nmID)
			s.metrics.MalformedCount.Add(1)
			continue
		}

		created, err := parseFeedbackDate(fb.CreatedDate, now)
		if err != nil {
			s.log.Warn("Skipping feedback %s: %v", fb.ID, err)
			s.metrics.MalformedCount.Add(1)
			continue
		}
		updated, err := parseFeedbackDate(fb.UpdatedDate, now)
		if err != nil {
			s.log.Debug("Feedback %s: %v, using created date", fb.ID, err)
			updated = created
		}

		if fb.ProductValuation > ratingThreshold {
			s.log.Debug("Skipping feedback %s: rating %d > %d", fb.ID, fb.ProductValuation, ratingThreshold)
			s.metrics.FilteredOut.Add(1)
			continue
		}
		if created.Before(cutoff) {
			s.log.Debug("Skipping feedback %s: created %s before cutoff", fb.ID, created.Format(time.DateTime))
			s.metrics.FilteredOut.Add(1)
			continue
		}

		records = append(records, &models.FeedbackRecord{
			FeedbackID:       fb.ID,
			NmID:             nmID,
			ImtID:            imtID,
			UserName:         s.short(fb.WbUserDetails.Name),
			Text:             s.text.Storable(fb.Text),
			Pros:             s.text.Storable(fb.Pros),
			Cons:             s.text.Storable(fb.Cons),
			ProductValuation: fb.ProductValuation,
			Color:            s.short(fb.Color),
			Size:             s.short(fb.Size),
			CreatedDate:      created,
			UpdatedDate:      updated,
			HasPhoto:         fb.HasPhoto(),
			HasVideo:         fb.HasVideo(),
		})
	}
	return records
}

func (s *FeedbackSaver) persist(ctx context.Context, staged []*models.FeedbackRecord) (saved int, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error("Rollback failed: %v", rbErr)
			}
		}
	}()

	for _, rec := range staged {
		inserted, err := tx.Insert(ctx, rec)
		if err != nil {
			return 0, err
		}
		if !inserted {
			s.log.Debug("Feedback %s inserted concurrently", rec.FeedbackID)
			s.metrics.DuplicateCount.Add(1)
			continue
		}
		s.log.Log("Saving bad feedback %s: rating %d, created %s",
			rec.FeedbackID, rec.ProductValuation, rec.CreatedDate.Format(time.DateTime))
		saved++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (s *FeedbackSaver) short(value string) string {
	return s.text.ReduceToLength(s.text.Normalize(value), shortFieldLength)
}

// parseFeedbackDate reads an ISO-8601 timestamp as a naive wall clock.
// An empty value means now.
func parseFeedbackDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", value)
}

// naive keeps the wall clock of t and drops its zone.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
