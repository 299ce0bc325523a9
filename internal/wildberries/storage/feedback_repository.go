package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/internal/wildberries/business/services"
)

const (
	insertFeedbackQuery = `
		INSERT INTO wildberries.feedbacks (
			feedback_id, nm_id, imt_id, user_name, text, pros, cons,
			product_valuation, color, size, created_date, updated_date, has_photo, has_video
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (feedback_id) DO NOTHING
		RETURNING id`

	existsFeedbackQuery = `SELECT EXISTS (SELECT 1 FROM wildberries.feedbacks WHERE feedback_id = $1)`

	existingFeedbackIDsQuery = `SELECT feedback_id FROM wildberries.feedbacks WHERE feedback_id = ANY($1)`

	countByNmIDQuery = `SELECT COUNT(id) FROM wildberries.feedbacks WHERE nm_id = $1`

	listByNmIDQuery = `
		SELECT
			id, feedback_id, nm_id, imt_id, user_name, text, pros, cons,
			product_valuation, color, size, created_date, updated_date,
			has_photo, has_video, created_at
		FROM wildberries.feedbacks
		WHERE nm_id = $1
		ORDER BY created_date DESC, id DESC`
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) ExistsByFeedbackID(ctx context.Context, feedbackID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsFeedbackQuery, feedbackID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check feedback %s: %w", feedbackID, err)
	}
	return exists, nil
}

// ExistingFeedbackIDs returns the subset of ids already stored.
func (r *FeedbackRepository) ExistingFeedbackIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx, existingFeedbackIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query existing feedbacks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan feedback_id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing feedbacks: %w", err)
	}
	return existing, nil
}

func (r *FeedbackRepository) CountByNmID(ctx context.Context, nmID int) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countByNmIDQuery, nmID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count feedbacks for %d: %w", nmID, err)
	}
	return count, nil
}

// ListByNmID returns stored feedbacks for nmID, newest first.
func (r *FeedbackRepository) ListByNmID(ctx context.Context, nmID int) ([]models.FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx, listByNmIDQuery, nmID)
	if err != nil {
		return nil, fmt.Errorf("list feedbacks for %d: %w", nmID, err)
	}
	defer rows.Close()

	records := []models.FeedbackRecord{}
	for rows.Next() {
		var (
			rec                                     models.FeedbackRecord
			userName, text, pros, cons, color, size sql.NullString
			hasPhoto, hasVideo                      sql.NullBool
			createdAt                               sql.NullTime
		)
		err = rows.Scan(
			&rec.ID, &rec.FeedbackID, &rec.NmID, &rec.ImtID,
			&userName, &text, &pros, &cons,
			&rec.ProductValuation, &color, &size,
			&rec.CreatedDate, &rec.UpdatedDate,
			&hasPhoto, &hasVideo, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		rec.UserName = userName.String
		rec.Text = text.String
		rec.Pros = pros.String
		rec.Cons = cons.String
		rec.Color = color.String
		rec.Size = size.String
		rec.HasPhoto = hasPhoto.Bool
		rec.HasVideo = hasVideo.Bool
		rec.CreatedAt = createdAt.Time
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read feedbacks: %w", err)
	}
	return records, nil
}

func (r *FeedbackRepository) Begin(ctx context.Context) (services.FeedbackTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &FeedbackTx{tx: tx}, nil
}

type FeedbackTx struct {
	tx *sql.Tx
}

func (t *FeedbackTx) Insert(ctx context.Context, rec *models.FeedbackRecord) (bool, error) {
	var id int
	err := t.tx.QueryRowContext(ctx, insertFeedbackQuery,
		rec.FeedbackID, rec.NmID, rec.ImtID, rec.UserName, rec.Text, rec.Pros, rec.Cons,
		rec.ProductValuation, rec.Color, rec.Size, rec.CreatedDate, rec.UpdatedDate,
		rec.HasPhoto, rec.HasVideo,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert feedback %s: %w", rec.FeedbackID, err)
	}
	rec.ID = id
	return true, nil
}

func (t *FeedbackTx) Commit() error {
	return t.tx.Commit()
}

// Rollback is a no-op after a successful Commit.
func (t *FeedbackTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
