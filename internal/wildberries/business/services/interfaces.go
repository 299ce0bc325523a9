package services

import (
	"context"

	"gomarket_feedbacks/internal/wildberries/business/models/dto/response"
	models "gomarket_feedbacks/internal/wildberries/business/models/get"
)

// FeedbackTx stages inserts until Commit; nothing is visible before that.
type FeedbackTx interface {
	// Insert reports false when a row with the same feedback id already exists.
	Insert(ctx context.Context, record *models.FeedbackRecord) (bool, error)
	Commit() error
	Rollback() error
}

type FeedbackStore interface {
	ExistingFeedbackIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	Begin(ctx context.Context) (FeedbackTx, error)
}

type FeedbackReader interface {
	CountByNmID(ctx context.Context, nmID int) (int, error)
	ListByNmID(ctx context.Context, nmID int) ([]models.FeedbackRecord, error)
}

type BadFeedbackSaver interface {
	SaveBadFeedbacks(
		ctx context.Context,
		batch *response.FeedbackResponse,
		nmID, imtID, ratingThreshold, daysPeriod int,
	) (int, error)
}
