package get

import "time"

// FeedbackRecord is a persisted bad feedback (wildberries.feedbacks).
type FeedbackRecord struct {
	ID               int
	FeedbackID       string
	NmID             int
	ImtID            int
	UserName         string
	Text             string
	Pros             string
	Cons             string
	ProductValuation int
	Color            string
	Size             string
	CreatedDate      time.Time
	UpdatedDate      time.Time
	HasPhoto         bool
	HasVideo         bool
	CreatedAt        time.Time
}
