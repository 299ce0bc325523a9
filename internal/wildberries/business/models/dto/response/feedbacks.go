package response

import (
	"bytes"

	"github.com/goccy/go-json"
)

// FeedbackResponse is the body of GET /feedbacks/v2/{id}. Entries stay raw so
// one malformed feedback cannot spoil the whole batch.
type FeedbackResponse struct {
	FeedbackCount          int               `json:"feedbackCount"`
	FeedbackCountWithPhoto int               `json:"feedbackCountWithPhoto"`
	Valuation              string            `json:"valuation"`
	Feedbacks              []json.RawMessage `json:"feedbacks"`
}

// HasData reports whether the response carries feedbacks or at least a positive count.
func (r *FeedbackResponse) HasData() bool {
	return r != nil && (len(r.Feedbacks) > 0 || r.FeedbackCount > 0)
}

type Feedback struct {
	ID               string          `json:"id"`
	NmID             int             `json:"nmId"`
	ProductValuation int             `json:"productValuation"`
	CreatedDate      string          `json:"createdDate"`
	UpdatedDate      string          `json:"updatedDate"`
	Text             string          `json:"text"`
	Pros             string          `json:"pros"`
	Cons             string          `json:"cons"`
	Color            string          `json:"color"`
	Size             string          `json:"size"`
	WbUserDetails    UserDetails     `json:"wbUserDetails"`
	Photos           json.RawMessage `json:"photos"`
	Video            json.RawMessage `json:"video"`
}

type UserDetails struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

func DecodeFeedback(raw []byte) (Feedback, error) {
	var f Feedback
	err := json.Unmarshal(raw, &f)
	return f, err
}

func (f *Feedback) HasPhoto() bool { return present(f.Photos) }

func (f *Feedback) HasVideo() bool { return present(f.Video) }

// present treats null, empty containers and empty strings as absent.
func present(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "[]", "{}", `""`, "false", "0":
		return false
	}
	return true
}
