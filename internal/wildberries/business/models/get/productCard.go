package get

// ProductInfo is the subset of basket card.json the monitor relies on.
type ProductInfo struct {
	NmID       int    `json:"nm_id"`
	ImtID      int    `json:"imt_id"`
	ImtName    string `json:"imt_name"`
	VendorCode string `json:"vendor_code"`
	SubjName   string `json:"subj_name"`
	// Colors lists nm ids of the colour variants sharing this card.
	Colors  []int   `json:"colors"`
	Selling Selling `json:"selling"`
}

type Selling struct {
	BrandName string `json:"brand_name"`
}

// GroupID returns imt_id, or fallback when the card has none.
func (p *ProductInfo) GroupID(fallback int) int {
	if p == nil || p.ImtID <= 0 {
		return fallback
	}
	return p.ImtID
}
