package domain

import "time"

// Product is the record the catalog backend returns.
type Product struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Reviews     string   `json:"reviews"`
	Images      []string `json:"image"`
	Videos      []string `json:"video,omitempty"`
	Hot         bool     `json:"hot"`
	Featured    bool     `json:"featured"`
	NewArrival  bool     `json:"newArrival"`
	BidProduct  bool     `json:"bidProduct"`
	BidTimer    string   `json:"bidtimer,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// FirstImage is the list thumbnail, empty when the product has no images.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// BidEnd parses the bid end timestamp. Empty or malformed values report false.
func (p Product) BidEnd() (time.Time, bool) {
	if p.BidTimer == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, p.BidTimer)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Categories offered by the product form.
var Categories = []Option{
	{Value: "men", Label: "Men"},
	{Value: "women", Label: "Women"},
}

type Option struct {
	Value string
	Label string
}
