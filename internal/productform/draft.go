package productform

import (
	"strconv"
	"time"

	"shopadmin/internal/domain"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	// bidtimer goes upstream as UTC with millisecond precision
	wireLayout = "2006-01-02T15:04:05.000Z"
)

// Draft is the editable state of one product form.
type Draft struct {
	Title       string
	Description string
	Price       string
	Category    string
	Location    string
	Reviews     string
	Hot         bool
	Featured    bool
	NewArrival  bool
	BidProduct  bool

	// BidDate and BidTime are the raw picker values; BidEndAt is their combination.
	BidDate  string
	BidTime  string
	BidEndAt *time.Time
}

func draftFromProduct(p domain.Product, loc *time.Location) Draft {
	d := Draft{
		Title:       p.Title,
		Description: p.Description,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Category:    p.Category,
		Location:    p.Location,
		Reviews:     p.Reviews,
		Hot:         p.Hot,
		Featured:    p.Featured,
		NewArrival:  p.NewArrival,
		BidProduct:  p.BidProduct,
	}
	if end, ok := p.BidEnd(); ok {
		local := end.In(loc)
		d.BidEndAt = &local
		d.BidDate = local.Format(dateLayout)
		d.BidTime = local.Format(clockLayout)
	}
	return d
}

// combineBid joins the date and time pickers in loc. Either part missing or
// malformed yields nil.
func combineBid(date, clock string, loc *time.Location) *time.Time {
	if date == "" || clock == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, loc)
	if err != nil {
		return nil
	}
	return &t
}

// BidTimerValue is the wire form of BidEndAt, empty when unset.
func (d Draft) BidTimerValue() string {
	if d.BidEndAt == nil {
		return ""
	}
	return d.BidEndAt.UTC().Format(wireLayout)
}

func boolString(b bool) string { return strconv.FormatBool(b) }
