package productform

import (
	"shopadmin/internal/domain"
	"shopadmin/internal/media"
)

// textField and flagField map a multipart field name to its place in the draft.
type textField struct {
	name string
	ref  func(*Draft) *string
}

type flagField struct {
	name string
	ref  func(*Draft) *bool
}

var textFields = []textField{
	{"title", func(d *Draft) *string { return &d.Title }},
	{"description", func(d *Draft) *string { return &d.Description }},
	{"price", func(d *Draft) *string { return &d.Price }},
	{"category", func(d *Draft) *string { return &d.Category }},
	{"location", func(d *Draft) *string { return &d.Location }},
	{"reviews", func(d *Draft) *string { return &d.Reviews }},
}

// bidProduct is last and handled through SetBidProduct.
var flagFields = []flagField{
	{"hot", func(d *Draft) *bool { return &d.Hot }},
	{"featured", func(d *Draft) *bool { return &d.Featured }},
	{"newArrival", func(d *Draft) *bool { return &d.NewArrival }},
	{"bidProduct", func(d *Draft) *bool { return &d.BidProduct }},
}

const bidTimerField = "bidtimer"

// slotGroup describes one family of media slots. Part names are prefix + 1-based index.
type slotGroup struct {
	kind     media.Kind
	count    int
	prefix   string
	existing string
	remote   func(domain.Product) []string
}

var slotGroups = []slotGroup{
	{media.Image, 5, "image", "existingImageUrls", func(p domain.Product) []string { return p.Images }},
	{media.Video, 2, "video", "existingVideoUrls", func(p domain.Product) []string { return p.Videos }},
}

// TextFieldNames lists the scalar text fields in wire order.
func TextFieldNames() []string {
	out := make([]string, len(textFields))
	for i, f := range textFields {
		out[i] = f.name
	}
	return out
}

// FlagFieldNames lists the boolean fields in wire order.
func FlagFieldNames() []string {
	out := make([]string, len(flagFields))
	for i, f := range flagFields {
		out[i] = f.name
	}
	return out
}

func group(kind media.Kind) (slotGroup, bool) {
	for _, g := range slotGroups {
		if g.kind == kind {
			return g, true
		}
	}
	return slotGroup{}, false
}
