package productform

import (
	"fmt"

	"shopadmin/internal/domain"
	"shopadmin/internal/media"
)

type SlotView struct {
	Kind      media.Kind
	Index     int // 0-based
	Field     string
	RemoteURL string
	LocalName string
	HasLocal  bool
	Empty     bool
}

// Number is the 1-based slot label.
func (s SlotView) Number() int { return s.Index + 1 }

// View is a copy of the form state for templates.
type View struct {
	Mode       string
	ProductID  string
	Loading    bool
	Loaded     bool
	LoadError  string
	Draft      Draft
	Images     []SlotView
	Videos     []SlotView
	Outcome    domain.Outcome
	Categories []domain.Option
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		Mode:       f.mode.String(),
		ProductID:  f.productID,
		Loading:    f.loading,
		Loaded:     f.loaded,
		LoadError:  f.loadErr,
		Draft:      f.draft,
		Outcome:    f.outcome,
		Categories: domain.Categories,
	}
	for _, g := range slotGroups {
		views := make([]SlotView, 0, g.count)
		for i, sl := range f.slots[g.kind] {
			sv := SlotView{
				Kind:      g.kind,
				Index:     i,
				Field:     fmt.Sprintf("%s%d", g.prefix, i+1),
				RemoteURL: sl.RemoteURL,
				HasLocal:  sl.Local != nil,
				Empty:     sl.Empty(),
			}
			if sl.Local != nil {
				sv.LocalName = sl.Local.Name
			}
			views = append(views, sv)
		}
		switch g.kind {
		case media.Image:
			v.Images = views
		case media.Video:
			v.Videos = views
		}
	}
	return v
}

// Slots returns a copy of the media slots.
func (f *Form) Slots() Slots {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots.clone()
}

// Draft returns a copy of the draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}
