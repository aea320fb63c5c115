package productform

import (
	"fmt"

	"shopadmin/internal/domain"
	"shopadmin/internal/media"
)

// Slot holds at most one remote URL and one local file. The local file wins at
// submission; the remote URL stays so a revert can bring it back.
type Slot struct {
	RemoteURL string
	Local     *media.File
}

func (s Slot) Empty() bool { return s.RemoteURL == "" && s.Local == nil }

// Retained reports whether the remote URL is kept as is on the next update.
func (s Slot) Retained() bool { return s.RemoteURL != "" && s.Local == nil }

// Slots are the media slots of one form, keyed by kind in schema order.
type Slots map[media.Kind][]Slot

func newSlots() Slots {
	s := make(Slots, len(slotGroups))
	for _, g := range slotGroups {
		s[g.kind] = make([]Slot, g.count)
	}
	return s
}

func slotsFromProduct(p domain.Product) Slots {
	s := newSlots()
	for _, g := range slotGroups {
		urls := g.remote(p)
		for i := 0; i < g.count && i < len(urls); i++ {
			s[g.kind][i].RemoteURL = urls[i]
		}
	}
	return s
}

func (s Slots) clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = append([]Slot(nil), v...)
	}
	return out
}

func (s Slots) at(kind media.Kind, index int) (*Slot, error) {
	list, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("unknown media kind %q", kind)
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%s slot %d out of range", kind, index+1)
	}
	return &list[index], nil
}

// retainedURLs lists kept remote URLs of a kind in slot order.
func (s Slots) retainedURLs(kind media.Kind) []string {
	out := []string{}
	for _, sl := range s[kind] {
		if sl.Retained() {
			out = append(out, sl.RemoteURL)
		}
	}
	return out
}

// slotRef names one slot.
type slotRef struct {
	kind  media.Kind
	index int
}

// withLocal lists the slots holding a local file.
func (s Slots) withLocal() []slotRef {
	var out []slotRef
	for kind, list := range s {
		for i := range list {
			if list[i].Local != nil {
				out = append(out, slotRef{kind: kind, index: i})
			}
		}
	}
	return out
}

// dropSuperseded forgets the remote URLs of slots whose file replaced them on the
// backend. Slots picked after that submission keep their remote URL.
func (s Slots) dropSuperseded(sent []slotRef) {
	for _, ref := range sent {
		if sl, err := s.at(ref.kind, ref.index); err == nil {
			sl.RemoteURL = ""
		}
	}
}
