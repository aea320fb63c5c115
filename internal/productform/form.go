// Package productform holds the state of the create and edit product forms between
// requests: the draft, bid timestamp, media slots and submission outcome.
package productform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopadmin/internal/domain"
	"shopadmin/internal/media"
	"shopadmin/internal/validate"
)

type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

const (
	MsgMissingID   = "Product ID is missing."
	MsgNotLoaded   = "Product data not loaded. Cannot update."
	MsgBidRequired = "Bid timer is required for bid products."
	msgAdding      = "Adding product..."
	msgUpdating    = "Updating product..."
	msgCreatedOK   = "Product created successfully!"
	msgUpdatedOK   = "Product updated successfully!"
	actionFetch    = "fetch product"
	actionCreate   = "add product"
	actionUpdate   = "update product"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a load or submit is pending.
	ErrSubmitInFlight = errors.New("productform: submission already in progress")
	// ErrStaleResponse means the form was reloaded or reset while a call was pending.
	// The result was not applied to the form; a failed call is joined to it.
	ErrStaleResponse = errors.New("productform: stale response discarded")
	ErrUnknownField  = errors.New("productform: unknown field")
)

type Loader interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// Submitter sends encoded payloads and returns the backend's message.
type Submitter interface {
	CreateProduct(ctx context.Context, p Payload) (string, error)
	UpdateProduct(ctx context.Context, id string, p Payload) (string, error)
}

type Form struct {
	mode      Mode
	loc       *time.Location
	loader    Loader
	submitter Submitter

	mu        sync.Mutex
	seq       uint64
	productID string
	loading   bool
	loaded    bool
	loadErr   string
	draft     Draft
	slots     Slots
	outcome   domain.Outcome
	touched   time.Time
}

// New builds a form. loader may be nil for create forms. loc is the zone the bid
// pickers are read in; nil means time.Local.
func New(mode Mode, loader Loader, submitter Submitter, loc *time.Location) *Form {
	if loc == nil {
		loc = time.Local
	}
	return &Form{
		mode:      mode,
		loc:       loc,
		loader:    loader,
		submitter: submitter,
		slots:     newSlots(),
		outcome:   domain.Idle(),
		touched:   time.Now(),
	}
}

func (f *Form) Mode() Mode { return f.mode }

// Mount hydrates an edit form from a fresh fetch, discarding any unsaved edits.
// It is what opening the edit page does.
func (f *Form) Mount(ctx context.Context, productID string) error {
	return f.load(ctx, productID, true)
}

// Load hydrates an edit form unless that product is already loaded or loading, so
// edits posted back to the same product are kept.
func (f *Form) Load(ctx context.Context, productID string) error {
	return f.load(ctx, productID, false)
}

func (f *Form) load(ctx context.Context, productID string, force bool) error {
	if f.loader == nil {
		return errors.New("productform: no loader configured")
	}
	f.mu.Lock()
	f.touched = time.Now()
	if productID == "" {
		f.seq++
		f.productID = ""
		f.loading = false
		f.loaded = false
		f.loadErr = MsgMissingID
		f.mu.Unlock()
		return domain.Invalid(MsgMissingID)
	}
	if !force && productID == f.productID && (f.loaded || f.loading) {
		f.mu.Unlock()
		return nil
	}
	f.seq++
	seq := f.seq
	f.productID = productID
	f.loading = true
	f.loaded = false
	f.loadErr = ""
	f.draft = Draft{}
	f.slots = newSlots()
	f.outcome = domain.Idle()
	f.mu.Unlock()

	p, err := f.loader.GetProduct(ctx, productID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq {
		return ErrStaleResponse
	}
	f.loading = false
	if err != nil {
		f.loadErr = domain.Describe(actionFetch, err)
		return err
	}
	f.draft = draftFromProduct(p, f.loc)
	f.slots = slotsFromProduct(p)
	f.loaded = true
	return nil
}

// Reset discards the draft, media and outcome.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.productID = ""
	f.loading = false
	f.loaded = false
	f.loadErr = ""
	f.draft = Draft{}
	f.slots = newSlots()
	f.outcome = domain.Idle()
}

// SetText sets a scalar text field by its wire name.
func (f *Form) SetText(name, value string) error {
	for _, tf := range textFields {
		if tf.name == name {
			f.mu.Lock()
			*tf.ref(&f.draft) = value
			f.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// SetFlag sets a boolean field by its wire name.
func (f *Form) SetFlag(name string, value bool) error {
	if name == "bidProduct" {
		f.SetBidProduct(value)
		return nil
	}
	for _, ff := range flagFields {
		if ff.name == name {
			f.mu.Lock()
			*ff.ref(&f.draft) = value
			f.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// SetBidProduct toggles bidding. Turning it off clears the bid end time; turning it
// on does not set one.
func (f *Form) SetBidProduct(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.BidProduct = on
	if !on {
		f.draft.BidDate = ""
		f.draft.BidTime = ""
		f.draft.BidEndAt = nil
	}
}

// SetBidDate takes a "2006-01-02" value.
func (f *Form) SetBidDate(date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.BidDate = date
	f.draft.BidEndAt = combineBid(f.draft.BidDate, f.draft.BidTime, f.loc)
}

// SetBidTime takes a "15:04" value.
func (f *Form) SetBidTime(clock string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.BidTime = clock
	f.draft.BidEndAt = combineBid(f.draft.BidDate, f.draft.BidTime, f.loc)
}

// Select puts a local file in a slot (0-based) after checking its content.
func (f *Form) Select(kind media.Kind, slot int, file media.File) error {
	if err := media.Check(file, kind); err != nil {
		return domain.Invalid(err.Error())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.slots.at(kind, slot)
	if err != nil {
		return err
	}
	s.Local = &file
	return nil
}

// Revert drops the local file so the remote URL shows again.
func (f *Form) Revert(kind media.Kind, slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.slots.at(kind, slot)
	if err != nil {
		return err
	}
	s.Local = nil
	return nil
}

// Clear empties a slot; its remote asset is left out of the kept list.
func (f *Form) Clear(kind media.Kind, slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.slots.at(kind, slot)
	if err != nil {
		return err
	}
	*s = Slot{}
	return nil
}

func (f *Form) SelectImage(slot int, file media.File) error { return f.Select(media.Image, slot, file) }
func (f *Form) SelectVideo(slot int, file media.File) error { return f.Select(media.Video, slot, file) }
func (f *Form) RevertImage(slot int) error                  { return f.Revert(media.Image, slot) }
func (f *Form) RevertVideo(slot int) error                  { return f.Revert(media.Video, slot) }
func (f *Form) ClearImage(slot int) error                   { return f.Clear(media.Image, slot) }
func (f *Form) ClearVideo(slot int) error                   { return f.Clear(media.Video, slot) }

// Submit validates the draft and sends it. The returned outcome is also kept on the
// form. A submit while a load or another submit is pending returns ErrSubmitInFlight
// and changes nothing.
func (f *Form) Submit(ctx context.Context) (domain.Outcome, error) {
	f.mu.Lock()
	f.touched = time.Now()
	if f.loading || f.outcome.InFlight() {
		out := f.outcome
		f.mu.Unlock()
		return out, ErrSubmitInFlight
	}
	if f.mode == Edit && !f.loaded {
		return f.failLocked(MsgNotLoaded)
	}
	if f.draft.BidProduct && f.draft.BidEndAt == nil {
		return f.failLocked(MsgBidRequired)
	}
	if msg := validate.Draft(validate.DraftFields{
		Title:    f.draft.Title,
		Price:    f.draft.Price,
		Category: f.draft.Category,
	}); msg != "" {
		return f.failLocked(msg)
	}

	payload, err := Encode(f.mode, f.draft, f.slots)
	sent := f.slots.withLocal()
	if err != nil {
		f.outcome = domain.Failed(domain.Describe(f.action(), err))
		out := f.outcome
		f.mu.Unlock()
		return out, err
	}
	seq := f.seq
	id := f.productID
	if f.mode == Edit {
		f.outcome = domain.Loading(msgUpdating)
	} else {
		f.outcome = domain.Loading(msgAdding)
	}
	f.mu.Unlock()

	var msg string
	if f.mode == Edit {
		msg, err = f.submitter.UpdateProduct(ctx, id, payload)
	} else {
		msg, err = f.submitter.CreateProduct(ctx, payload)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out domain.Outcome
	switch {
	case err != nil:
		out = domain.Failed(domain.Describe(f.action(), err))
	case msg != "":
		out = domain.Succeeded(msg)
	case f.mode == Edit:
		out = domain.Succeeded(msgUpdatedOK)
	default:
		out = domain.Succeeded(msgCreatedOK)
	}
	if seq != f.seq {
		// the form was reopened or reset while this was in flight
		if err != nil {
			return out, errors.Join(ErrStaleResponse, err)
		}
		return out, ErrStaleResponse
	}
	f.outcome = out
	if err == nil && f.mode == Edit {
		f.slots.dropSuperseded(sent)
	}
	return out, err
}

func (f *Form) failLocked(msg string) (domain.Outcome, error) {
	f.outcome = domain.Failed(msg)
	out := f.outcome
	f.mu.Unlock()
	return out, domain.Invalid(msg)
}

func (f *Form) action() string {
	if f.mode == Edit {
		return actionUpdate
	}
	return actionCreate
}

// Outcome is the current submission status.
func (f *Form) Outcome() domain.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

func (f *Form) markUsed() {
	f.mu.Lock()
	f.touched = time.Now()
	f.mu.Unlock()
}

func (f *Form) lastUsed() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}
