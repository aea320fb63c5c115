// Package csvpreview checks a CSV file chosen for bulk import and counts its rows
// before anything is uploaded.
package csvpreview

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"
	"time"

	"shopadmin/internal/domain"
)

const (
	MsgInvalidType = "Invalid file type. Please select a CSV file."
	MsgParseError  = "Error parsing CSV file. Please check its format."
	MsgNoSelection = "Please select a CSV file to upload."
)

var (
	ErrNotCSV = errors.New("csvpreview: not a csv file")
	ErrParse  = errors.New("csvpreview: malformed csv")
)

// Columns the backend expects in the header row.
var Columns = []string{
	"title", "image", "description", "reviews", "category", "price",
	"location", "hot", "featured", "newArrival", "bidProduct", "bidtimer",
}

type Selection struct {
	Name  string
	Data  []byte
	Count int
	// Missing lists expected columns absent from the header. The backend has the
	// final say, so this only feeds a hint on the page.
	Missing []string
}

func (s Selection) Message() string {
	return fmt.Sprintf("CSV file selected. Found %d items.", s.Count)
}

// Inspect checks the declared type, then counts data rows after the header. Rows
// whose fields are all blank are not counted.
func Inspect(name, declaredType string, data []byte) (Selection, error) {
	mt, _, err := mime.ParseMediaType(declaredType)
	if err != nil || mt != "text/csv" {
		return Selection{}, ErrNotCSV
	}
	header, n, err := countRows(bytes.NewReader(data))
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return Selection{Name: name, Data: data, Count: n, Missing: missingColumns(header)}, nil
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = true
	}
	var out []string
	for _, c := range Columns {
		if !have[c] {
			out = append(out, c)
		}
	}
	return out
}

func countRows(r io.Reader) ([]string, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var header []string
	n := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return header, n, nil
		}
		if err != nil {
			return nil, 0, err
		}
		if header == nil {
			header = rec
			continue
		}
		if !blank(rec) {
			n++
		}
	}
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Tracker keeps the current selection and status per client.
type Tracker struct {
	mu    sync.Mutex
	state map[string]*entry
}

type entry struct {
	sel     *Selection
	outcome domain.Outcome
	touched time.Time
}

func NewTracker() *Tracker {
	return &Tracker{state: make(map[string]*entry)}
}

func (t *Tracker) entry(clientID string) *entry {
	e, ok := t.state[clientID]
	if !ok {
		e = &entry{outcome: domain.Idle()}
		t.state[clientID] = e
	}
	e.touched = time.Now()
	return e
}

// Select replaces the client's selection. Rejected or unparsable files clear it.
func (t *Tracker) Select(clientID, name, declaredType string, data []byte) (domain.Outcome, error) {
	sel, err := Inspect(name, declaredType, data)

	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(clientID)
	switch {
	case errors.Is(err, ErrNotCSV):
		e.sel = nil
		e.outcome = domain.Failed(MsgInvalidType)
	case err != nil:
		e.sel = nil
		e.outcome = domain.Failed(MsgParseError)
	default:
		e.sel = &sel
		e.outcome = domain.Succeeded(sel.Message())
	}
	return e.outcome, err
}

func (t *Tracker) Current(clientID string) (Selection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(clientID)
	if e.sel == nil {
		return Selection{}, false
	}
	return *e.sel, true
}

func (t *Tracker) Outcome(clientID string) domain.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entry(clientID).outcome
}

// Finish records an upload result. Success clears the selection.
func (t *Tracker) Finish(clientID string, out domain.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(clientID)
	if out.IsSuccess() {
		e.sel = nil
	}
	e.outcome = out
}

func (t *Tracker) Drop(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state, clientID)
}

// PurgeIdle drops clients not seen since before.
func (t *Tracker) PurgeIdle(before time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, e := range t.state {
		if e.touched.Before(before) {
			delete(t.state, id)
			n++
		}
	}
	return n
}
