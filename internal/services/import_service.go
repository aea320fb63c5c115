package services

import (
	"context"

	"shopadmin/internal/csvpreview"
	"shopadmin/internal/domain"
)

type ImportService struct {
	API     ProductAPI
	Tracker *csvpreview.Tracker
}

func NewImportService(api ProductAPI, tracker *csvpreview.Tracker) *ImportService {
	return &ImportService{API: api, Tracker: tracker}
}

// Select previews a chosen file for the client.
func (s *ImportService) Select(clientID, name, contentType string, data []byte) (domain.Outcome, error) {
	return s.Tracker.Select(clientID, name, contentType, data)
}

// Upload sends the client's current selection. On failure the selection is kept so
// the operator can retry.
func (s *ImportService) Upload(ctx context.Context, clientID, token string) (domain.Outcome, error) {
	sel, ok := s.Tracker.Current(clientID)
	if !ok {
		out := domain.Failed(csvpreview.MsgNoSelection)
		s.Tracker.Finish(clientID, out)
		return out, domain.Invalid(csvpreview.MsgNoSelection)
	}
	if token == "" {
		out := domain.Failed(domain.MsgNoSession)
		s.Tracker.Finish(clientID, out)
		return out, domain.ErrNoSession
	}
	msg, err := s.API.UploadCSV(ctx, token, sel.Name, sel.Data)
	var out domain.Outcome
	switch {
	case err != nil:
		out = domain.Failed(domain.Describe("upload products", err))
	case msg == "":
		out = domain.Succeeded("Products uploaded successfully!")
	default:
		out = domain.Succeeded(msg)
	}
	s.Tracker.Finish(clientID, out)
	return out, err
}

func (s *ImportService) Current(clientID string) (csvpreview.Selection, bool) {
	return s.Tracker.Current(clientID)
}

func (s *ImportService) Outcome(clientID string) domain.Outcome {
	return s.Tracker.Outcome(clientID)
}
