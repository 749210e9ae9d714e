package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"narrate-backend/internal/entitlements"
	"narrate-backend/internal/extract"
	"narrate-backend/internal/shared/storage/object"
	"narrate-backend/internal/shared/telemetry"
)

// Gate is the entitlement decisions the ingestion path needs.
type Gate interface {
	Authorize(ctx context.Context, userID string) error
	Consume(ctx context.Context, userID string) (entitlements.Entitlement, error)
}

// Service contains business logic for document ingestion and reads.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Gate  Gate
}

// Ingest authorizes the caller, stores the original file, extracts per-page
// text, persists the document, and then consumes one trial unit. Consumption
// happens exactly once, only after every other precondition has succeeded;
// rejected ingestions never touch the trial counter.
func (s *Service) Ingest(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, ErrInvalidInput
	}

	if err := s.Gate.Authorize(ctx, userID); err != nil {
		return Document{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}

	pageTexts, err := extract.Extract(ctx, data)
	if err != nil {
		return Document{}, err
	}

	storageKey, _, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store original: %w", err)
	}

	doc := Document{
		ID:               uuid.NewString(),
		UserID:           userID,
		FileName:         fileName,
		OriginalFilename: fileName,
		StorageKey:       storageKey,
		PageCount:        len(pageTexts),
		CreatedAt:        time.Now().UTC(),
	}
	for _, pt := range pageTexts {
		doc.Pages = append(doc.Pages, Page{
			DocumentID: doc.ID,
			Number:     pt.Number,
			Text:       pt.Text,
		})
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("persist document: %w", err)
	}

	ent, err := s.Gate.Consume(ctx, userID)
	if err != nil {
		// The document is already durably ingested; a failed trial decrement
		// is logged rather than unwinding the ingestion.
		telemetry.Error("entitlement.consume_failed", map[string]any{
			"user_id":     userID,
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	} else {
		telemetry.Info("document.ingested", map[string]any{
			"user_id":         userID,
			"document_id":     doc.ID,
			"pages":           len(doc.Pages),
			"trial_remaining": ent.TrialRemaining,
		})
	}

	return doc, nil
}

// Get returns a document with pages for its owner.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, errors.New("user id and document id required")
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the caller's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}
