package documents

import "context"

// Repo defines persistence operations for documents and their pages.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// UpdatePage persists one page's derived fields, keyed by
	// (document, page number) so concurrent completions cannot cross wires.
	UpdatePage(ctx context.Context, page Page) error
}
