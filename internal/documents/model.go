package documents

import "time"

// Document is an uploaded, paginated source owned by exactly one user.
// Pages are dense, 1-based, and never reordered.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	OriginalFilename string
	StorageKey       string
	PageCount        int
	CreatedAt        time.Time
	Pages            []Page
}

// Page is one unit of a Document. Text is immutable once extraction
// completes; Explanation and AudioRef are regenerable. AudioRef is never set
// while Explanation is empty.
type Page struct {
	DocumentID  string
	Number      int
	Text        string
	Explanation string
	AudioRef    string
}
