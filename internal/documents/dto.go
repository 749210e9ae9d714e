package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID string         `json:"documentId"`
	FileName   string         `json:"fileName"`
	TotalPages int            `json:"totalPages"`
	UploadedAt time.Time      `json:"uploadedAt"`
	Pages      []PageResponse `json:"pages,omitempty"`
}

// PageResponse carries one page's text, explanation, and resolved audio
// address. AudioURL is null until audio exists.
type PageResponse struct {
	PageNumber  int     `json:"pageNumber"`
	Text        string  `json:"text"`
	Explanation string  `json:"explanation"`
	AudioURL    *string `json:"audioUrl"`
}

// ToResponse converts a document, resolving audio references to absolute
// addresses through resolve. A nil resolve leaves audio URLs null.
func ToResponse(doc Document, resolve func(ref string) string) DocumentResponse {
	resp := DocumentResponse{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		TotalPages: doc.PageCount,
		UploadedAt: doc.CreatedAt,
	}
	for _, page := range doc.Pages {
		pr := PageResponse{
			PageNumber:  page.Number,
			Text:        page.Text,
			Explanation: page.Explanation,
		}
		if page.AudioRef != "" && resolve != nil {
			url := resolve(page.AudioRef)
			pr.AudioURL = &url
		}
		resp.Pages = append(resp.Pages, pr)
	}
	return resp
}
