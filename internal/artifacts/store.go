package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"narrate-backend/internal/shared/storage/object"
)

// Store persists per-page audio artifacts under a per-document namespace and
// resolves stored references to public addresses.
type Store struct {
	Objects object.ObjectStore
	BaseURL string
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// AudioKey returns the deterministic storage key for one page's audio.
// Re-running generation for the same (document, page) overwrites this key.
func AudioKey(documentID string, pageNumber int) string {
	return path.Join("audio", documentID, fmt.Sprintf("page-%d.mp3", pageNumber))
}

// WriteAudio stores the audio bytes for a page and returns the artifact
// reference. The same (document, page) always maps to the same key, so writes
// replace rather than accumulate.
func (s *Store) WriteAudio(ctx context.Context, documentID string, pageNumber int, audio []byte) (string, error) {
	if s == nil || s.Objects == nil {
		return "", errors.New("artifact store not configured")
	}
	if documentID == "" || pageNumber < 1 {
		return "", errors.New("invalid artifact identity")
	}

	saver, ok := s.Objects.(keySaver)
	if !ok {
		return "", errors.New("object store does not support SaveWithKey")
	}

	key := AudioKey(documentID, pageNumber)
	if _, err := saver.SaveWithKey(ctx, key, "audio/mpeg", bytes.NewReader(audio)); err != nil {
		return "", fmt.Errorf("write audio key=%s: %w", key, err)
	}
	return key, nil
}

// ResolveURL joins the configured public base address with an artifact
// reference. The result always uses forward slashes; an empty reference
// resolves to the empty string.
func (s *Store) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	clean := strings.ReplaceAll(ref, "\\", "/")
	clean = strings.TrimLeft(clean, "/")
	if s == nil || s.BaseURL == "" {
		return "/" + clean
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + clean
}
