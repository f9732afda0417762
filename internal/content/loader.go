package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxDocumentBytes    = 4 << 20
)

// ErrLoad wraps every failure to obtain or decode the content document.
var ErrLoad = errors.New("content: load failed")

// Source yields the raw bytes of the content document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads the document from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.Path)
}

func (s FileSource) String() string { return s.Path }

// HTTPSource GETs the document, always asking for a fresh copy.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("content: remote status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}

func (s HTTPSource) String() string { return s.URL }

// SourceFor picks an HTTPSource for http(s) URLs and a FileSource otherwise.
func SourceFor(ref string, client *http.Client) Source {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPSource{URL: ref, Client: client}
	}
	return FileSource{Path: ref}
}

// Parse decodes a content document.
func Parse(raw []byte) (*Document, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrLoad)
	}
	var doc Document
	if err := jsonAPI.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLoad, err)
	}
	return &doc, nil
}

// Load fetches and decodes the document from src.
func Load(ctx context.Context, src Source) (*Document, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrLoad)
	}
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrLoad, src, err)
	}
	return Parse(raw)
}

// Store holds the result of the single start-up load. Either Document or
// Err is set once Load has run; neither changes afterwards.
type Store struct {
	once     sync.Once
	doc      *Document
	err      error
	source   string
	loadedAt time.Time
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWith returns a store that already holds doc. Used by tests and tools.
func NewStoreWith(doc *Document) *Store {
	s := NewStore()
	s.once.Do(func() {
		s.doc = doc
		s.source = "memory"
		s.loadedAt = s.now()
		if doc == nil {
			s.err = fmt.Errorf("%w: nil document", ErrLoad)
		}
	})
	return s
}

// Load performs the one and only load. Later calls return the first outcome.
func (s *Store) Load(ctx context.Context, src Source) error {
	s.once.Do(func() {
		if src != nil {
			s.source = src.String()
		}
		s.doc, s.err = Load(ctx, src)
		s.loadedAt = s.now()
	})
	return s.err
}

// Ready reports whether a document is available.
func (s *Store) Ready() bool { return s != nil && s.doc != nil && s.err == nil }

// Document returns the loaded document, or nil when the load failed.
func (s *Store) Document() *Document {
	if !s.Ready() {
		return nil
	}
	return s.doc
}

// Err returns the load failure, if any.
func (s *Store) Err() error {
	if s == nil {
		return fmt.Errorf("%w: store not initialised", ErrLoad)
	}
	return s.err
}

// Source describes where the document came from.
func (s *Store) Source() string { return s.source }

// LoadedAt reports when the load finished.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }
