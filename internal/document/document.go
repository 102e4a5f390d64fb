// Package document loads the texts a prompt is built from.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxChars is the per-document character budget.
const DefaultMaxChars = 40_000

// Stdin is the location that reads from the loader's standard input.
const Stdin = "-"

const maxConcurrentLoads = 4

// ErrEmpty is returned when a document has no text.
var ErrEmpty = errors.New("document has no text")

// Source tells where a document comes from and how it is labeled in the
// prompt.
type Source struct {
	Label    string
	Location string
}

// Document is a loaded source.
type Document struct {
	Label string
	Text  string
}

// ParseSource parses "label=location" or a bare location. The label of a
// bare location is its base name. An argument naming an existing file is
// always a bare location, even when it contains "=".
func ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Source{}, errors.New("empty document source")
	}
	if isFile(s) {
		return Source{Label: defaultLabel(s), Location: s}, nil
	}
	if label, location, ok := strings.Cut(s, "="); ok && !strings.ContainsAny(label, `/\:`) {
		label = strings.TrimSpace(label)
		location = strings.TrimSpace(location)
		if location == "" {
			return Source{}, fmt.Errorf("document %q has no location", label)
		}
		if label == "" {
			label = defaultLabel(location)
		}
		return Source{Label: label, Location: location}, nil
	}
	return Source{Label: defaultLabel(s), Location: s}, nil
}

func isFile(s string) bool {
	fi, err := os.Stat(s)
	return err == nil && !fi.IsDir()
}

func defaultLabel(location string) string {
	if location == Stdin {
		return "stdin"
	}
	if isURL(location) {
		u, err := url.Parse(location)
		if err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				return base
			}
			return u.Host
		}
	}
	return filepath.Base(strings.TrimPrefix(location, "file://"))
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "https://") || strings.HasPrefix(location, "http://")
}

// Loader reads sources.
type Loader struct {
	HTTPClient *http.Client
	Stdin      io.Reader
}

// Load reads a single source. PDFs are converted to plain text.
func (l Loader) Load(ctx context.Context, src Source) (Document, error) {
	data, err := l.read(ctx, src.Location)
	if err != nil {
		return Document{}, fmt.Errorf("could not read %s: %w", src.Label, err)
	}

	var text string
	if isPDF(data) {
		text, err = pdfText(data)
		if err != nil {
			return Document{}, fmt.Errorf("could not read %s: %w", src.Label, err)
		}
	} else {
		text = strings.ToValidUTF8(string(data), "�")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, fmt.Errorf("%s: %w", src.Label, ErrEmpty)
	}
	return Document{Label: src.Label, Text: text}, nil
}

// LoadAll reads every source concurrently and returns the documents in the
// order of srcs. The first failure cancels the remaining loads.
func (l Loader) LoadAll(ctx context.Context, srcs []Source) ([]Document, error) {
	docs := make([]Document, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, src := range srcs {
		g.Go(func() error {
			doc, err := l.Load(ctx, src)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return docs, nil
}

func (l Loader) read(ctx context.Context, location string) ([]byte, error) {
	switch {
	case location == Stdin:
		if l.Stdin == nil {
			return nil, errors.New("no standard input")
		}
		return io.ReadAll(l.Stdin) //nolint:wrapcheck
	case isURL(location):
		return l.get(ctx, location)
	default:
		return os.ReadFile(strings.TrimPrefix(location, "file://")) //nolint:wrapcheck
	}
}

func (l Loader) get(ctx context.Context, location string) ([]byte, error) {
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("GET %s: %s", location, resp.Status)
	}
	return io.ReadAll(resp.Body) //nolint:wrapcheck
}

// Truncate cuts text to at most n characters. n <= 0 means no limit.
func Truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	var i int
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
