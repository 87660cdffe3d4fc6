// Package sitemap loads XML sitemaps and extracts the page URLs they list.
package sitemap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
)

var (
	// ErrSitemapIndexUnsupported is returned for <sitemapindex> documents.
	ErrSitemapIndexUnsupported = errors.New("sitemap index files are not supported")
	// ErrUnknownSitemapType is returned when the root element is neither urlset nor sitemapindex.
	ErrUnknownSitemapType = errors.New("unknown sitemap type")
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Load parses the sitemap at location. A file:// prefix or an absolute path
// reads from disk; anything else is fetched with client.
func Load(ctx context.Context, location string, client Doer) (*xmlquery.Node, error) {
	var (
		body io.ReadCloser
		err  error
	)
	switch {
	case strings.HasPrefix(location, "file://"):
		body, err = os.Open(strings.TrimPrefix(location, "file://"))
	case filepath.IsAbs(location):
		body, err = os.Open(location)
	default:
		body, err = fetch(ctx, location, client)
	}
	if err != nil {
		return nil, fmt.Errorf("load sitemap %s: %w", location, err)
	}
	defer func() {
		// Drained bodies let the HTTP client reuse the connection.
		_, _ = io.Copy(io.Discard, body)
		body.Close()
	}()

	doc, err := xmlquery.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", location, err)
	}
	return doc, nil
}

func fetch(ctx context.Context, location string, client Doer) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Extract returns the distinct <loc> values of a urlset in document order.
func Extract(doc *xmlquery.Node) ([]string, error) {
	root := xmlquery.FindOne(doc, "/*")
	if root == nil {
		return nil, ErrUnknownSitemapType
	}
	switch root.Data {
	case "urlset":
	case "sitemapindex":
		return nil, ErrSitemapIndexUnsupported
	default:
		return nil, fmt.Errorf("%w: <%s>", ErrUnknownSitemapType, root.Data)
	}

	nodes := xmlquery.Find(root, "//*[local-name()='loc']")
	seen := make(map[string]struct{}, len(nodes))
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		loc := strings.TrimSpace(n.InnerText())
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		urls = append(urls, loc)
	}
	return urls, nil
}

// URLs loads location and extracts its page URLs.
func URLs(ctx context.Context, location string, client Doer) ([]string, error) {
	doc, err := Load(ctx, location, client)
	if err != nil {
		return nil, err
	}
	urls, err := Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("sitemap %s: %w", location, err)
	}
	return urls, nil
}
