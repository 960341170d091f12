package crawler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/listing-scraper/internal/domain"
)

// ParseDocument turns rendered HTML into a queryable document. Blank input and
// invalid UTF-8 are reported as domain.ErrParse; malformed markup is not
// transient, so callers should stop rather than retry.
func ParseDocument(raw string) (*goquery.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty document", domain.ErrParse)
	}
	if !utf8.ValidString(raw) {
		return nil, fmt.Errorf("%w: invalid UTF-8", domain.ErrParse)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return doc, nil
}
