package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/pkg/utils"
)

// DefaultNextSelector matches the "next page" link.
const DefaultNextSelector = "a.s-pagination-next"

// Paginator finds the next results page.
type Paginator struct {
	NextSelector string

	logger *zap.Logger
}

func NewPaginator(nextSelector string, l *zap.Logger) *Paginator {
	if nextSelector == "" {
		nextSelector = DefaultNextSelector
	}
	return &Paginator{NextSelector: nextSelector, logger: l}
}

// NextPage returns the absolute URL of the next page. A missing link or href
// returns false, which is how a crawl normally ends.
func (p *Paginator) NextPage(doc *goquery.Document, baseURL string) (string, bool) {
	link := doc.Find(p.NextSelector).First()
	href := strings.TrimSpace(link.AttrOr("href", ""))
	if href == "" {
		p.logger.Debug("no next page link found")
		return "", false
	}

	next, err := utils.ToAbsoluteURL(baseURL, href)
	if err != nil {
		p.logger.Warn("next page link is not a valid url", zap.String("href", href), zap.Error(err))
		return "", false
	}
	p.logger.Debug("found next page", zap.String("url", next))
	return next, true
}
