package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/pkg/utils"
)

// DefaultItemSelector matches one listing item on a results page.
const DefaultItemSelector = `div[role="listitem"]`

// FieldSpec maps one record field to a sub-element of a listing item.
type FieldSpec struct {
	Name     string
	Selector string
	Attr     string // empty means the element's trimmed text
	Required bool   // items without a value are dropped
	Resolve  bool   // value is a URL joined against the page URL
}

// DefaultFields is the product field map: title, image and link.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{Name: domain.FieldTitle, Selector: "h2", Required: true},
		{Name: domain.FieldImage, Selector: "img", Attr: "src"},
		{Name: domain.FieldLink, Selector: "a", Attr: "href", Resolve: true},
	}
}

// Extractor maps listing items in a document to records.
type Extractor struct {
	ItemSelector string
	Fields       []FieldSpec

	logger *zap.Logger
}

func NewExtractor(itemSelector string, l *zap.Logger) *Extractor {
	if itemSelector == "" {
		itemSelector = DefaultItemSelector
	}
	return &Extractor{
		ItemSelector: itemSelector,
		Fields:       DefaultFields(),
		logger:       l,
	}
}

// Extract returns one record per listing item that has every required field.
// A missing optional sub-element yields an empty value, not a dropped item.
// URL fields are joined against pageURL, the address the document was loaded from.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) []domain.Record {
	items := doc.Find(e.ItemSelector)
	records := make([]domain.Record, 0, items.Length())

	items.Each(func(i int, item *goquery.Selection) {
		fields := make([]domain.Field, 0, len(e.Fields))
		for _, spec := range e.Fields {
			value := e.fieldValue(item, spec, pageURL)
			if spec.Required && value == "" {
				e.logger.Debug("skipping item without required field", zap.Int("item", i), zap.String("field", spec.Name))
				return
			}
			fields = append(fields, domain.Field{Name: spec.Name, Value: value})
		}
		records = append(records, domain.NewRecord(fields...))
	})

	e.logger.Info("extracted records", zap.Int("items", items.Length()), zap.Int("records", len(records)))
	return records
}

func (e *Extractor) fieldValue(item *goquery.Selection, spec FieldSpec, pageURL string) string {
	el := item.Find(spec.Selector).First()
	if el.Length() == 0 {
		return ""
	}
	if spec.Attr == "" {
		return strings.TrimSpace(el.Text())
	}
	value := el.AttrOr(spec.Attr, "")
	if !spec.Resolve {
		return value
	}
	if strings.TrimSpace(value) == "" {
		return ""
	}
	abs, err := utils.ToAbsoluteURL(pageURL, value)
	if err != nil {
		e.logger.Debug("unresolvable url", zap.String("field", spec.Name), zap.String("value", value), zap.Error(err))
		return ""
	}
	return abs
}
