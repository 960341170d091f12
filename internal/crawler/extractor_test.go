package crawler

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/domain"
)

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument(html)
	require.NoError(t, err)
	return doc
}

func TestExtract_FieldOrderAndValues(t *testing.T) {
	doc := mustParse(t, listingPage("Keyboard", 2, ""))
	e := NewExtractor("", zap.NewNop())

	records := e.Extract(doc, testBaseURL+"/s?k=keyboard")

	require.Len(t, records, 2)
	assert.Equal(t, []string{"Title", "Image", "Link"}, records[0].Names())
	assert.Equal(t, []string{
		"Keyboard 2",
		"https://img.example.com/2.jpg",
		testBaseURL + "/dp/keyboard-2",
	}, records[1].Values())
}

func TestExtract_MissingTitleDropsItem(t *testing.T) {
	doc := mustParse(t, `<div role="listitem"><img src="a.jpg"><a href="/dp/1">x</a></div>
		<div role="listitem"><h2>   </h2><a href="/dp/2">x</a></div>
		<div role="listitem"><h2>Kept</h2></div>`)
	e := NewExtractor("", zap.NewNop())

	records := e.Extract(doc, testBaseURL)

	require.Len(t, records, 1)
	assert.Equal(t, []string{"Kept", "", ""}, records[0].Values())
}

func TestExtract_NoItems(t *testing.T) {
	doc := mustParse(t, "<html><body><p>No results</p></body></html>")
	e := NewExtractor("", zap.NewNop())

	assert.Empty(t, e.Extract(doc, testBaseURL))
}

// Links are joined against the page they were found on, the same way the
// next-page link is, so relative, root-relative and absolute hrefs all work.
func TestExtract_LinkJoinsAgainstPageURL(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		href    string
		want    string
	}{
		{"root relative", "https://shop.example.com/s?k=a&page=2", "/dp/B01", "https://shop.example.com/dp/B01"},
		{"path relative", "https://shop.example.com/deals/today", "item/7", "https://shop.example.com/deals/item/7"},
		{"absolute", "https://shop.example.com/s", "https://cdn.example.net/p/9", "https://cdn.example.net/p/9"},
		{"protocol relative", "https://shop.example.com/s", "//m.example.com/dp/3", "https://m.example.com/dp/3"},
		{"padded", "https://shop.example.com/s", "  /dp/4  ", "https://shop.example.com/dp/4"},
		{"unparseable", "https://shop.example.com/s", "http://[::1", ""},
	}

	e := NewExtractor("", zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, `<div role="listitem"><h2>T</h2><a href="`+tt.href+`">x</a></div>`)

			records := e.Extract(doc, tt.pageURL)

			require.Len(t, records, 1)
			link, ok := records[0].Get(domain.FieldLink)
			assert.True(t, ok)
			assert.Equal(t, tt.want, link)
		})
	}
}

func TestExtract_ImageIsKeptAsIs(t *testing.T) {
	doc := mustParse(t, `<div role="listitem"><h2>T</h2><img src=" /img/1.jpg "></div>`)
	e := NewExtractor("", zap.NewNop())

	records := e.Extract(doc, testBaseURL)

	require.Len(t, records, 1)
	img, _ := records[0].Get(domain.FieldImage)
	assert.Equal(t, " /img/1.jpg ", img)
}

func TestExtract_BlankHrefIsEmptyLink(t *testing.T) {
	doc := mustParse(t, `<div role="listitem"><h2>T</h2><a href="   ">x</a></div>`)
	e := NewExtractor("", zap.NewNop())

	records := e.Extract(doc, testBaseURL)

	require.Len(t, records, 1)
	link, _ := records[0].Get(domain.FieldLink)
	assert.Empty(t, link)
}

func TestExtract_CustomItemSelector(t *testing.T) {
	doc := mustParse(t, `<li class="product"><h2>One</h2></li><li class="product"><h2>Two</h2></li>`)
	e := NewExtractor("li.product", zap.NewNop())

	assert.Len(t, e.Extract(doc, testBaseURL), 2)
}
