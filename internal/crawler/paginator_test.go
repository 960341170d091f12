package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/domain"
)

func TestNextPage(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		base   string
		want   string
		wantOK bool
	}{
		{
			name:   "relative link",
			html:   `<a class="s-pagination-next" href="/s?k=mouse&amp;page=2">Next</a>`,
			base:   testBaseURL + "/s?k=mouse",
			want:   testBaseURL + "/s?k=mouse&page=2",
			wantOK: true,
		},
		{
			name:   "absolute link",
			html:   `<a class="s-pagination-next" href="https://www.example.org/s?page=2">Next</a>`,
			base:   testBaseURL + "/s?k=mouse",
			want:   "https://www.example.org/s?page=2",
			wantOK: true,
		},
		{
			name: "no link",
			html: `<span class="s-pagination-next s-pagination-disabled">Next</span>`,
			base: testBaseURL,
		},
		{
			name: "link without href",
			html: `<a class="s-pagination-next">Next</a>`,
			base: testBaseURL,
		},
	}

	p := NewPaginator("", zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := p.NextPage(mustParse(t, tt.html), tt.base)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument("<p>Unclosed <b>markup")
	require.NoError(t, err)
	assert.Equal(t, "markup", doc.Find("b").Text())

	_, err = ParseDocument(" \n\t")
	assert.ErrorIs(t, err, domain.ErrParse)

	_, err = ParseDocument("<p>\xff\xfe</p>")
	assert.ErrorIs(t, err, domain.ErrParse)
}
