package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/listing-scraper/internal/domain"
)

func TestCrawlJobs(t *testing.T) {
	t.Run("args replace configured keywords", func(t *testing.T) {
		jobs := crawlJobs([]string{"lamp"}, []string{"desk", "chair"}, "", false)
		assert.Equal(t, []domain.CrawlJob{{Keyword: "lamp"}}, jobs)
	})

	t.Run("configured keywords", func(t *testing.T) {
		jobs := crawlJobs(nil, []string{"desk", " ", "chair"}, "", true)
		assert.Equal(t, []domain.CrawlJob{
			{Keyword: "desk", ForceCrawl: true},
			{Keyword: "chair", ForceCrawl: true},
		}, jobs)
	})

	t.Run("start url first", func(t *testing.T) {
		jobs := crawlJobs([]string{"lamp"}, nil, " https://shop.example.com/s?k=x ", false)
		assert.Equal(t, []domain.CrawlJob{
			{StartURL: "https://shop.example.com/s?k=x"},
			{Keyword: "lamp"},
		}, jobs)
	})

	t.Run("nothing", func(t *testing.T) {
		assert.Empty(t, crawlJobs(nil, nil, "", false))
	})
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["crawl"])
	assert.True(t, names["serve"])

	for _, flag := range []string{"config", "output", "api-url", "database-url", "max-pages", "backoff"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}
