package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cfgFile holds the path to an explicit configuration file.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "listing-scraper",
	Short: "Crawl product listings and persist them",
	Long: `listing-scraper drives a headless browser through search result pages,
extracts title, image and link for every listing, and writes the records to a
file (csv, json, xlsx, sqlite), a Postgres table or an HTTP endpoint.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are visible to every command.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./.env if present)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	addPipelineFlags(pf)

	rootCmd.AddCommand(crawlCommand())
	rootCmd.AddCommand(serveCommand())
}

// addPipelineFlags registers the flags shared by crawl and serve. Zero values
// mean "not set"; defaults come from the configuration layer.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.String("base-url", "", "site origin used to build search URLs")
	fs.Int("max-pages", 0, "maximum result pages per keyword (default 5)")
	fs.Int("max-scrolls", 0, "maximum scrolls per page while waiting for lazy content (default 10)")
	fs.Int("workers", 0, "keywords crawled in parallel, one browser each (default 1)")
	fs.Bool("headless", true, "run the browser without a window")

	fs.StringP("output", "o", "", "output file; the extension selects csv, json, xlsx, xls or sqlite")
	fs.String("api-url", "", "POST records to this endpoint instead of writing a file")
	fs.String("database-url", "", "write records to this Postgres database instead of a file")
	fs.String("table", "", "table name for sqlite and postgres outputs (default products)")
	fs.Int("max-retries", 0, "publish attempts before giving up (default 3)")
	fs.Duration("retry-delay", 0, "wait between publish attempts (default 2s)")
	fs.Bool("backoff", false, "double the publish delay after each failed attempt")
}
