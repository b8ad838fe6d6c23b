package main

import (
	"errors"
	"fmt"

	"github.com/artpar/newsdemo/adapters/feed"
	"github.com/artpar/newsdemo/bootstrap"
	"github.com/artpar/newsdemo/core/formatter"
	"github.com/artpar/newsdemo/pkg/apierr"
	"github.com/spf13/cobra"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Read and import news items",
	Long: `Read news items from the backend, or import a feed into its database.

Examples:
  newsdemo news list
  newsdemo news list -o json
  newsdemo news get 2
  newsdemo news import --feed https://example.com/rss.xml`,
}

var newsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List news items",
	RunE:  runNewsList,
}

var newsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one news item",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewsGet,
}

var newsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an RSS or Atom feed into the database",
	Long: `Fetch a feed and upsert its entries into the configured database.

Items keep a stable id derived from the entry guid, so importing the same
feed twice updates items in place.`,
	RunE: runNewsImport,
}

var (
	newsColumns  []string
	newsMaxWidth int
	importFeed   string
	importLimit  int
)

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.AddCommand(newsListCmd)
	newsCmd.AddCommand(newsGetCmd)
	newsCmd.AddCommand(newsImportCmd)

	newsListCmd.Flags().StringSliceVar(&newsColumns, "columns", nil, "columns to show (id,title,summary,image)")
	newsListCmd.Flags().IntVar(&newsMaxWidth, "max-width", 60, "truncate table cells (0 = no limit)")
	newsGetCmd.Flags().StringSliceVar(&newsColumns, "columns", nil, "fields to show")

	newsImportCmd.Flags().StringVar(&importFeed, "feed", "", "feed URL (default: api.feed_url)")
	newsImportCmd.Flags().IntVar(&importLimit, "limit", 0, "maximum items to import (default: api.feed_limit)")
}

func runNewsList(cmd *cobra.Command, args []string) error {
	f, err := output()
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	r := s.news.List().Use(cmd.Context())
	if r.Err != nil {
		return userError(r.Err)
	}

	opts := formatter.FormatOptions{Columns: newsColumns, MaxWidth: newsMaxWidth}
	return f.FormatList(cmd.OutOrStdout(), formatter.NewsSchema, formatter.NewsRecords(r.Data), opts)
}

func runNewsGet(cmd *cobra.Command, args []string) error {
	f, err := output()
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	r := s.news.Item(args[0]).Use(cmd.Context())
	if r.Err != nil {
		return userError(r.Err)
	}

	opts := formatter.FormatOptions{Columns: newsColumns}
	return f.FormatRecord(cmd.OutOrStdout(), formatter.NewsSchema, formatter.NewsRecord(r.Data), opts)
}

func runNewsImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger(cfg, cmd.ErrOrStderr())

	src := feed.Source{URL: importFeed, Limit: importLimit}
	if src.URL == "" {
		src.URL = cfg.API.FeedURL
	}
	if src.Limit == 0 {
		src.Limit = cfg.API.FeedLimit
	}
	if src.URL == "" {
		return errors.New("no feed: pass --feed or set api.feed_url")
	}

	stores, err := bootstrap.OpenStores(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	ctx := cmd.Context()
	n, err := feed.NewImporter(stores.News, logger).Import(ctx, src)
	if err != nil {
		return fmt.Errorf("import %s: %w", src.URL, err)
	}

	total, err := stores.News.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items (%d stored)\n", n, total)
	return nil
}

// userError reduces err to the message a user would see on the page.
func userError(err error) error {
	return errors.New(apierr.Message(err, err.Error()))
}
