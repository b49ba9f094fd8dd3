package main

import (
	"basket/internal/catalog"
	"basket/internal/config"
	"basket/internal/filter"
	"basket/internal/listing"
	"basket/internal/navigation"
	"basket/internal/telemetry"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var serve bool
	var addr string
	var listCategories bool
	var category int
	var subcategory int
	var merchants stringList
	var subsubs stringList
	var sort string
	var highlight string
	var help bool

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", ":8080", "Address to bind in server mode")
	flag.BoolVar(&listCategories, "categories", false, "Print the category tree and exit")
	flag.IntVar(&category, "category", 0, "Category id to list products for")
	flag.IntVar(&category, "c", 0, "Category id (short form)")
	flag.IntVar(&subcategory, "subcategory", 0, "Sub-category id (optional)")
	flag.IntVar(&subcategory, "s", 0, "Sub-category id (short form)")
	flag.Var(&merchants, "merchant", "Merchant id to keep (repeatable)")
	flag.Var(&subsubs, "subsub", "Sub-sub-category id to keep (repeatable)")
	flag.StringVar(&sort, "sort", "asc", "Price order: asc or desc")
	flag.StringVar(&highlight, "highlight", "", "Merchant whose price is shown when highlight pricing is on")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, cfg.Log)
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	if serve {
		if err := runServer(cfg, addr); err != nil {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	source, err := catalog.NewSource(cfg)
	if err != nil {
		log.Fatalf("failed to create catalog source: %v", err)
	}

	if listCategories {
		if err := printCategories(ctx, os.Stdout, source); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	if category == 0 {
		fmt.Println("Error: a category is required (or use -categories / -serve)")
		showHelp()
		os.Exit(1)
	}

	q := url.Values{}
	q["sort"] = []string{sort}
	q["merchant"] = merchants
	q["subsub"] = subsubs
	if highlight != "" {
		q["highlight"] = []string{highlight}
	}
	params := navigation.Params{CategoryID: category}
	if subcategory != 0 {
		params.SubCategoryID = &subcategory
	}
	opts := filter.Options{HighlightPricing: cfg.Selection.HighlightPricing}
	if err := printProducts(ctx, os.Stdout, source, params, q, opts); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printCategories(ctx context.Context, w io.Writer, source catalog.Source) error {
	cat, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}
	for _, c := range cat.Categories {
		fmt.Fprintf(w, "%d %s\n", c.ID, c.Name)
		for _, sc := range c.SubCategories {
			fmt.Fprintf(w, "  %d %s\n", sc.ID, sc.Name)
			for _, ssc := range sc.SubSubCategories {
				fmt.Fprintf(w, "    %d %s\n", ssc.ID, ssc.Name)
			}
		}
	}
	return nil
}

func printProducts(ctx context.Context, w io.Writer, source catalog.Source, params navigation.Params, q url.Values, opts filter.Options) error {
	cat, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if _, ok := cat.Category(params.CategoryID); !ok {
		return fmt.Errorf("unknown category %d", params.CategoryID)
	}
	panel := listing.FromQuery(cat, params, q, opts)
	fmt.Fprintf(w, "%s: %d products\n", panel.CategoryName(), len(panel.Rows()))
	for _, row := range panel.Rows() {
		fmt.Fprintf(w, "%8s  %-40s  %d chains  [%s]\n", row.PriceText(), row.Product.Name, row.MerchantCount, row.Product.ID)
	}
	return nil
}

func showHelp() {
	fmt.Println("Basket - supermarket price comparison")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  basket -serve [-addr :8080]")
	fmt.Println("  basket -categories")
	fmt.Println("  basket -category <id> [-subcategory <id>] [-merchant <id>]... [-subsub <id>]... [-sort asc|desc]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Configuration is read from the environment (and .env): CATALOG_URL, CATALOG_TIMEOUT,")
	fmt.Println("CATALOG_RETRIES, CATALOG_TTL, CATALOG_BLOB_ACCOUNT, SELECTION_POLICY, HIGHLIGHT_PRICING,")
	fmt.Println("LOG_LEVEL, OTEL_EXPORTER_OTLP_ENDPOINT, MOCKS_ENABLE.")
}
