package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/property"
	"github.com/evcraddock/listing-desk/internal/search"
)

type searchFlags struct {
	search     string
	agent      string
	startDate  string
	endDate    string
	minPrice   float64
	maxPrice   float64
	page       int
	exactPages bool
}

func newSearchCmd() *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search [terms]",
		Short: "Search published listings",
		Long: "Run the admin search: free text, exact agent, an inclusive creation date range and a price window, " +
			"ten listings per page, newest first.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && f.search == "" {
				f.search = strings.Join(args, " ")
			}
			filters := search.Filters{
				Search:    f.search,
				Agent:     f.agent,
				StartDate: f.startDate,
				EndDate:   f.endDate,
				Page:      f.page,
			}
			if cmd.Flags().Changed("min-price") {
				filters.MinPrice = &f.minPrice
			}
			if cmd.Flags().Changed("max-price") {
				filters.MaxPrice = &f.maxPrice
			}
			return runSearch(cmd, filters, f.exactPages, cmd.Flags().Changed("exact-paging"))
		},
	}

	cmd.Flags().StringVar(&f.search, "search", "", "free-text terms (also accepted as arguments)")
	cmd.Flags().StringVar(&f.agent, "agent", "", "exact agent name")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "first creation day, YYYY-MM-DD (needs --end-date)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "last creation day, YYYY-MM-DD (needs --start-date)")
	cmd.Flags().Float64Var(&f.minPrice, "min-price", 0, "lowest price")
	cmd.Flags().Float64Var(&f.maxPrice, "max-price", search.DefaultMaxPrice, "highest price")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().BoolVar(&f.exactPages, "exact-paging", false, "count pages after the price filter (default from config)")

	return cmd
}

func runSearch(cmd *cobra.Command, filters search.Filters, exact, exactSet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	if !exactSet {
		exact = cfg.Search.ExactPaging
	}

	res, err := search.NewService(property.NewRepository(database), pagingMode(exact)).Search(context.Background(), filters)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out(cmd), res)
	}

	if err := printRowTable(out(cmd), res.Rows); err != nil {
		return err
	}
	if res.TotalPages > 1 {
		fmt.Fprintf(out(cmd), "\nPage %d of %d\n", res.Page, res.TotalPages)
	}
	return nil
}

func pagingMode(exact bool) search.PagingMode {
	if exact {
		return search.PagingFiltered
	}
	return search.PagingStore
}
