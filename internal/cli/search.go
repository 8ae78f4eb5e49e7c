package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/regidx/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed objects",
	Long: `Search registry objects. The positional argument is free text;
--filter adds field filters (field=value, repeatable). @self. prefixes
address metadata fields, e.g. @self.register=5.`,
	Run: runSearch,
}

var (
	searchFilters []string
	searchFacets  []string
	searchSort    string
	searchPage    int
	searchLimit   int
)

func init() {
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil, "Field filter (field=value)")
	searchCmd.Flags().StringArrayVar(&searchFacets, "facet", nil, "Facet field")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "Sort field (prefix with - for descending)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Results per page")
}

func runSearch(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initFullContext()
	defer c.Close()

	q := &models.SearchQuery{
		FreeText:    strings.Join(args, " "),
		Filters:     map[string]interface{}{},
		Page:        searchPage,
		Limit:       searchLimit,
		FacetFields: searchFacets,
	}
	for _, f := range searchFilters {
		field, value, ok := strings.Cut(f, "=")
		if !ok {
			exitError("invalid filter %q, expected field=value", f)
		}
		q.Filters[field] = value
	}
	if searchSort != "" {
		sf := models.SortField{Field: searchSort, Direction: "asc"}
		if strings.HasPrefix(searchSort, "-") {
			sf.Field = searchSort[1:]
			sf.Direction = "desc"
		}
		q.Sort = []models.SortField{sf}
	}

	result, err := c.Index.SearchObjects(bgCtx, q)
	if err != nil {
		exitError("search failed: %v", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Printf("%d results (%dms)\n\n", result.Total, result.TimeMS)

	for _, obj := range result.Objects {
		cyan.Printf("%s", shortID(obj.UUID))
		fmt.Printf("  %s", obj.Name)
		if obj.SchemaID != 0 {
			fmt.Printf("  (schema %d)", obj.SchemaID)
		}
		fmt.Println()
		if obj.Description != "" {
			fmt.Printf("    %s\n", obj.Description)
		}
	}

	for field, counts := range result.Facets {
		fmt.Printf("\n%s:\n", field)
		for term, n := range counts {
			fmt.Printf("  %-30s %d\n", term, n)
		}
	}
}
