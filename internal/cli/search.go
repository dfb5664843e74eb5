package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search subjects by name fragment",
		Long:  "Search primary names and aliases for a case-insensitive substring.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withEngine(runSearch),
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string, e *engine) error {
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := e.store.Search(cmd.Context(), store.SearchParams{
		Query: strings.Join(args, " "),
		Limit: limit,
	})
	if err != nil {
		return errors.Wrap(err, "search")
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), results)
}
