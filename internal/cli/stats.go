package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store and index statistics",
		Args:  cobra.NoArgs,
		RunE:  withEngine(runStats),
	}

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	*store.Stats
	IndexKeys       int    `json:"index_keys"`
	IndexGeneration uint64 `json:"index_generation"`
}

func runStats(cmd *cobra.Command, args []string, e *engine) error {
	out, err := collectStats(cmd.Context(), e)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func collectStats(ctx context.Context, e *engine) (*statsOutput, error) {
	st, err := e.store.Stats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "stats")
	}
	idx, err := e.resolver.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "stats")
	}
	return &statsOutput{Stats: st, IndexKeys: idx.Len(), IndexGeneration: idx.Generation()}, nil
}
