package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "resolve [name]",
		Short: "Resolve a name or alias to a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withEngine(runResolve),
	}

	RootCmd.AddCommand(cmd)
}

type resolveOutput struct {
	Query   string         `json:"query"`
	Found   bool           `json:"found"`
	Subject *model.Subject `json:"subject,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string, e *engine) error {
	query := strings.Join(args, " ")
	ctx := cmd.Context()

	id, ok, err := e.resolver.Resolve(ctx, query)
	if err != nil {
		return errors.Wrap(err, "resolve")
	}
	out := resolveOutput{Query: query, Found: ok}
	if ok {
		if out.Subject, err = e.store.Get(ctx, id); err != nil {
			return errors.Wrap(err, "resolve")
		}
	}
	return printJSON(cmd.OutOrStdout(), out)
}
