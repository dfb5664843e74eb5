package cli

import (
	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export subjects as JSON",
		Args:  cobra.NoArgs,
		RunE:  withEngine(runExport),
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string, e *engine) error {
	subjects, err := e.store.ExportAll(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "export")
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return printJSON(cmd.OutOrStdout(), subjects)
}
