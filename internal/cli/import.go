package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import subjects from JSON",
		Long:  "Import subjects from JSON on stdin. Expects the format produced by export; existing ids are skipped.",
		Args:  cobra.NoArgs,
		RunE:  withEngine(runImport),
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string, e *engine) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return errors.Wrap(err, "read stdin")
	}

	var subjects []model.Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return errors.Wrap(err, "parse json")
	}

	imported, err := e.store.Import(cmd.Context(), subjects)
	if err != nil {
		return errors.Wrap(err, "import")
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
	return nil
}
