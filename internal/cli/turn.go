package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/intent"
)

func init() {
	cmd := &cobra.Command{
		Use:   "turn [text]",
		Short: "Decide the active subject for one utterance",
		Long: "Extract name mentions, resolve them, fall back to --hint and provision " +
			"an unknown person if nothing else applies. Prints the active subject and inject tokens.",
		Args: cobra.MinimumNArgs(1),
		RunE: withEngine(runTurn),
	}

	cmd.Flags().String("hint", "", "Active subject id from the previous turn")

	RootCmd.AddCommand(cmd)
}

func runTurn(cmd *cobra.Command, args []string, e *engine) error {
	hint, _ := cmd.Flags().GetString("hint")

	res := e.hook.Turn(cmd.Context(), intent.Turn{
		Text:          strings.Join(args, " "),
		HintSubjectID: hint,
	})
	return printJSON(cmd.OutOrStdout(), res)
}
