package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
)

func init() {
	subjectCmd := &cobra.Command{
		Use:     "subject",
		Aliases: []string{"subjects"},
		Short:   "Manage tracked subjects",
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withEngine(runSubjectCreate),
	}
	createCmd.Flags().StringP("aliases", "a", "", "Comma-separated aliases")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a subject",
		Args:  cobra.ExactArgs(1),
		RunE:  withEngine(runSubjectGet),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		Args:  cobra.NoArgs,
		RunE:  withEngine(runSubjectList),
	}
	listCmd.Flags().Bool("names-only", false, "Only output id and primary name")

	aliasCmd := &cobra.Command{
		Use:   "alias [id] [alias]",
		Short: "Add an alias to a subject",
		Args:  cobra.MinimumNArgs(2),
		RunE:  withEngine(runSubjectAlias),
	}

	pinCmd := &cobra.Command{
		Use:   "pin [id] [name]",
		Short: "Pin a name as the subject's primary name",
		Args:  cobra.MinimumNArgs(2),
		RunE:  withEngine(runSubjectPin),
	}

	touchCmd := &cobra.Command{
		Use:   "touch [id]",
		Short: "Refresh a subject's update time",
		Args:  cobra.ExactArgs(1),
		RunE:  withEngine(runSubjectTouch),
	}

	rmCmd := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a subject",
		Args:  cobra.ExactArgs(1),
		RunE:  withEngine(runSubjectRm),
	}

	subjectCmd.AddCommand(createCmd, getCmd, listCmd, aliasCmd, pinCmd, touchCmd, rmCmd)
	RootCmd.AddCommand(subjectCmd)
}

func runSubjectCreate(cmd *cobra.Command, args []string, e *engine) error {
	aliasesStr, _ := cmd.Flags().GetString("aliases")
	ctx := cmd.Context()

	subj, err := e.store.Create(ctx, strings.Join(args, " "))
	if err != nil {
		return errors.Wrap(err, "create")
	}
	for _, a := range strings.Split(aliasesStr, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if subj, err = e.store.AddAlias(ctx, subj.ID, a); err != nil {
			return errors.Wrap(err, "alias")
		}
	}
	return printJSON(cmd.OutOrStdout(), subj)
}

func runSubjectGet(cmd *cobra.Command, args []string, e *engine) error {
	subj, err := e.store.Get(cmd.Context(), args[0])
	if err != nil {
		return errors.Wrap(err, "get")
	}
	return printJSON(cmd.OutOrStdout(), subj)
}

func runSubjectList(cmd *cobra.Command, args []string, e *engine) error {
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	subjects, err := e.store.List(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "list")
	}

	if namesOnly {
		for _, s := range subjects {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.ID, s.PrimaryName)
		}
		return nil
	}
	if subjects == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), subjects)
}

func runSubjectAlias(cmd *cobra.Command, args []string, e *engine) error {
	subj, err := e.store.AddAlias(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		return errors.Wrap(err, "alias")
	}
	return printJSON(cmd.OutOrStdout(), subj)
}

func runSubjectPin(cmd *cobra.Command, args []string, e *engine) error {
	subj, err := e.store.PinAsPrimary(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		return errors.Wrap(err, "pin")
	}
	return printJSON(cmd.OutOrStdout(), subj)
}

func runSubjectTouch(cmd *cobra.Command, args []string, e *engine) error {
	if err := e.store.Touch(cmd.Context(), args[0]); err != nil {
		return errors.Wrap(err, "touch")
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q}`+"\n", args[0])
	return nil
}

func runSubjectRm(cmd *cobra.Command, args []string, e *engine) error {
	removed, err := e.store.Remove(cmd.Context(), args[0])
	if err != nil {
		return errors.Wrap(err, "rm")
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":%t,"id":%q}`+"\n", removed, args[0])
	return nil
}
