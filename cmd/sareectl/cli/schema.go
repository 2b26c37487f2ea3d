package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/saree-crm/saree-crm/internal/platform/schema"
	"github.com/saree-crm/saree-crm/internal/sales"
)

// NewSchemaCommand groups the schema maintenance subcommands.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect or reconcile the store schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Create missing tables and add missing columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaReconcile(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List missing tables and columns without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaStatus(rootOpts, cmd)
		},
	})
	return cmd
}

func runSchemaReconcile(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	conn, dialect, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	reconciler := schema.NewReconciler(schema.NewSQLCatalog(conn, dialect), opts.logger(cmd.ErrOrStderr()))
	report := reconciler.Reconcile(ctx, sales.Tables()...)

	out := cmd.OutOrStdout()
	if !report.Changed() && len(report.Failures) == 0 {
		color.New(color.FgGreen).Fprintln(out, "Schema is up to date.")
		return nil
	}
	printReport(out, report, "created table", "added column")
	for _, f := range report.Failures {
		color.New(color.FgRed).Fprintf(out, "  failed %s\n", f.Error())
	}
	if err := report.Err(); err != nil {
		return fmt.Errorf("%d reconciliation step(s) failed", len(report.Failures))
	}
	return nil
}

func runSchemaStatus(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	conn, dialect, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	reconciler := schema.NewReconciler(schema.NewSQLCatalog(conn, dialect), opts.logger(cmd.ErrOrStderr()))
	plan, err := reconciler.Plan(ctx, sales.Tables()...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !plan.Changed() {
		color.New(color.FgGreen).Fprintln(out, "Schema is up to date.")
		return nil
	}
	printReport(out, plan, "missing table", "missing column")
	color.New(color.FgYellow).Fprintln(out, "Run `sareectl schema reconcile` to apply.")
	return nil
}

func printReport(out io.Writer, report schema.Report, tableVerb, columnVerb string) {
	for _, table := range report.Created {
		fmt.Fprintf(out, "  %s %s\n", tableVerb, table)
	}
	tables := lo.Keys(report.Added)
	slices.Sort(tables)
	for _, table := range tables {
		for _, column := range report.Added[table] {
			fmt.Fprintf(out, "  %s %s.%s\n", columnVerb, table, column)
		}
	}
}
