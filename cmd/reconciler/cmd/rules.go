package cmd

import (
	"fmt"

	"membership-reconciliation-service/cmd/reconciler/config"
	"membership-reconciliation-service/internal/routing"
	"membership-reconciliation-service/internal/store"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	ruleName     string
	ruleSheet    string
	ruleMin      string
	ruleMax      string
	rulePriority int
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage routing rules",
	Long: `Routing rules map a transaction's absolute amount to a destination
worksheet. Higher-priority rules win; transactions no rule claims go to the
Monthly sheet.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List routing rules in evaluation order",
	RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
		rules, err := st.ListRules()
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No rules; everything routes to %s.\n", routing.DefaultSheet)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-15s %10s %10s %9s\n", "NAME", "SHEET", "MIN", "MAX", "PRIORITY")
		for _, r := range rules {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-15s %10s %10s %9d\n",
				r.Name, r.Sheet, boundString(r.Min), boundString(r.Max), r.Priority)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "(default: %s)\n", routing.DefaultSheet)
		return nil
	}),
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a routing rule",
	Example: `  reconciler rules add --name generator --sheet Generator --min 500 --max 700 --priority 10
  reconciler rules add --name annual --sheet Annual --min 100 --max 150`,
	RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
		rule := routing.Rule{
			Name:     ruleName,
			Sheet:    ruleSheet,
			Priority: rulePriority,
		}
		var err error
		if rule.Min, err = parseBound(ruleMin); err != nil {
			return errors.Wrap(err, "--min")
		}
		if rule.Max, err = parseBound(ruleMax); err != nil {
			return errors.Wrap(err, "--max")
		}
		if _, err := st.AddRule(rule); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added rule %q routing to %s\n", rule.Name, rule.Sheet)
		return nil
	}),
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a routing rule by name",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
		if err := st.RemoveRule(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %q\n", args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesRemoveCmd)

	rulesAddCmd.Flags().StringVar(&ruleName, "name", "", "unique rule name (required)")
	rulesAddCmd.Flags().StringVar(&ruleSheet, "sheet", "", "destination worksheet (required)")
	rulesAddCmd.Flags().StringVar(&ruleMin, "min", "", "minimum absolute amount (inclusive, open when omitted)")
	rulesAddCmd.Flags().StringVar(&ruleMax, "max", "", "maximum absolute amount (inclusive, open when omitted)")
	rulesAddCmd.Flags().IntVar(&rulePriority, "priority", 0, "evaluation priority, higher first")
	rulesAddCmd.MarkFlagRequired("name")
	rulesAddCmd.MarkFlagRequired("sheet")
}

// withStore wraps a RunE with logger and store setup/teardown.
func withStore(run func(cmd *cobra.Command, st *store.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log, err := config.BuildLogger()
		if err != nil {
			return err
		}
		st, err := config.OpenStore(log)
		if err != nil {
			return err
		}
		defer st.Close()
		return run(cmd, st, args)
	}
}

func parseBound(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, errors.Wrapf(err, "invalid amount %q", s)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func boundString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
