package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/solatis/bamboorules/internal/ruleio"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage stored rules",
}

var rulesPutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a rule read from a file, replacing any rule of that name",
	Args:  cobra.ExactArgs(2),
	RunE:  withStore(runRulesPut),
}

var rulesGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored rule",
	Args:  cobra.ExactArgs(1),
	RunE:  withStore(runRulesGet),
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	Args:  cobra.NoArgs,
	RunE:  withStore(runRulesList),
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored rule",
	Args:  cobra.ExactArgs(1),
	RunE:  withStore(runRulesDelete),
}

var rulesEvalCmd = &cobra.Command{
	Use:   "eval <name>",
	Short: "Evaluate a stored rule against data",
	Args:  cobra.ExactArgs(1),
	RunE:  withStore(runRulesEval),
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesPutCmd, rulesGetCmd, rulesListCmd, rulesDeleteCmd, rulesEvalCmd)
	rulesEvalCmd.Flags().Bool("allow-reflection", false, "resolve Go methods and fields by reflection")
	addDataFlags(rulesEvalCmd)
}

type storeRunner func(ctx context.Context, cmd *cobra.Command, st *store, args []string) error

// withStore opens the rule store around a subcommand.
func withStore(run storeRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()
		return run(ctx, cmd, st, args)
	}
}

func runRulesPut(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	logic, err := ruleio.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read rule: %w", err)
	}
	rule, err := st.Put(ctx, args[0], logic)
	if err != nil {
		return err
	}
	logger.Info("Stored rule", "name", rule.Name, "rule_id", rule.RuleID)
	return nil
}

func runRulesGet(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	rule, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(json.RawMessage(rule.Logic), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format rule: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runRulesList(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	stored, err := st.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tSIZE\tUPDATED")
	for _, r := range stored {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.Name, r.RuleID, humanize.Bytes(uint64(len(r.Logic))), humanize.Time(r.UpdatedAt))
	}
	return w.Flush()
}

func runRulesDelete(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	if err := st.Delete(ctx, args[0]); err != nil {
		return err
	}
	logger.Info("Deleted rule", "name", args[0])
	return nil
}

func runRulesEval(ctx context.Context, cmd *cobra.Command, st *store, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logic, err := st.Logic(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := readData(cmd)
	if err != nil {
		return err
	}
	return evaluateAndPrint(cmd, newEngine(cfg), logic, data)
}
