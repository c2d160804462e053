package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/bamboorules/internal/frame"
	"github.com/solatis/bamboorules/internal/ruleio"
	"github.com/solatis/bamboorules/internal/rules"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a rule against data and print the JSON result",
	Example: `  bamboorules eval --logic '{">": [{"var": "amount"}, 100]}' --data order.json
  bamboorules eval --rule rule.yaml --frame orders=orders.json`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().String("rule", "", "rule file (.json, .yaml)")
	evalCmd.Flags().String("logic", "", "inline JSON rule")
	evalCmd.Flags().Bool("allow-reflection", false, "resolve Go methods and fields by reflection")
	evalCmd.Flags().Int("max-depth", 0, "maximum rule nesting depth (0 = unlimited)")
	evalCmd.MarkFlagsMutuallyExclusive("rule", "logic")
	evalCmd.MarkFlagsOneRequired("rule", "logic")
	addDataFlags(evalCmd)
}

// addDataFlags registers the --data and --frame flags shared by eval commands.
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "", "data file (.json, .yaml)")
	cmd.Flags().StringArray("frame", nil, "bind a records file as a table: name=file (repeatable)")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var rule any
	if path, _ := cmd.Flags().GetString("rule"); path != "" {
		rule, err = ruleio.ReadFile(path)
	} else {
		logic, _ := cmd.Flags().GetString("logic")
		rule, err = ruleio.DecodeBytes([]byte(logic), ruleio.FormatJSON)
	}
	if err != nil {
		return fmt.Errorf("failed to read rule: %w", err)
	}

	data, err := readData(cmd)
	if err != nil {
		return err
	}

	return evaluateAndPrint(cmd, newEngine(cfg), rule, data)
}

// readData loads --data and binds each --frame into it.
func readData(cmd *cobra.Command) (any, error) {
	var data any
	if path, _ := cmd.Flags().GetString("data"); path != "" {
		var err error
		if data, err = ruleio.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
	}

	specs, _ := cmd.Flags().GetStringArray("frame")
	frames := make(map[string]*frame.Frame, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --frame %q (expected name=file)", spec)
		}
		f, err := ruleio.ReadRecords(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %q: %w", name, err)
		}
		frames[name] = f
	}

	return ruleio.WithFrames(data, frames)
}

func evaluateAndPrint(cmd *cobra.Command, engine *rules.Engine, rule, data any) error {
	result, err := engine.Execute(rule, data)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	out, err := ruleio.Marshal(result, true)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
