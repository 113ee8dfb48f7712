package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	SchemaPath string
	RecordPath string
	Trace      bool
}

// EvalResult is the JSON payload of eval.
type EvalResult struct {
	Expression string `json:"expression"`
	Result     bool   `json:"result"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a predicate against a record",
		Long: `Evaluate a predicate expression against a record.

Exits 0 when the predicate holds, 1 when it is false or fails, and 2 when
the schema or record cannot be loaded.`,
		Example: `  ruleflow eval 'price > 100 and category == "books"' --schema order.yaml --record order.json
  ruleflow eval '(a == 1 or b == 2)' --schema s.yaml --record r.yaml --trace -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.RecordPath, "record", "", "record file (YAML or JSON)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "log the plan and each clause result")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions, expr string) error {
	f := opts.formatter(cmd)

	s, err := loadSchema(opts.defaultPath(opts.SchemaPath, "schema"))
	if err != nil {
		return reportLoadError(f, err)
	}
	rec, err := loadRecord(opts.defaultPath(opts.RecordPath, "record"), s)
	if err != nil {
		return reportLoadError(f, err)
	}

	engine := opts.engine(cmd)
	f.VerboseLog("engine %s: evaluating %q", engine.ID(), expr)

	result, err := engine.EvaluatePredicate(cmd.Context(), expr, rec, opts.Trace)
	if err != nil {
		_ = f.Error(engineError(err))
		return WrapExitError(ExitFailure, "evaluate", err)
	}
	if err := f.Success(strconv.FormatBool(result), EvalResult{Expression: expr, Result: result}); err != nil {
		return err
	}
	if !result {
		return NewExitError(ExitFailure, "predicate is false")
	}
	return nil
}
