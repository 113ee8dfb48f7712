package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SchemaPath string
	ShowPlan   bool
}

// ValidateResult is the JSON payload of validate.
type ValidateResult struct {
	Expression  string   `json:"expression"`
	Fingerprint string   `json:"fingerprint"`
	Clauses     int      `json:"clauses"`
	IDs         []string `json:"ids"`
	Plan        string   `json:"plan,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <expression>",
		Short: "Check an expression against a schema",
		Long: `Validate an expression against a schema without evaluating it.

On failure the error code and byte position are reported and the command
exits 1.`,
		Example: `  ruleflow validate 'tags contains "sale"' --schema order.yaml
  ruleflow validate '(a == 1 && b == 2) || c == 3' --schema s.yaml --plan`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "", "schema file (YAML or JSON)")
	cmd.Flags().BoolVar(&opts.ShowPlan, "plan", false, "print the compiled plan")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, expr string) error {
	f := opts.formatter(cmd)

	s, err := loadSchema(opts.defaultPath(opts.SchemaPath, "schema"))
	if err != nil {
		return reportLoadError(f, err)
	}

	p, err := opts.engine(cmd).Validate(cmd.Context(), expr, s)
	if err != nil {
		_ = f.Error(engineError(err))
		return WrapExitError(ExitFailure, "validate", err)
	}

	res := ValidateResult{
		Expression:  expr,
		Fingerprint: p.Fingerprint.String(),
		Clauses:     p.ClauseCount(),
		IDs:         p.SortedIDs,
	}
	text := fmt.Sprintf("valid: %d clause(s), %d subexpression(s)", res.Clauses, len(res.IDs))
	if opts.ShowPlan {
		res.Plan = p.Trace()
		text += "\n" + res.Plan
	}
	return f.Success(text, res)
}
