package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/rulestore"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/ruleset"
)

// RulesOptions holds flags shared by the rules subcommands.
type RulesOptions struct {
	*RootOptions
	SchemaPath string
	RecordPath string
	StorePath  string
	Name       string
	Trace      bool
}

// RuleOutcome is one rule in the JSON payload of rules run and rules check.
type RuleOutcome struct {
	Rule       string    `json:"rule"`
	Expression string    `json:"expression"`
	Result     bool      `json:"result"`
	Error      *CLIError `json:"error,omitempty"`
}

// RulesReport is the JSON payload of rules run and rules check.
type RulesReport struct {
	Ruleset  string        `json:"ruleset"`
	Passed   bool          `json:"passed"`
	Outcomes []RuleOutcome `json:"outcomes"`
}

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with named rule sets",
		Long: `Rule sets are YAML documents holding named, parameterized predicates.
They can be run from a file or imported into a SQLite rule store.`,
	}

	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "SQLite rule store")

	cmd.AddCommand(newRulesRunCommand(opts))
	cmd.AddCommand(newRulesCheckCommand(opts))
	cmd.AddCommand(newRulesImportCommand(opts))
	cmd.AddCommand(newRulesListCommand(opts))

	return cmd
}

func newRulesRunCommand(opts *RulesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [ruleset.yaml]",
		Short: "Evaluate every rule of a rule set against a record",
		Long: `Evaluate every rule in declaration order. The rule set comes from a file
argument, or from the store with --store and --name.

Exits 0 when every rule holds and 1 otherwise.`,
		Example: `  ruleflow rules run orders.yaml --schema order.yaml --record order.json
  ruleflow rules run --store rules.db --name orders --schema order.yaml --record order.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesRun(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.RecordPath, "record", "", "record file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "rule set name in the store")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "log the plan and each clause result")
	return cmd
}

func newRulesCheckCommand(opts *RulesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "check [ruleset.yaml]",
		Short:         "Validate every rule of a rule set against a schema",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesCheck(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "rule set name in the store")
	return cmd
}

func newRulesImportCommand(opts *RulesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "import <ruleset.yaml>",
		Short:         "Save a rule set file into the store",
		Example:       `  ruleflow rules import orders.yaml --store rules.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesImport(cmd, opts, args[0])
		},
	}
}

func newRulesListCommand(opts *RulesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the rule sets in the store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(cmd, opts)
		},
	}
}

func (o *RulesOptions) openStore() (*rulestore.SQLiteStore, error) {
	path := o.defaultPath(o.StorePath, "store")
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no store given: use --store or defaults.store in the config")
	}
	store, err := rulestore.NewSQLiteStore(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return store, nil
}

// loadRuleset reads the rule set from the file argument, or from the store
// when no file is given.
func (o *RulesOptions) loadRuleset(args []string) (*ruleset.Ruleset, error) {
	if len(args) == 1 {
		rs, err := ruleset.LoadFile(args[0])
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load rule set", err)
		}
		return rs, nil
	}
	if o.Name == "" {
		return nil, NewExitError(ExitCommandError, "give a rule set file or --name with --store")
	}
	store, err := o.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rs, err := ruleset.FromStore(store, o.Name)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load rule set", err)
	}
	return rs, nil
}

func runRulesRun(cmd *cobra.Command, opts *RulesOptions, args []string) error {
	f := opts.formatter(cmd)

	rs, err := opts.loadRuleset(args)
	if err != nil {
		return reportLoadError(f, err)
	}
	s, err := loadSchema(opts.defaultPath(opts.SchemaPath, "schema"))
	if err != nil {
		return reportLoadError(f, err)
	}
	rec, err := loadRecord(opts.defaultPath(opts.RecordPath, "record"), s)
	if err != nil {
		return reportLoadError(f, err)
	}

	report := rs.Evaluate(cmd.Context(), opts.engine(cmd), rec, opts.Trace)

	out := RulesReport{Ruleset: report.Ruleset, Passed: report.Passed()}
	var text strings.Builder
	fmt.Fprintf(&text, "rule set %s:", report.Ruleset)
	for _, o := range report.Outcomes {
		ro := RuleOutcome{Rule: o.Rule, Expression: o.Expression, Result: o.Result}
		status := "PASS"
		switch {
		case o.Err != nil:
			e := engineError(o.Err)
			ro.Error = &e
			status = "ERROR " + e.Code
		case !o.Result:
			status = "FAIL"
		}
		out.Outcomes = append(out.Outcomes, ro)
		fmt.Fprintf(&text, "\n  %-6s %s", status, o.Rule)
	}
	fmt.Fprintf(&text, "\n%d rule(s), %d failed, %d error(s)",
		len(report.Outcomes), len(report.Failed()), len(report.Errors()))

	if err := f.Success(text.String(), out); err != nil {
		return err
	}
	if !out.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("rule set %s did not pass", report.Ruleset))
	}
	return nil
}

func runRulesCheck(cmd *cobra.Command, opts *RulesOptions, args []string) error {
	f := opts.formatter(cmd)

	rs, err := opts.loadRuleset(args)
	if err != nil {
		return reportLoadError(f, err)
	}
	s, err := loadSchema(opts.defaultPath(opts.SchemaPath, "schema"))
	if err != nil {
		return reportLoadError(f, err)
	}

	failures := rs.Validate(cmd.Context(), opts.engine(cmd), s)

	out := RulesReport{Ruleset: rs.Name(), Passed: len(failures) == 0}
	var text strings.Builder
	fmt.Fprintf(&text, "rule set %s:", rs.Name())
	for _, r := range rs.Rules() {
		expr, _ := rs.Expression(r.Name)
		ro := RuleOutcome{Rule: r.Name, Expression: expr, Result: true}
		status := "OK"
		if err, ok := failures[r.Name]; ok {
			e := engineError(err)
			ro.Error = &e
			ro.Result = false
			status = "ERROR " + e.Code
		}
		out.Outcomes = append(out.Outcomes, ro)
		fmt.Fprintf(&text, "\n  %-6s %s", status, r.Name)
	}

	if err := f.Success(text.String(), out); err != nil {
		return err
	}
	if !out.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("%d rule(s) of %s are invalid", len(failures), rs.Name()))
	}
	return nil
}

func runRulesImport(cmd *cobra.Command, opts *RulesOptions, path string) error {
	f := opts.formatter(cmd)

	rs, err := opts.loadRuleset([]string{path})
	if err != nil {
		return reportLoadError(f, err)
	}
	store, err := opts.openStore()
	if err != nil {
		return reportLoadError(f, err)
	}
	defer store.Close()

	if err := rs.Save(store); err != nil {
		_ = f.Error(CLIError{Code: CodeIO, Message: err.Error()})
		return WrapExitError(ExitCommandError, "import", err)
	}
	f.VerboseLog("saved %d rule(s) to %s", rs.Len(), opts.defaultPath(opts.StorePath, "store"))
	return f.Success(fmt.Sprintf("imported %s: %d rule(s)", rs.Name(), rs.Len()),
		map[string]any{"ruleset": rs.Name(), "rules": rs.Len()})
}

func runRulesList(cmd *cobra.Command, opts *RulesOptions) error {
	f := opts.formatter(cmd)

	store, err := opts.openStore()
	if err != nil {
		return reportLoadError(f, err)
	}
	defer store.Close()

	names, err := store.Rulesets()
	if err != nil {
		_ = f.Error(CLIError{Code: CodeIO, Message: err.Error()})
		return WrapExitError(ExitCommandError, "list", err)
	}

	listing := make(map[string][]string, len(names))
	var text strings.Builder
	for _, name := range names {
		rules, err := store.List(name)
		if err != nil && !errors.Is(err, rulestore.ErrNotFound) {
			_ = f.Error(CLIError{Code: CodeIO, Message: err.Error()})
			return WrapExitError(ExitCommandError, "list", err)
		}
		fmt.Fprintf(&text, "%s\n", name)
		for _, r := range rules {
			listing[name] = append(listing[name], r.Name)
			fmt.Fprintf(&text, "  %d. %s: %s\n", r.Position, r.Name, r.Expression)
		}
	}
	if len(names) == 0 {
		text.WriteString("no rule sets\n")
	}
	return f.Success(strings.TrimRight(text.String(), "\n"), listing)
}
