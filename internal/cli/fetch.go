package cli

import (
	"github.com/spf13/cobra"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	SchemaPath string
	RecordPath string
}

// FetchResult is the JSON payload of fetch.
type FetchResult struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Print the value at an attribute path",
		Example: `  ruleflow fetch 'items[0].sku' --schema order.yaml --record order.json
  ruleflow fetch 'prices["eu"]' --schema order.yaml --record order.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.SchemaPath, "schema", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.RecordPath, "record", "", "record file (YAML or JSON)")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *FetchOptions, path string) error {
	f := opts.formatter(cmd)

	s, err := loadSchema(opts.defaultPath(opts.SchemaPath, "schema"))
	if err != nil {
		return reportLoadError(f, err)
	}
	rec, err := loadRecord(opts.defaultPath(opts.RecordPath, "record"), s)
	if err != nil {
		return reportLoadError(f, err)
	}

	v, err := opts.engine(cmd).FetchAttributeValue(path, rec)
	if err != nil {
		_ = f.Error(engineError(err))
		return WrapExitError(ExitFailure, "fetch", err)
	}
	return f.Success(v.String(), FetchResult{Path: path, Type: v.Type().String(), Value: v.Interface()})
}
