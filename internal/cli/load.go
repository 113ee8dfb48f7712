package cli

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow"
	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/record"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// readDocument decodes a YAML or JSON file into a map. JSON is read by the
// YAML decoder.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode %s: empty document", path)
	}
	return doc, nil
}

func loadSchema(path string) (*types.Schema, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no schema given: use --schema or defaults.schema in the config")
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load schema", err)
	}
	s, err := types.ParseSchema(doc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load schema", err)
	}
	return s, nil
}

func loadRecord(path string, s *types.Schema) (*record.Map, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no record given: use --record or defaults.record in the config")
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load record", err)
	}
	rec, err := record.Decode(s, doc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load record", err)
	}
	return rec, nil
}

// engineError converts a ruleflow error to its CLI form.
func engineError(err error) CLIError {
	out := CLIError{Code: string(ruleflow.CodeOf(err)), Message: err.Error()}
	var rfErr *rferrors.Error
	if errors.As(err, &rfErr) {
		out.Message = rfErr.Message
		if rfErr.Position >= 0 {
			pos := rfErr.Position
			out.Position = &pos
		}
		if rfErr.Token != "" {
			out.Details = map[string]string{"token": rfErr.Token}
		}
	}
	return out
}

// reportLoadError prints a load failure and passes it through so the command
// exits with its code.
func reportLoadError(f *OutputFormatter, err error) error {
	code := CodeBadInput
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err != nil && errors.Is(exitErr.Err, os.ErrNotExist) {
		code = CodeIO
	}
	_ = f.Error(CLIError{Code: code, Message: err.Error()})
	return err
}
