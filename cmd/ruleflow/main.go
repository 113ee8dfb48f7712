// Command ruleflow validates and evaluates predicate rules from the shell.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/randalmurphal/ruleflow/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		os.Exit(cli.ExitSuccess)
	}

	// Commands print their own failures; anything else came from cobra
	// (unknown flag, wrong arg count).
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(cli.GetExitCode(err))
}
