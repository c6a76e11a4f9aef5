package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmerritt/revdoc/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands render their own error output; only surface errors
		// that never reached a formatter (flag parse failures etc).
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
