package cmd

import (
	"fmt"
	"os"

	"ikonwatch/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// Exit codes: 0 graceful shutdown, 1 config or internal error, 2 login
// retry budget exhausted (operator intervention needed)
const (
	exitCodeError = 1
	exitCodeAuth  = 2
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ikonwatch",
		Short: "Watches Ikon Pass reservation availability and alerts by SMS when desired dates open up",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(newVersionCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newCheckCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.IsAuth(err) {
			os.Exit(exitCodeAuth)
		}
		os.Exit(exitCodeError)
	}
}
