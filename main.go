package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the bienesraices command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bienesraices",
		Short:        "Real-estate listings with accounts, owned listings and buyer messages",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSeedCmd())
	return root
}
