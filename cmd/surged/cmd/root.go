package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the surged command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "surged",
		Short:         "Surge exchange daemon",
		Long:          "Surge exchange daemon hosting the off-chain services of the AMM.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		NewPriceFeedCmd(),
	)

	return rootCmd
}
