package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/kosha"
)

// prefixCmd represents the prefix command
var prefixCmd = &cobra.Command{
	Use:   "prefix <prefix>",
	Short: "List words starting with a prefix",
	Long: `List the stored words that start with a prefix, in byte order.

Example:
  kosha prefix ram --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runEnvFrom(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		k, err := kosha.Open(rt.cfg.DataDir, kosha.WithLogger(rt.logger))
		if err != nil {
			return err
		}
		defer k.Close()

		for _, key := range k.KeysWithPrefix(args[0], limit) {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prefixCmd)
	prefixCmd.Flags().IntP("limit", "n", 100, "Maximum number of words, 0 for all")
}
