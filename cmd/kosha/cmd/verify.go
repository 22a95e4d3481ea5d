package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/kosha"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every record in a kosha decodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runEnvFrom(cmd)
		if err != nil {
			return err
		}
		workers, _ := cmd.Flags().GetInt("workers")

		k, err := kosha.Open(rt.cfg.DataDir, kosha.WithLogger(rt.logger))
		if err != nil {
			return err
		}
		defer k.Close()

		if err := k.Verify(cmd.Context(), workers); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d keys, %d records\n", k.Len(), k.Records())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().IntP("workers", "w", runtime.NumCPU(), "Number of parallel workers")
}
