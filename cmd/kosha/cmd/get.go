package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/kosha"
	"github.com/ssargent/koshadb/pkg/semantics"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the readings of a word",
	Long: `Print every reading stored under a word, one per line.

Example:
  kosha get gacCati
  kosha get gacCati --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runEnvFrom(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		k, err := kosha.Open(rt.cfg.DataDir, kosha.WithLogger(rt.logger))
		if err != nil {
			return err
		}
		defer k.Close()

		return printReadings(cmd.OutOrStdout(), rt.logger, k, args[0], asJSON)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("json", false, "Print readings as JSON lines")
}

func printReadings(out io.Writer, logger logrus.FieldLogger, k *kosha.Kosha, key string, asJSON bool) error {
	if !k.ContainsKey(key) {
		return fmt.Errorf("key not found: %s", key)
	}

	padas, err := k.GetAllPadas(key)
	if err != nil {
		logger.WithError(err).Warn("some readings could not be decoded")
	}

	for _, p := range padas {
		if !asJSON {
			fmt.Fprintln(out, p)
			continue
		}
		data, err := json.Marshal(semantics.PadaJSON(p))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}
	return nil
}
