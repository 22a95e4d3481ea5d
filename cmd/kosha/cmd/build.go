package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/codec"
	"github.com/ssargent/koshadb/pkg/config"
	"github.com/ssargent/koshadb/pkg/kosha"
	"github.com/ssargent/koshadb/pkg/semantics"
	"github.com/ssargent/koshadb/pkg/staging"
)

const maxLineSize = 1 << 20

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a kosha from JSON lines",
	Long: `Build a kosha in the data directory from JSON lines of the form

  {"key":"gacCati","pada":{"pos":"tinanta","dhatu":"gam","purusha":"prathama","vacana":"eka","lakara":"lat","pada_prayoga":"parasmaipada"}}

Input must be sorted by key unless --sort is given, in which case it is
staged on disk and sorted first.

Examples:
  kosha build --input padas.jsonl
  kosha build --input - --sort < unsorted.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runEnvFrom(cmd)
		if err != nil {
			return err
		}
		input, _ := cmd.Flags().GetString("input")
		sorted, _ := cmd.Flags().GetBool("sort")

		var r io.Reader = cmd.InOrStdin()
		if input != "-" {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			r = f
		}

		stats, err := buildKosha(rt.cfg, rt.logger, r, sorted)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Built kosha in %s: %d keys, %d records\n",
			rt.cfg.DataDir, stats.keys, stats.records)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("input", "i", "-", "JSON lines input file, - for stdin")
	buildCmd.Flags().Bool("sort", false, "Sort input on disk before building")
}

type inputLine struct {
	Key  string          `json:"key"`
	Pada json.RawMessage `json:"pada"`
}

type buildStats struct {
	keys    int
	records uint64
}

// buildKosha writes a new kosha to cfg.DataDir from JSON lines. On any
// error the partial build is removed.
func buildKosha(cfg *config.Config, logger logrus.FieldLogger, r io.Reader, sorted bool) (buildStats, error) {
	compression, err := kosha.ParseCompression(cfg.Build.IndexCompression)
	if err != nil {
		return buildStats{}, err
	}

	b, err := kosha.NewBuilder(cfg.DataDir,
		kosha.WithLogger(logger),
		kosha.WithBufferSize(cfg.Build.BufferSize),
		kosha.WithCompression(compression),
	)
	if err != nil {
		return buildStats{}, err
	}

	if sorted {
		err = stageAndInsert(cfg.Build.StagingDir, r, b)
	} else {
		err = readLines(r, func(key string, p semantics.Pada) error {
			return b.Insert(key, p)
		})
	}
	if err != nil {
		if aerr := b.Abort(); aerr != nil {
			err = multierror.Append(err, aerr)
		}
		return buildStats{}, err
	}

	stats := buildStats{keys: b.Len(), records: b.Records()}
	if err := b.Finish(); err != nil {
		return buildStats{}, err
	}
	return stats, nil
}

func stageAndInsert(stagingDir string, r io.Reader, b *kosha.Builder) (err error) {
	sorter, err := staging.NewSorter(stagingDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sorter.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = readLines(r, func(key string, p semantics.Pada) error {
		return sorter.Add(key, codec.Encode(p))
	})
	if err != nil {
		return err
	}
	return sorter.Drain(b.InsertPacked)
}

// readLines parses JSON lines and calls fn for each entry. Blank lines are
// skipped.
func readLines(r io.Reader, fn func(key string, p semantics.Pada) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var in inputLine
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		p, err := semantics.UnmarshalPada(in.Pada)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(in.Key, p); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
