package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/rolemesh/runner"
)

func newBatchCommand(c *cli) *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer every request of a file in parallel",
		Long:  "Answer every non-empty, non-comment line of --input with its own society and write the results as YAML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queries, err := readQueriesFile(input)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no queries in %s", input)
			}

			if err := c.setup(cmd, cmd.ErrOrStderr()); err != nil {
				return err
			}

			results, err := c.runner.RunBatch(cmd.Context(), queries)
			if err != nil {
				return err
			}

			if err := writeResults(cmd.OutOrStdout(), output, results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Failed() {
					failed++
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %d/%d queries succeeded\n", bold("Batch:"), len(results)-failed, len(results))

			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "file with one query per line")
	cmd.Flags().StringVarP(&output, "output", "o", "", "YAML results file (default stdout)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func readQueriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readQueries(f)
}

// readQueries returns trimmed lines, skipping blanks and # comments.
func readQueries(r io.Reader) ([]string, error) {
	var queries []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}

	return queries, sc.Err()
}

func writeResults(stdout io.Writer, path string, results []runner.BatchResult) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	return enc.Close()
}
