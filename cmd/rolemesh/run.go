package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rolemesh/prompts"
)

func newRunCommand(c *cli) *cobra.Command {
	var roundLimit int

	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Answer a single request",
		Long:  "Answer a single request. Without arguments the built-in Shibuya dinner request is used.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if roundLimit > 0 {
				c.v.Set("round_limit", roundLimit)
			}
			if err := c.setup(cmd, out); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			if query == "" {
				query = prompts.DefaultQuery
			}

			res, err := c.runner.Run(cmd.Context(), query)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, bold("Final Result:"))
			fmt.Fprintln(out, strings.Repeat("=", 50))
			fmt.Fprintln(out, res.Answer)
			fmt.Fprintln(out, strings.Repeat("=", 50))
			printUsage(out, res.Usage)

			return nil
		},
	}

	cmd.Flags().IntVarP(&roundLimit, "round-limit", "n", 0, "maximum dialogue rounds (default from config, 10)")

	return cmd
}
