package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/rolemesh/config"
	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/metrics"
	"github.com/hupe1980/rolemesh/runner"
	"github.com/hupe1980/rolemesh/society"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// cli carries state shared by the subcommands.
type cli struct {
	v       *viper.Viper
	cfgFile string

	cfg     *config.Config
	logger  *logging.RoleMeshLogger
	metrics *metrics.Server
	runner  *runner.Runner
}

func newRootCommand() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:           "rolemesh",
		Short:         "Two-agent restaurant research over MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.close(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (default ./rolemesh.yaml or $HOME/.rolemesh/rolemesh.yaml)")
	flags.StringP("provider", "p", "", "model provider: openai, anthropic or gemini")
	flags.String("director-model", "", "model used by the director")
	flags.String("executor-model", "", "model used by the executor")
	flags.String("output-language", "", "language of every agent reply")
	flags.String("mcp-config", "", "MCP servers JSON config (default: Google Maps server via npx)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.Bool("no-clarify", false, "skip the request clarifier")
	flags.BoolP("verbose", "v", false, "print the dialogue transcript and debug logs")

	for key, flag := range map[string]string{
		"provider":        "provider",
		"director_model":  "director-model",
		"executor_model":  "executor-model",
		"output_language": "output-language",
		"mcp_config_path": "mcp-config",
		"metrics_addr":    "metrics-addr",
		"verbose":         "verbose",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newRunCommand(c))
	root.AddCommand(newBatchCommand(c))

	return root
}

// setup loads configuration and builds the runner. out receives the
// transcript in verbose mode.
func (c *cli) setup(cmd *cobra.Command, out io.Writer) error {
	if err := config.ReadFile(c.v, c.cfgFile); err != nil {
		return err
	}
	if noClarify, _ := cmd.Flags().GetBool("no-clarify"); noClarify {
		c.v.Set("clarify", false)
	}

	cfg, err := config.Decode(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if c.logger, err = cfg.Logger(cmd.ErrOrStderr()); err != nil {
		return err
	}

	provider, err := toolProvider(cfg, c.logger)
	if err != nil {
		return err
	}

	observers := society.MultiObserver{society.NewLogObserver(c.logger)}
	if cfg.Verbose {
		observers = append(observers, newTranscript(out))
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, metrics.MustNewMetrics(reg))
		if c.metrics, err = metrics.Serve(cfg.MetricsAddr, reg, c.logger); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	c.runner = runner.New(modelFactory(cmd.Context(), cfg), provider, func(o *runner.Options) {
		o.RoundLimit = cfg.RoundLimit
		o.BatchRoundLimit = cfg.BatchRoundLimit
		o.Concurrency = cfg.Concurrency
		o.Clarify = cfg.Clarify
		o.OutputLanguage = cfg.OutputLanguage
		o.Sentinels = cfg.Sentinels
		o.MemoryWindow = cfg.MemoryWindow
		o.MaxToolIterations = cfg.MaxToolIterations
		o.Observer = observers
		o.Logger = c.logger
	})

	return nil
}

func (c *cli) close(ctx context.Context) error {
	if c.metrics == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	return c.metrics.Shutdown(ctx)
}

func printUsage(w io.Writer, u core.TokenUsage) {
	fmt.Fprintf(w, "%s prompt=%d completion=%d total=%d\n", gray("tokens:"), u.PromptTokens, u.CompletionTokens, u.TotalTokens())
}
