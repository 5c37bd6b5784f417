package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ctxvitals/ctxvitals/pkg/assess"
	"github.com/ctxvitals/ctxvitals/pkg/config"
	"github.com/ctxvitals/ctxvitals/pkg/logger"
	"github.com/ctxvitals/ctxvitals/pkg/profile"
	"github.com/ctxvitals/ctxvitals/pkg/report"
	"github.com/ctxvitals/ctxvitals/pkg/resolver"
	"github.com/ctxvitals/ctxvitals/pkg/server"
	"github.com/ctxvitals/ctxvitals/pkg/store"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var (
		showVersion bool
		configPath  string
	)

	root := &cobra.Command{
		Use:   "ctxvitals",
		Short: "Context-window health estimation for AI agent sessions",
		Long: strings.TrimSpace(`ctxvitals estimates how degraded an agent's context window is from coarse
signals (token count, model, session duration, tool calls) and suggests
remediation actions.

Run it as an MCP stdio server with "serve", or one-shot from the CLI with
"check".`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.ctxvitals/config.json)")

	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newCheckCommand(&configPath))
	root.AddCommand(newHistoryCommand(&configPath))
	root.AddCommand(newModelsCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func loadConfig(configPath string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Run the MCP stdio server",
		Example: "  ctxvitals serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			s, cleanup, err := server.New(cfg, version)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.InfoC("main", "Serving MCP over stdio")
			return server.ServeStdio(s)
		},
	}
}

func newCheckCommand(configPath *string) *cobra.Command {
	var (
		tokens      int
		model       string
		minutes     int
		toolCalls   int
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a one-shot context-health assessment",
		Example: strings.Join([]string{
			"  ctxvitals check --tokens 120000 --model claude-opus-4",
			"  ctxvitals check --tokens 90000 --model gpt-4o --minutes 50 --tool-calls 22",
			"  ctxvitals check -i",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			res, closeStore := buildResolver(cfg)
			defer closeStore()

			if interactive {
				return runInteractive(cmd.Context(), cmd.OutOrStdout(), res)
			}

			in := assess.Input{
				TokenCount:             tokens,
				Model:                  model,
				SessionDurationMinutes: minutes,
				ToolCallsCount:         toolCalls,
			}
			if err := report.ValidateInput(in); err != nil {
				return err
			}
			return printReport(cmd.Context(), cmd.OutOrStdout(), res, in)
		},
	}

	cmd.Flags().IntVarP(&tokens, "tokens", "t", 0, "Current context token count")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model identifier")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Session duration in minutes")
	cmd.Flags().IntVar(&toolCalls, "tool-calls", 0, "Tool calls made so far")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Interactive prompt: <tokens> <model> [minutes] [tool-calls]")

	return cmd
}

// buildResolver wires the resolver with the configured cache when storage is
// available. The returned func closes the store and is always safe to call.
func buildResolver(cfg *config.Config) (*resolver.Resolver, func()) {
	closeStore := func() {}

	var cache resolver.Cache
	if path := cfg.StoragePath(); path != "" {
		st, err := store.NewSQLiteStore(path)
		if err != nil {
			logger.WarnCF("main", "Storage unavailable, resolving without cache",
				map[string]interface{}{"path": path, "error": err.Error()})
		} else {
			cache = st
			closeStore = func() { _ = st.Close() }
		}
	}

	return resolver.New(cache, cfg.Resolver.Endpoint), closeStore
}

func printReport(ctx context.Context, out io.Writer, res *resolver.Resolver, in assess.Input) error {
	rep := report.Build(ctx, res, in)
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// runInteractive reads "<tokens> <model> [minutes] [tool-calls]" lines and
// prints a report per line until EOF or "exit".
func runInteractive(ctx context.Context, out io.Writer, res *resolver.Resolver) error {
	rl, err := readline.New("ctxvitals> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(out, "Enter: <tokens> <model> [minutes] [tool-calls]  (\"exit\" to quit)")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		in, err := parseCheckLine(line)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		if err := printReport(ctx, out, res, in); err != nil {
			fmt.Fprintf(out, "  %v\n", err)
		}
	}
}

func parseCheckLine(line string) (assess.Input, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return assess.Input{}, fmt.Errorf("usage: <tokens> <model> [minutes] [tool-calls]")
	}

	tokens, err := strconv.Atoi(fields[0])
	if err != nil {
		return assess.Input{}, fmt.Errorf("tokens %q is not a number", fields[0])
	}

	in := assess.Input{TokenCount: tokens, Model: fields[1]}
	if len(fields) > 2 {
		if in.SessionDurationMinutes, err = strconv.Atoi(fields[2]); err != nil {
			return assess.Input{}, fmt.Errorf("minutes %q is not a number", fields[2])
		}
	}
	if len(fields) > 3 {
		if in.ToolCallsCount, err = strconv.Atoi(fields[3]); err != nil {
			return assess.Input{}, fmt.Errorf("tool-calls %q is not a number", fields[3])
		}
	}

	return in, report.ValidateInput(in)
}

func newHistoryCommand(configPath *string) *cobra.Command {
	var (
		model string
		limit int
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show recent recorded assessments",
		Example: "  ctxvitals history --model claude-opus-4 --limit 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			path := cfg.StoragePath()
			if path == "" {
				return fmt.Errorf("assessment history is disabled (no storage configured)")
			}

			st, err := store.NewSQLiteStore(path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			recs, err := st.ListAssessments(cmd.Context(), model, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded assessments.")
				return nil
			}
			for _, rec := range recs {
				ts := time.UnixMilli(rec.CreatedAtMS).Format(time.RFC3339)
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s score=%-3d tokens=%-8d %s\n",
					ts, rec.Status, rec.Score, rec.TokenCount, rec.Model)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Filter by model identifier")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show")

	return cmd
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Short:   "List curated model degradation profiles",
		Example: "  ctxvitals models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range profile.Curated() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s max=%-8d onset=%-8d danger=%-8d base_acc=%.2f\n",
					p.Name, p.MaxTokens, p.DegradationOnset, p.DangerZone, p.BaseRetrievalAccuracy)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build/version metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
