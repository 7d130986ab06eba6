package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lbdudc/mcp-fm-analyzer/internal/config"
	"github.com/lbdudc/mcp-fm-analyzer/internal/engine"
	"github.com/lbdudc/mcp-fm-analyzer/internal/engine/flamapy"
	"github.com/lbdudc/mcp-fm-analyzer/internal/logger"
	"github.com/lbdudc/mcp-fm-analyzer/internal/mcp"
	"github.com/lbdudc/mcp-fm-analyzer/internal/tools"
	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
	"github.com/lbdudc/mcp-fm-analyzer/pkg/version"
)

// EngineFactory builds the analysis engine from the loaded configuration.
type EngineFactory func(cfg *config.Config, log *slog.Logger) engine.Engine

func defaultEngineFactory(cfg *config.Config, log *slog.Logger) engine.Engine {
	eng := flamapy.New(cfg.Engine, log)
	if err := eng.CheckInstalled(); err != nil {
		log.Warn("analysis engine unavailable, tool calls will fail", "error", err)
	}
	return eng
}

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
	python     string
	disabled   []string

	stdin     io.ReadCloser
	stdout    io.WriteCloser
	newEngine EngineFactory
}

func main() {
	opts := &options{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		newEngine: defaultEngineFactory,
	}
	if err := newRootCmd(opts).Execute(); err != nil {
		slog.Error("fm-analyzer failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "fm-analyzer",
		Short:         "Feature-model (UVL) analysis tools over MCP stdio",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "write informational logs to stderr")
	flags.StringVar(&opts.python, "python", "", "Python interpreter with flamapy installed")
	flags.StringArrayVar(&opts.disabled, "disable", nil, "glob pattern of tool names to leave out (repeatable)")

	root.AddCommand(newToolsCmd(opts), newCallCmd(opts))
	return root
}

func newToolsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			registry, err := tools.NewDefaultRegistry(cfg.Tools.Disabled)
			if err != nil {
				return err
			}

			text, err := tools.FormatJSON(registry.Descriptors())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newCallCmd(opts *options) *cobra.Command {
	var modelPath, configFile string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one analysis on a model file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(modelPath)
			if err != nil {
				return fmt.Errorf("failed to read model: %w", err)
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			dispatcher, err := newDispatcher(cfg, opts)
			if err != nil {
				return err
			}

			callArgs := map[string]string{"content": string(content)}
			if cmd.Flags().Changed("config-file") {
				callArgs["configFile"] = configFile
			}
			raw, err := json.Marshal(callArgs)
			if err != nil {
				return err
			}

			res, err := dispatcher.Call(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			for _, block := range res.Content {
				fmt.Fprintln(cmd.OutOrStdout(), block.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "UVL model file")
	cmd.Flags().StringVarP(&configFile, "config-file", "c", "", "configuration file passed to the operation")
	cmd.MarkFlagRequired("model")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	dispatcher, err := newDispatcher(cfg, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.ForComponent("mcp")
	log.Info("UVL analyzer serving MCP on stdio",
		"version", version.Version,
		"tools", len(dispatcher.Registry().Names()))

	server := mcp.NewServer(dispatcher, log)
	err = server.Serve(ctx, &protocol.StdioConn{Reader: opts.stdin, Writer: opts.stdout})
	if errors.Is(err, context.Canceled) {
		log.Info("shutting down")
		return nil
	}
	return err
}

// loadConfig reads the config file, applies flags that were set explicitly
// and installs the process logger.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("verbose") {
		cfg.Log.Verbose = opts.verbose
	}
	if flags.Changed("python") {
		cfg.Engine.Python = opts.python
	}
	cfg.Tools.Disabled = append(cfg.Tools.Disabled, opts.disabled...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logger())
	return cfg, nil
}

func newDispatcher(cfg *config.Config, opts *options) (*tools.Dispatcher, error) {
	registry, err := tools.NewDefaultRegistry(cfg.Tools.Disabled)
	if err != nil {
		return nil, err
	}

	eng := opts.newEngine(cfg, logger.ForComponent("flamapy"))
	return tools.NewDispatcher(registry, eng, logger.ForComponent("tools")), nil
}
