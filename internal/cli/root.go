// Package cli implements the contentlens command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zombar/contentlens/internal/config"
	"github.com/zombar/contentlens/internal/content"
	"github.com/zombar/contentlens/internal/extract"
	"github.com/zombar/contentlens/internal/provider"
	"github.com/zombar/contentlens/internal/scoring"
	"github.com/zombar/contentlens/pkg/logging"
)

var version = "0.1.0"

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// options holds the global flags
type options struct {
	contentType string
	format      string
	configPath  string
	heuristic   bool
	verbose     bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "contentlens",
		Short: "Score the hook, structure and emotional pull of your writing",
		Long: `contentlens scores social posts and articles for hook strength,
structure and emotional triggers, and reports readability and tone.

It uses the configured AI provider when one is available and falls back
to the built-in heuristic engine otherwise.

Examples:
  contentlens analyze post.txt
  cat draft.md | contentlens analyze --type long-form
  contentlens compare v1.txt v2.txt --format json
  contentlens fetch https://example.substack.com/p/post --analyze`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch o.format {
			case formatText, formatJSON, formatYAML:
				return nil
			default:
				return fmt.Errorf("unsupported format %q (text, json, yaml)", o.format)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.contentType, "type", "t", content.AutoDetect, "Content type: auto, short-form, long-form")
	flags.StringVarP(&o.format, "format", "f", formatText, "Output format: text, json, yaml")
	flags.StringVar(&o.configPath, "config", "", "TOML config file (env: CONTENTLENS_CONFIG)")
	flags.BoolVar(&o.heuristic, "heuristic", false, "Skip AI providers and use the heuristic engine only")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log provider activity to stderr")

	root.AddCommand(
		newAnalyzeCmd(o),
		newCompareCmd(o),
		newReadabilityCmd(o),
		newToneCmd(o),
		newRewriteCmd(o),
		newFetchCmd(o),
		newWatchCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("contentlens version %s\n", version)
		},
	}
}

// logger writes to stderr, quietly unless --verbose
func (o *options) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return logging.NewText(stderr, level)
}

// newService resolves configuration and builds the scoring service
func (o *options) newService(ctx context.Context, stderr io.Writer) (*scoring.Service, *config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := o.logger(stderr)

	var p provider.Provider
	if !o.heuristic {
		p, err = provider.FromConfig(ctx, cfg.Provider)
		if err != nil {
			logger.Warn("AI provider unavailable, using heuristic analysis", "error", err)
			p = nil
		}
	}

	svc, err := scoring.New(p, scoring.Options{
		MaxContentLength:  cfg.MaxContentLength,
		ProviderTimeout:   cfg.ProviderTimeout,
		ProviderRateLimit: cfg.ProviderRateLimit,
		CacheSize:         cfg.CacheSize,
	}, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

// readInput reads a file argument, or stdin when the argument is "-" or absent
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return extract.ReadFile(args[0])
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
