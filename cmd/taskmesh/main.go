// Command taskmesh runs the partnership pipeline from the command line.
//
//	taskmesh run "<prompt>" [--model m] [--topic t] [--out path] [--config file]
//	taskmesh recall [--topic t] [--limit 5]
//	taskmesh ingest <path>
//	taskmesh export-pdf <md_path> <pdf_path>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/taskmesh"
	"github.com/hupe1980/taskmesh/config"
	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory/sqlite"
	"github.com/hupe1980/taskmesh/report"
	"github.com/hupe1980/taskmesh/tool/retrieval"
	"github.com/hupe1980/taskmesh/tracing"
)

const version = "0.1.0"

// LastReport is where run always writes the final Markdown report.
const LastReport = "last_report.md"

var errUsage = errors.New("usage: taskmesh <run|recall|ingest|export-pdf> [args]")

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "run":
		return runCmd(ctx, args[1:], stdout, stderr)
	case "recall":
		return recallCmd(ctx, args[1:], stdout, stderr)
	case "ingest":
		return ingestCmd(ctx, args[1:], stdout, stderr)
	case "export-pdf":
		return exportCmd(args[1:], stdout, stderr)
	case "version", "--version":
		fmt.Fprintf(stdout, "taskmesh %s\n", version)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

// parseInterspersed parses flags that may appear before or after the
// positional arguments and returns the positionals.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func newLogger(cfg config.Config, w io.Writer) (*logging.StructuredLogger, error) {
	level, err := logging.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    w,
		Component: "cli",
	}), nil
}

func runCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		modelName  = fs.String("model", "", "Override the model of the configured provider")
		topic      = fs.String("topic", "", "Topic the run summary is saved under")
		out        = fs.String("out", "", "Additional path for the Markdown report")
		configPath = fs.String("config", "", "Path to a YAML config file")
	)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	prompt := strings.TrimSpace(strings.Join(positional, " "))
	if prompt == "" {
		return fmt.Errorf("%w: run requires a prompt", errUsage)
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}
	if *modelName != "" {
		switch cfg.Provider {
		case config.ProviderAnthropic:
			cfg.Anthropic.Model = *modelName
		default:
			cfg.OpenAI.Model = *modelName
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	if cfg.Trace.Enabled {
		if err := tracing.Init("taskmesh", version, cfg.Trace.Output); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() { _ = tracing.Shutdown(context.Background()) }()
	}

	tm, closeLog, err := taskmesh.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	logger.Info("run.start", "model", cfg.Model(), "web_search", cfg.WebSearchEnabled())
	done := logger.StartTimer("run")
	res, err := tm.Run(ctx, prompt, *topic)
	done()
	if err != nil {
		return err
	}

	if err := os.WriteFile(LastReport, []byte(res.Output), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if *out != "" {
		if err := os.WriteFile(*out, []byte(res.Output), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	fmt.Fprintln(stdout, "=== FINAL REPORT ===")
	fmt.Fprintln(stdout, res.Output)
	if res.Review != nil && res.Review.Exhausted {
		fmt.Fprintf(stderr, "warning: QA pass stopped after %d edits without approval\n", res.Review.Edits())
	}
	return nil
}

func recallCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("recall", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		topic      = fs.String("topic", "", "Only list summaries of this topic")
		limit      = fs.Int("limit", taskmesh.DefaultRecallLimit, "Maximum number of summaries")
		configPath = fs.String("config", "", "Path to a YAML config file")
	)
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}

	log, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	records, err := log.Recall(ctx, *topic, *limit)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(stdout, "%d | topic=%s | %s...\n", r.ID, r.Topic, util.Truncate(r.Content, 80))
	}
	return nil
}

func ingestCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML config file")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: ingest requires exactly one path", errUsage)
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}

	dst, err := retrieval.Ingest(ctx, positional[0], cfg.KnowledgeDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Ingested %s\n", dst)
	return nil
}

func exportCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export-pdf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("%w: export-pdf requires <md_path> <pdf_path>", errUsage)
	}

	if err := report.ExportPDF(positional[0], positional[1]); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported PDF to %s\n", positional[1])
	return nil
}
