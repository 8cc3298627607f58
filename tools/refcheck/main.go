package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/citations"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/validator"
)

const (
	exitOK                  = 0
	exitError               = 1
	exitUsage               = 2
	exitNoWorkingReferences = 3
)

type output struct {
	SectionID  string                 `json:"section_id,omitempty"`
	Sector     string                 `json:"sector,omitempty"`
	Policy     references.Policy      `json:"policy"`
	Outcome    references.Outcome     `json:"outcome"`
	Candidates int                    `json:"candidates"`
	References []references.Reference `json:"references"`
	Rejections []references.Rejection `json:"rejections,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("refcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "Path to the section text (reads stdin when empty or -)")
	citationsPath := fs.String("citations", "", "Optional JSON array of citations (strings or {url,title,snippet})")
	sector := fs.String("sector", "", "Sector used for fallback defaults (defense, pharma, energy)")
	policy := fs.String("policy", "strict", "Acceptance policy: strict or fallback")
	section := fs.String("section", "", "Section ID reported in the output")
	registryPath := fs.String("registry", "", "Optional YAML source registry")
	defaultsPath := fs.String("defaults", "", "Optional YAML sector defaults")
	timeout := fs.Duration("timeout", validator.DefaultTimeout, "Per-URL validation timeout")
	verbose := fs.Bool("v", false, "Log validation details to stderr")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	p, err := references.ParsePolicy(*policy)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger := zap.NewNop()
	if *verbose {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.OutputPaths = []string{"stderr"}
		if l, err := zcfg.Build(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	content, err := readContent(*file, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	var raw []citations.RawCitation
	if *citationsPath != "" {
		data, err := os.ReadFile(*citationsPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			fmt.Fprintf(stderr, "parse citations %s: %v\n", *citationsPath, err)
			return exitError
		}
	}

	registry, err := sources.LoadRegistry(*registryPath, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defaults, err := references.LoadSectorDefaults(*defaultsPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	assembler, err := references.NewAssembler(registry,
		validator.New(logger, validator.WithTimeout(*timeout)),
		references.Config{Policy: p, Defaults: defaults},
		logger,
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	start := time.Now()
	report, err := assembler.AssembleReport(ctx, references.Section{
		ID:        *section,
		Sector:    *sector,
		Content:   content,
		Citations: raw,
	})
	if report == nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	logger.Debug("Assembly finished", zap.Duration("duration", time.Since(start)))

	out := output{
		SectionID:  report.SectionID,
		Sector:     report.Sector,
		Policy:     report.Policy,
		Outcome:    report.Outcome,
		Candidates: report.Candidates,
		References: report.References,
		Rejections: report.Rejections,
	}
	if out.References == nil {
		out.References = []references.Reference{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		fmt.Fprintln(stderr, encErr)
		return exitError
	}

	if errors.Is(err, references.ErrNoWorkingReferences) {
		fmt.Fprintln(stderr, err)
		return exitNoWorkingReferences
	}
	return exitOK
}

func readContent(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
