package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"settlecli/internal/config"
	apperrors "settlecli/internal/errors"
	"settlecli/internal/exporter"
	"settlecli/internal/infrastructure"
	"settlecli/internal/validation"
	"settlecli/pkg/contracts"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	inputs       []string
	placement    string
	denomination string
	fieldsFile   string
	sheet        string
	outDir       string
	report       string
	configPath   string
	dryRun       bool
	version      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	var in string

	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&in, "in", "", "input workbook(s) or directories, comma separated (.xlsx, .xls)")
	fs.StringVar(&opts.placement, "placement", "", "placement code written in the first column")
	fs.StringVar(&opts.denomination, "denomination", "", "instrument denomination; also names the output file (default: sheet name)")
	fs.StringVar(&opts.fieldsFile, "fields", "", "YAML file mapping sheet names to {placement, denomination}")
	fs.StringVar(&opts.sheet, "sheet", "", "only process the sheet with this name")
	fs.StringVar(&opts.outDir, "out", "", "output directory (defaults to export.output_dir)")
	fs.StringVar(&opts.report, "report", "", "write an .xlsx summary of every processed sheet to this path")
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print sheet summaries without writing any file")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: settle -in FILE[,FILE...] [-placement CODE -denomination NAME] [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, part := range strings.Split(in, ",") {
		if part = strings.TrimSpace(part); part != "" {
			opts.inputs = append(opts.inputs, part)
		}
	}
	opts.inputs = append(opts.inputs, fs.Args()...)

	if !opts.version && len(opts.inputs) == 0 {
		fs.Usage()
		return nil, errors.New("at least one input workbook is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "settle: %v\n", err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "settle: %v\n", err)
		return exitUsage
	}
	if opts.outDir != "" {
		cfg.Export.OutputDir = opts.outDir
	}

	logger, err := infrastructure.InitializeLoggerTo(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "settle: failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer infrastructure.CloseLogFile()
	ctx = infrastructure.EnsureTraceID(ctx)

	fields := fieldsTable{fallback: sheetFields{Placement: opts.placement, Denomination: opts.denomination}}
	if opts.fieldsFile != "" {
		if fields.sheets, err = loadFieldsFile(opts.fieldsFile); err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Invalid fields file")
			return exitUsage
		}
	}

	validator := validation.NewFileValidator(logger)
	paths, err := validator.ExpandInputs(opts.inputs)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Failed to resolve inputs")
		return exitUsage
	}
	if len(paths) == 0 {
		logger.ErrorContext(ctx, "No workbooks to process")
		return exitUsage
	}

	if !opts.dryRun {
		if err := validator.ValidateOutputDirectory(cfg.Export.OutputDir); err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Output directory unusable")
			return exitFailure
		}
	}

	logger.InfoContext(ctx, "Starting conversion",
		slog.Int("files", len(paths)),
		slog.String("output_dir", cfg.Export.OutputDir),
		slog.Bool("dry_run", opts.dryRun))

	conv := &converter{
		fields:    fields,
		sheet:     opts.sheet,
		outDir:    cfg.Export.OutputDir,
		dryRun:    opts.dryRun,
		writer:    exporter.NewTextWriter(cfg.Export),
		validator: validator,
		logger:    logger,
		claimed:   make(map[string]string),
	}
	results := conv.convertAll(ctx, paths)

	code := exitOK
	var reports []exporter.SheetReport
	for _, res := range results {
		printResult(stdout, res)
		reports = append(reports, res.Sheets...)
		if res.Err != nil {
			infrastructure.WithError(logger, res.Err).ErrorContext(ctx, "File failed",
				slog.String("file", res.Path))
			code = exitFailure
		}
	}

	if opts.report != "" {
		if err := exporter.WriteSummaryWorkbook(opts.report, reports); err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Failed to write summary report")
			code = exitFailure
		} else {
			logger.InfoContext(ctx, "Summary report written", slog.String("path", opts.report))
		}
	}

	return code
}

func loadConfig(path string) (*config.Config, error) {
	load := config.Load
	if path != "" {
		load = func() (*config.Config, error) { return config.LoadFrom(path) }
	}
	cfg, err := load()
	if err != nil {
		return nil, apperrors.NewConfigError("load configuration", err)
	}
	return cfg, nil
}

// printResult writes one line per sheet: file, sheet, rows, unique
// identifiers, total and the output path (or why there is none).
func printResult(w io.Writer, res fileResult) {
	if len(res.Sheets) == 0 && res.Err != nil {
		fmt.Fprintf(w, "%s\tERROR\t%v\n", res.Path, res.Err)
		return
	}
	for _, s := range res.Sheets {
		output := s.Output
		if !s.Exported {
			output = "(not exported)"
			if s.Fields.Identifier == "" {
				output = "(no identifier column)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\trows=%d\tunique=%d\ttotal=%s\t%s\n",
			res.Path, s.Sheet,
			s.Summary.RowCount, s.Summary.UniqueIdentifierCount,
			exporter.FormatQuantity(s.Summary.TotalQuantity),
			output)
	}
	if len(res.Sheets) > 0 && res.Err != nil {
		fmt.Fprintf(w, "%s\tERROR\t%v\n", res.Path, res.Err)
	}
}
