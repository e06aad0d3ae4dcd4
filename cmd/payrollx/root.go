package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/payrollx/internal/core"
	"github.com/JonMunkholm/payrollx/internal/logging"
	"github.com/spf13/cobra"
)

var errNoRows = errors.New("no employee rows could be extracted")

type extractOptions struct {
	output     string
	format     string
	failedPath string
	aliases    string
	minFields  int
	grossFloor float64
	headerRows int
	workers    int
	pretty     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "payrollx",
		Short:        "Normalize payroll spreadsheets into employee records",
		SilenceUsage: true,
	}
	root.AddCommand(newExtractCmd(), newFieldsCmd())
	return root
}

func newExtractCmd() *cobra.Command {
	opts := extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract employee records from a .csv, .tsv, .txt or .xlsx file",
		Long: `extract reads a payroll file, locates its header (or falls back to
pattern recognition when there is none) and writes normalized employee
records. A summary and every failed row's reason go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout; xlsx defaults to <name>_normalized.xlsx)")
	f.StringVarP(&opts.format, "format", "f", "json", "Output format: json, csv, xlsx")
	f.StringVar(&opts.failedPath, "failed", "", "Also write failed rows as CSV to this path")
	f.StringVar(&opts.aliases, "aliases", "", "YAML file of alias overrides")
	f.IntVar(&opts.minFields, "min-fields", core.DefaultMinFields, "Fewest mapped fields that make an employee row")
	f.Float64Var(&opts.grossFloor, "gross-floor", core.DefaultGrossPayFloor, "Amount a recognized gross pay must exceed")
	f.IntVar(&opts.headerRows, "header-rows", core.DefaultHeaderSearchRows, "Leading rows searched for a header")
	f.IntVar(&opts.workers, "workers", 0, "Parallel row workers (default: GOMAXPROCS)")
	f.BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline events to stderr")

	return cmd
}

func runExtract(cmd *cobra.Command, path string, opts extractOptions) error {
	format := strings.ToLower(opts.format)
	if format != "json" && format != "csv" && format != "xlsx" {
		return fmt.Errorf("unknown export format %q (must be json, csv or xlsx)", opts.format)
	}
	if opts.minFields <= 0 || opts.grossFloor <= 0 || opts.headerRows <= 0 {
		return errors.New("--min-fields, --gross-floor and --header-rows must be positive")
	}

	fields, err := core.LoadFieldSet(opts.aliases)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.New(cmd.ErrOrStderr(), level, "text").With("file", filepath.Base(path))

	pipeOpts := core.Options{
		Fields:           fields,
		MinFields:        opts.minFields,
		GrossPayFloor:    opts.grossFloor,
		HeaderSearchRows: opts.headerRows,
		Workers:          opts.workers,
		Sink:             core.SlogSink(logger),
	}
	result, err := core.Extract(cmd.Context(), filepath.Base(path), data, pipeOpts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case "json":
		enc := json.NewEncoder(&buf)
		if opts.pretty {
			enc.SetIndent("", "  ")
		}
		err = enc.Encode(result)
	case "csv":
		err = core.WriteCSV(&buf, fields, result.Rows)
	case "xlsx":
		err = core.WriteWorkbook(&buf, fields, result.Rows)
		if opts.output == "" {
			opts.output = filepath.Join(filepath.Dir(path), core.OutputFilename(path, core.DefaultOutputSuffix, ".xlsx"))
		}
	}
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), opts.output, buf.Bytes()); err != nil {
		return err
	}

	if opts.failedPath != "" {
		var failed bytes.Buffer
		if err := core.WriteFailedCSV(&failed, result.Failed); err != nil {
			return err
		}
		if err := os.WriteFile(opts.failedPath, failed.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write failed rows: %w", err)
		}
	}

	printSummary(cmd.ErrOrStderr(), result)
	if result.Empty() {
		return errNoRows
	}
	return nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, r *core.ExtractionResult) {
	fmt.Fprintf(w, "%s: %d accepted, %d failed, %d dropped of %d rows",
		r.Stage, len(r.Rows), len(r.Failed), r.Dropped, r.InputRows)
	if r.HeaderLine > 0 {
		fmt.Fprintf(w, " (header on line %d)", r.HeaderLine)
	}
	fmt.Fprintln(w)
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  line %d: %s\n", f.Line, f.Reason)
	}
}

func newFieldsCmd() *cobra.Command {
	var aliases string
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the canonical fields and the headers recognized for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := core.LoadFieldSet(aliases)
			if err != nil {
				return err
			}
			if asYAML {
				return core.WriteFieldOverrides(cmd.OutOrStdout(), fields.Overrides())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tHEADER\tALIASES")
			for _, f := range fields.Fields() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Header, strings.Join(f.Aliases, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&aliases, "aliases", "", "YAML file of alias overrides")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as an alias override file")
	return cmd
}
