package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/tolino-notes/internal/config"
	"github.com/mrlokans/tolino-notes/internal/entities"
	"github.com/mrlokans/tolino-notes/internal/importers"
	"github.com/mrlokans/tolino-notes/internal/logging"
)

const (
	ReportText = "text"
	ReportJSON = "json"
	ReportYAML = "yaml"
)

// TolinoImportCommand imports notes.txt from a mounted Tolino reader into markdown files
type TolinoImportCommand struct {
	DriveDir     string
	OutputDir    string
	Tags         string
	DatabasePath string
	AuditDir     string
	DryRun       bool
	Verbose      bool
	Report       string

	// Out receives the report. Defaults to stdout.
	Out io.Writer
}

func NewTolinoImportCommand() *TolinoImportCommand {
	return &TolinoImportCommand{Out: os.Stdout}
}

func (cmd *TolinoImportCommand) ParseFlags(args []string) error {
	defaults := config.NewConfig()

	fs := flag.NewFlagSet("tolino-import", flag.ContinueOnError)

	fs.StringVar(&cmd.DriveDir, "dir", defaults.Tolino.DriveDir, "Directory holding notes.txt, usually the reader's mount point (required)")
	fs.StringVar(&cmd.OutputDir, "output", defaults.Notes.Dir, "Output directory for markdown notes")
	fs.StringVar(&cmd.Tags, "tags", defaults.Notes.Tags, "Comma separated tags for the front matter, e.g. \"#tolino,#book\"")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Record the import in this history database (disabled when empty)")
	fs.StringVar(&cmd.AuditDir, "audit-dir", "", "Keep a copy of the raw notes.txt in this directory (requires -db)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be written without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging and list every book")
	fs.StringVar(&cmd.Report, "report", ReportText, "Report format: text, json or yaml")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s tolino-import -dir <drive> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert the notes.txt export of a Tolino reader into one markdown note per book.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import from a connected reader:\n")
		fmt.Fprintf(os.Stderr, "  %s tolino-import -dir /media/$USER/tolino -output ~/Obsidian/Tolino\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Preview the generated notes as YAML:\n")
		fmt.Fprintf(os.Stderr, "  %s tolino-import -dir /media/$USER/tolino -dry-run -report yaml\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.DriveDir == "" {
		return fmt.Errorf("required flag -dir not provided")
	}
	if cmd.OutputDir == "" {
		return fmt.Errorf("flag -output must not be empty")
	}

	cmd.Report = strings.ToLower(cmd.Report)
	switch cmd.Report {
	case ReportText, ReportJSON, ReportYAML:
	default:
		return fmt.Errorf("unknown report format %q, expected text, json or yaml", cmd.Report)
	}

	return nil
}

func (cmd *TolinoImportCommand) Run(ctx context.Context) error {
	if cmd.Out == nil {
		cmd.Out = os.Stdout
	}

	level := "warn"
	if cmd.Verbose {
		level = "debug"
	}
	logger := logging.Setup(level)

	absOutputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}
	cmd.OutputDir = absOutputDir

	app, err := newImportApp(cmd.DatabasePath, cmd.AuditDir, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	report, importErr := app.pipeline.ImportDrive(ctx, importers.Request{
		Source:   entities.ImportSourceCLI,
		DriveDir: cmd.DriveDir,
		NotesDir: cmd.OutputDir,
		Tags:     cmd.Tags,
		DryRun:   cmd.DryRun,
	})

	if err := cmd.render(report); err != nil {
		return err
	}

	if importErr != nil {
		return importErr
	}
	if report.DocumentsFailed > 0 {
		return fmt.Errorf("%d of %d note(s) could not be written", report.DocumentsFailed, report.DocumentsBuilt)
	}
	return nil
}

func (cmd *TolinoImportCommand) render(report *importers.Report) error {
	if report == nil {
		return nil
	}

	switch cmd.Report {
	case ReportJSON:
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case ReportYAML:
		enc := yaml.NewEncoder(cmd.Out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		writeTextReport(cmd.Out, report, cmd.Verbose)
		return nil
	}
}

func writeTextReport(w io.Writer, report *importers.Report, verbose bool) {
	fmt.Fprintln(w, "Tolino Import")
	fmt.Fprintln(w, "=============")

	if report.Status == entities.ImportStatusDryRun {
		fmt.Fprintln(w, "DRY RUN MODE - No changes were made")
	}
	fmt.Fprintln(w)

	if report.SourcePath != "" {
		fmt.Fprintf(w, "File: %s\n", report.SourcePath)
	}
	fmt.Fprintf(w, "Output: %s\n", report.NotesDir)
	fmt.Fprintf(w, "Annotations: %d parsed, %d skipped\n", report.RecordsParsed, report.RecordsSkipped)
	fmt.Fprintf(w, "Books: %d\n", report.DocumentsBuilt)

	if verbose && len(report.Documents) > 0 {
		fmt.Fprintln(w, "\n=== Books ===")
		for i, doc := range report.Documents {
			fmt.Fprintf(w, "%d. \"%s\" by %s (%d entries) -> %s\n", i+1, doc.Title, doc.Author, doc.Entries, doc.FileName)
			if doc.Error != "" {
				fmt.Fprintf(w, "   [ERROR] %s\n", doc.Error)
			}
		}
	} else {
		for _, doc := range report.Documents {
			if doc.Error != "" {
				fmt.Fprintf(w, "  [ERROR] %s: %s\n", doc.FileName, doc.Error)
			}
		}
	}

	if verbose && len(report.Warnings) > 0 {
		fmt.Fprintln(w, "\n=== Skipped ===")
		for _, warning := range report.Warnings {
			fmt.Fprintln(w, warning.String())
		}
	}

	if verbose && report.Status == entities.ImportStatusDryRun {
		for _, doc := range report.Documents {
			fmt.Fprintf(w, "\n=== %s ===\n%s", doc.FileName, doc.Body)
		}
	}

	fmt.Fprintf(w, "\nStatus: %s\n", report.Status)
	if report.Message != "" {
		fmt.Fprintln(w, report.Message)
	}
}
