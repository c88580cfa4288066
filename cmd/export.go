package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/filesmith/filesmith/internal/materialize"
)

// runExport renders HTML content (from arguments or stdin) into a document
// via the conversion service.
func runExport(args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	session := flags.String("session", "", "Session UUID (generated when omitted)")
	filename := flags.String("filename", "", "Document filename (random when omitted)")
	format := flags.String("format", "pdf", "Target document format")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parsing export flags: %w", err)
	}

	sessionID, err := parseSession(*session)
	if err != nil {
		return err
	}

	content, err := readContent(flags.Args())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Materializer.Materialize(ctx, sessionID, materialize.Request{
		Content:  content,
		Filename: *filename,
		ExportAs: *format,
	})
	if err != nil {
		return fmt.Errorf("exporting document: %w", err)
	}

	return printResult(sessionID, res)
}
