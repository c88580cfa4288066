package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/filesmith/filesmith/internal/materialize"
)

// runCreate materializes a file artifact from content given as arguments
// or on stdin.
func runCreate(args []string) error {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	session := flags.String("session", "", "Session UUID (generated when omitted)")
	filename := flags.String("filename", "", "Artifact filename (random when omitted)")
	directory := flags.String("directory", "", "Directory prefix for the file path")
	mimeType := flags.String("mimetype", "", "MIME type override")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parsing create flags: %w", err)
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
		Content:   content,
		Filename:  *filename,
		Directory: *directory,
		MimeType:  *mimeType,
	})
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	return printResult(sessionID, res)
}
