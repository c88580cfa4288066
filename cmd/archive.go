package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/filesmith/filesmith/internal/materialize"
)

// runArchive packages the session's published files into a zip archive.
func runArchive(args []string) error {
	flags := flag.NewFlagSet("archive", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	session := flags.String("session", "", "Session UUID (generated when omitted)")
	directory := flags.String("directory", "", "Only archive session files under this directory")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parsing archive flags: %w", err)
	}

	sessionID, err := parseSession(*session)
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
		Archive:   true,
		Directory: *directory,
	})
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	return printResult(sessionID, res)
}
