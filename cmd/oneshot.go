package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/filesmith/filesmith/internal/output"
)

// commandContext returns a context cancelled on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// parseSession parses a --session flag value, generating a fresh session
// when the flag was not given.
func parseSession(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --session %q: %w", raw, err)
	}
	return id, nil
}

// readContent joins positional arguments as content, falling back to stdin
// when none are given. This makes both of these work:
//
//	filesmith create --filename out.txt "hello"
//	cat report.html | filesmith export --filename report.pdf
func readContent(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// printResult writes the materialization output as indented JSON to stdout.
// The session ID rides along so follow-up commands can reuse the session.
func printResult(sessionID uuid.UUID, res output.Result) error {
	out := struct {
		SessionID string `json:"session_id"`
		output.Result
	}{
		SessionID: sessionID.String(),
		Result:    res,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
