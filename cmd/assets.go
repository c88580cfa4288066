package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// runAssets lists the session's published assets, or fetches one by
// reference when --ref is given.
func runAssets(args []string) error {
	flags := flag.NewFlagSet("assets", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	session := flags.String("session", "", "Session UUID (required)")
	ref := flags.String("ref", "", "Fetch a single asset by objref or ID")
	namesOnly := flags.Bool("names-only", false, "List filenames without payloads")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parsing assets flags: %w", err)
	}

	if *session == "" {
		return fmt.Errorf("--session is required: a fresh session has no assets to list")
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

	var out any
	if *ref != "" {
		asset, err := a.Store.Get(ctx, sessionID, *ref)
		if err != nil {
			return fmt.Errorf("fetching asset: %w", err)
		}
		out = asset
	} else {
		assets, err := a.Store.List(ctx, sessionID, true, !*namesOnly)
		if err != nil {
			return fmt.Errorf("listing assets: %w", err)
		}
		out = map[string]any{"session_id": sessionID.String(), "assets": assets}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding assets: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
