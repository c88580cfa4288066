package cmd

import (
	"fmt"
	"os"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// runVersion displays version and environment information.
func runVersion() {
	fmt.Printf("Filesmith %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	fmt.Println("Environment:")
	printEnv("FILESMITH_STORE_BACKEND")
	printEnv("FILESMITH_STORE_ROOT")
	printEnv("FILESMITH_RENDERER_URL")
	if os.Getenv("DATABASE_URL") != "" {
		fmt.Println("  DATABASE_URL: (configured)")
	} else {
		fmt.Println("  DATABASE_URL: Not set")
	}
}

// printEnv prints one environment variable, or "Not set".
func printEnv(name string) {
	if v := os.Getenv(name); v != "" {
		fmt.Printf("  %s: %s\n", name, v)
		return
	}
	fmt.Printf("  %s: Not set\n", name)
}
