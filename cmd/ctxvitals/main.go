package main

import (
	"fmt"
	"os"
	"runtime"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("ctxvitals %s\n", version)
	if gitCommit != "" {
		fmt.Printf("  commit: %s\n", gitCommit)
	}
	if buildTime != "" {
		fmt.Printf("  built:  %s\n", buildTime)
	}
	fmt.Printf("  go:     %s\n", runtime.Version())
}
