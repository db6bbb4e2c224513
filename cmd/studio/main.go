// Package main starts the studio HTTP API and handles termination.
package main

import (
	"flag"
	"log"
	"os"

	studiocmd "github.com/louisbranch/promptforge/internal/cmd/studio"
	entrypoint "github.com/louisbranch/promptforge/internal/platform/cmd"
)

func main() {
	cfg, err := studiocmd.ParseConfig(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceStudio))

	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := studiocmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
