// Package main starts the MCP server on stdio or HTTP.
package main

import (
	"flag"
	"log"
	"os"

	mcpcmd "github.com/louisbranch/promptforge/internal/cmd/mcp"
	entrypoint "github.com/louisbranch/promptforge/internal/platform/cmd"
)

func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	// stdout carries the stdio transport.
	log.SetOutput(os.Stderr)
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceMCP))

	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
