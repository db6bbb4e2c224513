// Package main runs the promptctl command-line tool.
package main

import (
	"os"

	"github.com/louisbranch/promptforge/internal/cmd/promptctl"
	entrypoint "github.com/louisbranch/promptforge/internal/platform/cmd"
	"github.com/louisbranch/promptforge/internal/platform/config"
)

func main() {
	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := promptctl.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("promptctl: %v", err)
	}
}
