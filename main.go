/*
Command-line entry point of the shader build pipeline: compiles the
manifest's shader variants into SPIR-V artifacts, validates their descriptor
layout contract and registers them for the host renderer.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/cubic/pipeline"
	"github.com/spaghettifunk/cubic/pipeline/assets"
	"github.com/spaghettifunk/cubic/pipeline/core"
)

func main() {
	var (
		manifestPath = flag.String("config", "pipeline.toml", "path to the build manifest")
		watch        = flag.Bool("watch", false, "rebuild variants when their sources change")
		verbose      = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		core.SetVerbose()
	}

	manifest, err := assets.LoadManifest(*manifestPath)
	if err != nil {
		core.LogFatal("%v", err)
	}

	p := pipeline.New(manifest)
	if err := p.Initialize(); err != nil {
		core.LogFatal("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		cancel()
	}()

	// Every per-artifact failure is already logged by the batch; the exit
	// status just reflects whether the whole batch was clean.
	buildErr := p.Build(ctx)
	p.Describe()

	if *watch && ctx.Err() == nil {
		if err := p.Watch(ctx); err != nil {
			core.LogError("%v", err)
		}
	}

	if buildErr != nil {
		os.Exit(1)
	}
}
