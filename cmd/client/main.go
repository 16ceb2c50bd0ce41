package main

import (
	"context"
	"os"

	"github.com/iudanet/postboy/internal/client/cli"
	"github.com/iudanet/postboy/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	build := cli.BuildInfo{Version: Version, BuildDate: BuildDate, GitCommit: GitCommit}

	app := cli.New(iocli.NewStdio(), cli.Open, os.Stderr, build)
	os.Exit(app.Execute(context.Background(), os.Args[1:]))
}
