package main

import (
	"github.com/marcus/optsync/cmd"
	"github.com/marcus/optsync/internal/version"
)

// Version is injected with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cmd.SetVersion(version.Resolve(Version))
	cmd.Execute()
}
