package main

import (
	"flag"
	"os"

	"github.com/louisbranch/carcassonne/internal/platform/config"
	"github.com/louisbranch/carcassonne/internal/tools/turnkey"
)

func main() {
	cfg, err := turnkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := turnkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate key: %v", err)
	}
}
