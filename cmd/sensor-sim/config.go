package main

import (
	"flag"
	"time"
)

// cliFlags holds flag-level overrides applied on top of the loaded
// configuration.
type cliFlags struct {
	ConfigFile  string
	Profile     string
	ProfileFile string
	Seed        uint64
	Interval    time.Duration
	Count       int
	MQTT        bool
}

func bindCommonFlags(fs *flag.FlagSet, f *cliFlags) {
	fs.StringVar(&f.ConfigFile, "config", "", "Path to YAML configuration file")
	fs.StringVar(&f.Profile, "profile", "", "Embedded sensor profile name")
	fs.StringVar(&f.ProfileFile, "profile-file", "", "Custom YAML profile file")
	fs.Uint64Var(&f.Seed, "seed", 0, "RNG seed (0 = derive from clock)")
	fs.DurationVar(&f.Interval, "interval", 0, "Override emission interval")
}
