package main

import (
	"github.com/jessevdk/go-flags"
)

// Options are the command line flags
type Options struct {
	Config   string   `short:"c" long:"config" description:"station settings INI file"`
	Defs     []string `short:"d" long:"defs" description:"chart definition file, one output per file (repeatable)"`
	Output   string   `short:"o" long:"output" description:"output directory, overrides the settings file"`
	History  bool     `long:"history" description:"also write the CUserdata history snapshots"`
	Preview  bool     `long:"preview" description:"render PNG previews of the written snapshots, or of the stored ones without --history"`
	Location string   `long:"tz" description:"time zone of the station logs" default:"Local"`
	Version  bool     `short:"v" long:"version" description:"display the version and exit"`
}

// parseOptions returns the parsed command line flags
func parseOptions(args []string) (*Options, error) {
	opt := &Options{}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = "chartgen"
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return opt, nil
}

func isHelp(err error) bool {
	return flags.WroteHelp(err)
}
