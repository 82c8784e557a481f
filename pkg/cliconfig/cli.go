// Package cliconfig parses command-line arguments for the midirc CLI.
package cliconfig

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Config holds settings parsed from command-line arguments.
type Config struct {
	SMFPath    string // path to an SMF file to load at startup (positional, optional)
	InputPort  string // MIDI input port id to auto-connect
	OutputPort string // MIDI output port id to auto-connect
	LogLevel   string // debug, info, warn, error
	ShowHelp   bool
}

// ParseArgs parses command-line arguments into a Config.
func ParseArgs(args []string) (*Config, error) {
	reordered := reorderArgs(args)

	fs := flag.NewFlagSet("midirc", flag.ContinueOnError)
	config := &Config{}

	fs.StringVar(&config.InputPort, "input", "", "MIDI input port id to connect to on startup")
	fs.StringVar(&config.InputPort, "i", "", "MIDI input port id (short form)")
	fs.StringVar(&config.OutputPort, "output", "", "MIDI output port id to connect to on startup")
	fs.StringVar(&config.OutputPort, "o", "", "MIDI output port id (short form)")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (short form)")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (short form)")

	if err := fs.Parse(reordered); err != nil {
		return nil, err
	}

	if config.LogLevel == "info" {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			config.LogLevel = strings.ToLower(env)
		}
	}
	if config.InputPort == "" {
		config.InputPort = os.Getenv("MIDIRC_INPUT")
	}
	if config.OutputPort == "" {
		config.OutputPort = os.Getenv("MIDIRC_OUTPUT")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.SMFPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs moves flags before positional arguments so that flag.FlagSet,
// which stops parsing at the first non-flag argument, sees them regardless
// of where the caller placed the SMF path.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if arg != "-h" && arg != "--help" {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes usage information to stdout.
func PrintHelp() {
	fmt.Fprint(os.Stdout, `midirc - MIDI recorder/player CLI

Usage:
  midirc [options] [smf-path]

Arguments:
  smf-path                     Standard MIDI File to load on startup (optional)

Options:
  -i, --input <port-id>        MIDI input port id to connect to on startup
  -o, --output <port-id>       MIDI output port id to connect to on startup
  -l, --log-level <level>      log level: debug, info, warn, error (default: info)
  -h, --help                   show this help

Environment Variables:
  MIDIRC_INPUT=<port-id>       MIDI input port id
  MIDIRC_OUTPUT=<port-id>      MIDI output port id
  LOG_LEVEL=<level>            log level

Examples:
  midirc
  midirc --input abc123 --output def456
  midirc --log-level debug song.mid
`)
}
