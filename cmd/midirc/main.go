// Command midirc is a terminal MIDI player: it scans ports, connects
// to the input and output ports given on the command line, and plays
// the first track of an optional Standard MIDI File until interrupted.
// It does not start recordings or save files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/rucub100/midirc/pkg/cliconfig"
	"github.com/rucub100/midirc/pkg/device"
	"github.com/rucub100/midirc/pkg/engine"
	"github.com/rucub100/midirc/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "midirc:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	config, err := cliconfig.ParseArgs(args)
	if err != nil {
		return err
	}
	if config.ShowHelp {
		cliconfig.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(config.LogLevel); err != nil {
		return err
	}
	log := logger.GetLogger()

	e := engine.New(device.GomidiBackend{})

	if _, err := e.ScanMidiInput(); err != nil {
		log.Warn("failed to scan MIDI inputs", "error", err)
	}
	if _, err := e.ScanMidiOutput(); err != nil {
		log.Warn("failed to scan MIDI outputs", "error", err)
	}

	if config.InputPort != "" {
		if _, err := e.ConnectMidiInput(config.InputPort); err != nil {
			return fmt.Errorf("connecting input %q: %w", config.InputPort, err)
		}
		log.Info("connected MIDI input", "port", config.InputPort)
	}
	if config.OutputPort != "" {
		if _, err := e.ConnectMidiOutput(config.OutputPort); err != nil {
			return fmt.Errorf("connecting output %q: %w", config.OutputPort, err)
		}
		log.Info("connected MIDI output", "port", config.OutputPort)
	}

	if config.SMFPath != "" {
		snap, err := e.LoadMidiTrack(config.SMFPath)
		if err != nil {
			return fmt.Errorf("loading %q: %w", config.SMFPath, err)
		}
		log.Info("loaded MIDI file", "path", config.SMFPath, "tracks", len(snap.Tracks))
		if len(snap.Tracks) > 0 {
			if _, err := e.PlayMidiTrack(0); err != nil {
				return fmt.Errorf("playing track 0: %w", err)
			}
			log.Info("playing track 0")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("midirc running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info("shutting down")
	if _, err := e.StopMidiPlayback(); err != nil {
		log.Warn("failed to stop playback cleanly", "error", err)
	}
	if _, err := e.DisconnectMidiInput(); err != nil {
		log.Warn("failed to disconnect MIDI input cleanly", "error", err)
	}
	if _, err := e.DisconnectMidiOutput(); err != nil {
		log.Warn("failed to disconnect MIDI output cleanly", "error", err)
	}

	return nil
}
