// SPDX-License-Identifier: Unlicense OR MIT

// Command evtouchdump prints the pointer events produced by a touchscreen
// event device. It is a diagnostic for checking that a panel's driver and
// scale factor translate to the expected logical coordinates.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/mcbridejc/evtouch"
)

var (
	device = flag.String("device", "/dev/input/event0", "path to the touchscreen event device")
	scale  = flag.Float64("scale", 1.0, "scale factor between physical and logical coordinates")
	debug  = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*debug {
		log = log.Level(zerolog.InfoLevel)
	}
	if err := dump(log); err != nil {
		log.Fatal().Err(err).Msg("evtouchdump failed")
	}
}

func dump(log zerolog.Logger) error {
	dev, err := evtouch.Open(*device, float32(*scale), evtouch.WithLogger(log))
	if err != nil {
		return err
	}
	defer dev.Close()
	for {
		e, err := dev.Next()
		if errors.Is(err, evtouch.ErrDeviceClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().
			Str("kind", e.Kind.String()).
			Float32("x", e.Position.X).
			Float32("y", e.Position.Y).
			Msg("pointer event")
	}
}
