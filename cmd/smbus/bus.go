package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/smbus/i2c"
)

func busFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Value:   -1,
			Usage:   "bus number (falls back to config, then 1)",
		},
		&cli.StringFlag{
			Name:  "mux",
			Usage: "multiplexer address (hex, e.g. 0x70)",
		},
		&cli.IntFlag{
			Name:  "channel",
			Value: -1,
			Usage: "multiplexer channel bit",
		},
	}
}

// openBus builds a bus session from command flags layered over config defaults.
func openBus(c *cli.Context) (*i2c.Bus, error) {
	busNumber := defaults.Bus
	if c.Int("bus") >= 0 {
		busNumber = c.Int("bus")
	}
	opts := []i2c.Option{i2c.WithVerbose(c.Bool("verbose") || defaults.Verbose)}
	muxAddr := defaults.Mux
	if c.String("mux") != "" {
		addr, err := parseAddr(c.String("mux"))
		if err != nil {
			return nil, fmt.Errorf("invalid mux address: %w", err)
		}
		muxAddr = &addr
	}
	channel := resolveChannel(c)
	if muxAddr != nil {
		opts = append(opts, i2c.WithMux(*muxAddr))
	}
	if channel != nil {
		opts = append(opts, i2c.WithChannel(*channel))
	}
	return i2c.Open(busNumber, opts...)
}

// resolveChannel layers the channel flag over the config default.
func resolveChannel(c *cli.Context) *uint8 {
	channel := defaults.Channel
	if c.Int("channel") >= 0 {
		ch := uint8(c.Int("channel"))
		channel = &ch
	}
	return channel
}

func parseAddr(raw string) (byte, error) {
	addr, err := strconv.ParseUint(raw, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("could not parse %q as a 7-bit address: %w", raw, err)
	}
	return byte(addr), nil
}
