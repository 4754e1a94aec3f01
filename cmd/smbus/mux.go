package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/smbus/busctx"
	"github.com/mklimuk/smbus/cmd/smbus/console"
	"github.com/mklimuk/smbus/i2c"
)

var muxCmd = cli.Command{
	Name:  "mux",
	Usage: "drive the multiplexer channel latch directly",
	Subcommands: cli.Commands{
		&cli.Command{
			Name:  "lock",
			Usage: "latch a downstream channel and leave it connected",
			Flags: busFlags(),
			Action: func(c *cli.Context) error {
				if c.String("mux") == "" && defaults.Mux == nil {
					return console.Exit(1, "%s", console.Red("a mux address is required"))
				}
				channel := resolveChannel(c)
				if channel == nil {
					return console.Exit(1, "%s", console.Red("a channel is required"))
				}
				ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
				bus, err := openBus(c)
				if err != nil {
					return console.Exit(1, "could not open bus: %s", console.Red(err))
				}
				defer func() { _ = bus.Close() }()
				if err = bus.Claim(ctx); err != nil {
					return console.Exit(1, "could not lock channel: %s", console.Red(err))
				}
				console.Printf("%s channel %s latched\n", console.PictoKey, console.White(int(*channel)))
				return nil
			},
		},
		&cli.Command{
			Name:  "unlock",
			Usage: "reset the mux so no channel is connected",
			Flags: busFlags(),
			Action: func(c *cli.Context) error {
				addr := defaults.Mux
				if c.String("mux") != "" {
					parsed, err := parseAddr(c.String("mux"))
					if err != nil {
						return console.Exit(1, "%s", console.Red(err))
					}
					addr = &parsed
				}
				if addr == nil {
					return console.Exit(1, "%s", console.Red("a mux address is required"))
				}
				busNumber := defaults.Bus
				if c.Int("bus") >= 0 {
					busNumber = c.Int("bus")
				}
				ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
				// the channel is irrelevant for a forced unlock, only the zero write matters
				bus, err := i2c.Open(busNumber, i2c.WithVerbose(c.Bool("verbose")),
					i2c.WithMux(*addr), i2c.WithChannel(0))
				if err != nil {
					return console.Exit(1, "could not open bus: %s", console.Red(err))
				}
				defer func() { _ = bus.Close() }()
				if err = bus.DropChannel(ctx); err != nil {
					return console.Exit(1, "could not unlock channel: %s", console.Red(err))
				}
				console.Printf("%s mux unlocked\n", console.PictoKey)
				return nil
			},
		},
		&cli.Command{
			Name:  "status",
			Usage: "read the mux control register",
			Flags: busFlags(),
			Action: func(c *cli.Context) error {
				ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
				addr, err := parseAddr(c.String("mux"))
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				busNumber := defaults.Bus
				if c.Int("bus") >= 0 {
					busNumber = c.Int("bus")
				}
				// the register read does not need mux routing on the session itself
				bus, err := i2c.Open(busNumber, i2c.WithVerbose(c.Bool("verbose")))
				if err != nil {
					return console.Exit(1, "could not open bus: %s", console.Red(err))
				}
				defer func() { _ = bus.Close() }()
				state := make([]byte, 1)
				if err = bus.ReadFromAddr(ctx, addr, state); err != nil {
					return console.Exit(1, "could not read mux state: %s", console.Red(err))
				}
				console.Printf("%s mux %s control register: %s\n", console.PictoPin,
					console.White(fmt.Sprintf("%#x", addr)), console.White(fmt.Sprintf("%#08b", state[0])))
				return nil
			},
		},
	},
}
