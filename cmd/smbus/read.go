package main

import (
	"context"
	"encoding/hex"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/smbus"
	"github.com/mklimuk/smbus/busctx"
	"github.com/mklimuk/smbus/cmd/smbus/console"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read bytes from a peripheral",
	Flags: append(busFlags(),
		&cli.StringFlag{
			Name:     "addr",
			Aliases:  []string{"a"},
			Usage:    "peripheral address (hex, e.g. 0x40)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   1,
			Usage:   "number of bytes to read",
		},
		viaFlag(),
	),
	Action: func(c *cli.Context) error {
		ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
		addr, err := parseAddr(c.String("addr"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		buf := make([]byte, c.Int("count"))
		err = runSession(ctx, c, func(b smbus.I2CBus) error {
			return b.ReadFromAddr(ctx, addr, buf)
		})
		if err != nil {
			return console.Exit(1, "session error: %s", console.Red(err))
		}
		console.Printf("%s %s\n", console.PictoPin, console.White(hex.EncodeToString(buf)))
		return nil
	},
}
