package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/smbus"
	"github.com/mklimuk/smbus/busctx"
	"github.com/mklimuk/smbus/cmd/smbus/console"
)

var writeCmd = cli.Command{
	Name:  "write",
	Usage: "write bytes to a peripheral",
	Flags: append(busFlags(),
		&cli.StringFlag{
			Name:     "addr",
			Aliases:  []string{"a"},
			Usage:    "peripheral address (hex, e.g. 0x40)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "payload as hex digits (e.g. 01ff)",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "skip the confirmation prompt",
		},
		viaFlag(),
	),
	Action: func(c *cli.Context) error {
		ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
		addr, err := parseAddr(c.String("addr"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		payload, err := parsePayload(c.String("data"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("write %s to %#x?", hex.EncodeToString(payload), addr))
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			if answer != console.Yes {
				console.Printf("%s aborted\n", console.PictoStop)
				return nil
			}
		}
		err = runSession(ctx, c, func(b smbus.I2CBus) error {
			return b.WriteToAddr(ctx, addr, payload)
		})
		if err != nil {
			return console.Exit(1, "session error: %s", console.Red(err))
		}
		console.Printf("%s wrote %d bytes to %s\n", console.PictoPlug, len(payload), console.White(fmt.Sprintf("%#x", addr)))
		return nil
	},
}

func parsePayload(raw string) ([]byte, error) {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(raw, "0x"), " ", "")
	payload, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("could not parse %q as hex payload: %w", raw, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return payload, nil
}
