package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/smbus/cmd/smbus/console"
	"github.com/mklimuk/smbus/i2c"
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "probe the bus and list responding peripherals",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Value:   -1,
			Usage:   "bus number (falls back to config, then 1)",
		},
	},
	Action: func(c *cli.Context) error {
		busNumber := defaults.Bus
		if c.Int("bus") >= 0 {
			busNumber = c.Int("bus")
		}
		bus, err := i2c.NewPeriphBus(fmt.Sprintf(i2c.DevicePath, busNumber))
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer func() { _ = bus.Close() }()
		found := bus.Scan(context.Background())
		if len(found) == 0 {
			console.Printf("%s no peripherals found on bus %d\n", console.PictoSearch, busNumber)
			return nil
		}
		for _, addr := range found {
			console.Printf("%s %s\n", console.PictoSearch, console.White(fmt.Sprintf("%#x", addr)))
		}
		return nil
	},
}
