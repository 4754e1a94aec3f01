package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/smbus"
	"github.com/mklimuk/smbus/adapter"
)

func viaFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "via",
		Usage: "transport to use: dev, mcp2221 or gobot",
		Value: "dev",
	}
}

// runSession executes fn over the transport selected by --via. The char
// device path goes through a scoped session, so mux routing applies there;
// the bridge transports talk to the peripheral directly.
func runSession(ctx context.Context, c *cli.Context, fn func(smbus.I2CBus) error) error {
	switch via := c.String("via"); via {
	case "", "dev":
		bus, err := openBus(c)
		if err != nil {
			return fmt.Errorf("could not open bus: %w", err)
		}
		return bus.Session(ctx, fn)
	case "mcp2221":
		return fn(adapter.NewMCP2221())
	case "gobot":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return fmt.Errorf("adaptor connect error: %w", err)
		}
		defer func() { _ = npi.I2cBusAdaptor.Finalize() }()
		busNumber := defaults.Bus
		if c.Int("bus") >= 0 {
			busNumber = c.Int("bus")
		}
		bus := adapter.NewGobotBus(npi, busNumber)
		defer func() { _ = bus.Release(ctx) }()
		return fn(bus)
	default:
		return fmt.Errorf("unknown transport %q", via)
	}
}
