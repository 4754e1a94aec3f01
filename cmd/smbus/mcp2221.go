package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/smbus/adapter"
	"github.com/mklimuk/smbus/busctx"
	"github.com/mklimuk/smbus/cmd/smbus/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "control the MCP2221 USB-to-I2C bridge",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge's I2C engine state",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		err = enc.Encode(status)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel any pending transfer and free the I2C engine",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
		err := a.Release(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		err = enc.Encode(status)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}
