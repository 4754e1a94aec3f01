package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/smbus/pkg/config"
)

var defaults = config.Default()

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "smbus"
	app.EnableBashCompletion = true
	app.Version = config.VersionString()
	app.Usage = "low-level I2C bus access with optional mux routing"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "yaml file with default bus routing",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		if path := ctx.String("config"); path != "" {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			defaults = cfg
		}
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&writeCmd,
		&scanCmd,
		&muxCmd,
		&usbCmd,
		&mcp2221Cmd,
		&versionCmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}

var versionCmd = cli.Command{
	Name:  "version",
	Usage: "print version information",
	Action: func(c *cli.Context) error {
		fmt.Println(config.VersionString())
		return nil
	},
}
