// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pktqd runs per-CPU packet dispatch queues fed by synthetic
// producers, and exposes their counters and controls over HTTP.
package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"code.hybscloud.com/pktq/internal/logging"
)

var logger = logging.New("main")

var (
	configFile string
	flagCfg    Config
)

var app = &cli.App{
	Usage:                "Run per-CPU packet dispatch queues.",
	EnableBashCompletion: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "YAML configuration `file`",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "listen",
			Usage:       "HTTP listen `address`",
			Destination: &flagCfg.Listen,
		},
		&cli.IntFlag{
			Name:        "ncpu",
			Usage:       "number of `CPUs`",
			Destination: &flagCfg.CPU.NumCPU,
		},
		&cli.BoolFlag{
			Name:        "affinity",
			Usage:       "bind CPU goroutines to host CPUs",
			Destination: &flagCfg.CPU.Affinity,
		},
		&cli.StringFlag{
			Name:        "rps-hash",
			Usage:       "RPS hash function `name`",
			Destination: &flagCfg.RPSHash,
		},
		&cli.Float64Flag{
			Name:        "rate",
			Usage:       "packets per second per producer",
			Destination: &flagCfg.Traffic.Rate,
		},
		&cli.IntFlag{
			Name:        "producers",
			Usage:       "producers per queue",
			Destination: &flagCfg.Traffic.Producers,
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "log `level` (D, I, W, E)",
		},
	},
	Action: func(c *cli.Context) (err error) {
		if c.IsSet("log") {
			for _, pkg := range []string{"main", "pktq", "cpu", "rps"} {
				logging.SetLevel(pkg, c.String("log"))
			}
		}

		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		overlayFlags(c, &cfg)

		d, err := newDaemon(cfg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, d.Close()) }()

		ln, err := net.Listen("tcp", d.cfg.Listen)
		if err != nil {
			return err
		}
		logger.Info("listening", zap.Stringer("addr", ln.Addr()))

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return d.Run(ctx, ln)
	},
}

// overlayFlags copies explicitly set flags over the file configuration.
func overlayFlags(c *cli.Context, cfg *Config) {
	if c.IsSet("listen") {
		cfg.Listen = flagCfg.Listen
	}
	if c.IsSet("ncpu") {
		cfg.CPU.NumCPU = flagCfg.CPU.NumCPU
	}
	if c.IsSet("affinity") {
		cfg.CPU.Affinity = flagCfg.CPU.Affinity
	}
	if c.IsSet("rps-hash") {
		cfg.RPSHash = flagCfg.RPSHash
	}
	if c.IsSet("rate") {
		cfg.Traffic.Rate = flagCfg.Traffic.Rate
	}
	if c.IsSet("producers") {
		cfg.Traffic.Producers = flagCfg.Traffic.Producers
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		logger.Fatal("app exit", zap.Error(err))
	}
}

