// Command grove runs services wired by the grove container. With no
// descriptor directory it serves /healthz and /metrics over HTTP:
//
//	grove run
//	grove run --services ./services --contracts ./contracts http worker
//	grove inspect --services ./services
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ARTM2000/grove"
	"github.com/ARTM2000/grove/loader"
)

const (
	argEnvFile   = "env-file"
	argServices  = "services"
	argContracts = "contracts"
)

func main() {
	app := &cli.App{
		Name:  "grove",
		Usage: "Start services wired by the grove container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  argEnvFile,
				Usage: "Environment file read before GROVE_* variables are decoded",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Start the named services and wait for SIGINT or SIGTERM",
				ArgsUsage: "[service...]",
				Action:    run,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  argServices,
						Usage: "Directory of service descriptors",
					},
					&cli.StringFlag{
						Name:  argContracts,
						Usage: "Directory of contract definitions",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Print the services described in a directory",
				Action: inspect,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     argServices,
						Usage:    "Directory of service descriptors",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx.String(argEnvFile))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	c := grove.New(
		grove.WithLogger(log),
		grove.WithDebug(cfg.Debug),
		grove.WithStopTimeout(cfg.StopTimeout),
		grove.WithRegisterer(reg),
	)

	cat := catalog(cfg, log, reg)
	if dir := cCtx.String(argServices); dir != "" {
		err = c.RegisterAll(dir, cat)
	} else {
		err = registerDefaults(c, cat)
	}
	if err != nil {
		return fmt.Errorf("registering services: %w", err)
	}

	if dir := cCtx.String(argContracts); dir != "" {
		if err := c.DefineAll(dir); err != nil {
			return fmt.Errorf("loading contracts: %w", err)
		}
	}

	names := cCtx.Args().Slice()
	if len(names) == 0 {
		names = []string{"http"}
	}

	stopped := c.Stopped()
	c.StopOn(syscall.SIGINT, syscall.SIGTERM)

	for _, name := range names {
		if _, err := c.Start(name).Await(cCtx.Context); err != nil {
			_ = c.Shutdown(context.Background())
			return err
		}
		log.Info("service started", zap.String("service", name))
	}

	<-stopped
	return nil
}

func inspect(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx.String(argEnvFile))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	entries, err := loader.LoadDir(cCtx.String(argServices), catalog(cfg, zap.NewNop(), prometheus.NewRegistry()))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cCtx.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAMES\tFACTORY\tLIFETIME\tDEPENDENCIES\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			strings.Join(e.Names, ","),
			e.FactoryKey,
			grove.ParseLifetime(e.Lifecycle),
			strings.Join(e.Inject, ","),
			e.Path,
		)
	}

	return w.Flush()
}
