// Command gallerysync exercises the sync core from the terminal: it can
// inspect the local cache and queue, drain pending mutations, and page
// through the remote catalog. Point it at a real asset service with
// --remote, or run against a seeded in-process fake with --fake.
package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hveda/gallerysync/internal/config"
	"github.com/hveda/gallerysync/internal/logging"
	"github.com/hveda/gallerysync/internal/remote"
	"github.com/hveda/gallerysync/internal/remote/remotetest"
)

var version = "0.1.0"

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:                 "gallerysync",
		Usage:                "local-first sync core for a generated media catalog",
		Version:              version,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config.toml",
			},
			&cli.StringFlag{
				Name:  "remote",
				Usage: "remote asset service base URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "current user id",
				Value: "local",
			},
			&cli.BoolFlag{
				Name:  "fake",
				Usage: "run against a seeded in-process fake service",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "treat the service as unreachable (mutations queue)",
			},
		},
		Commands: []*cli.Command{
			statusCommand(),
			listCommand(),
			syncCommand(),
			refreshCommand(),
			loadMoreCommand(),
			deleteCommand(),
			favoriteCommand(),
			signOutCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildService resolves the remote service for this invocation.
func buildService(c *cli.Context, cfg config.Config) (remote.Service, error) {
	if c.Bool("fake") {
		fake := remotetest.NewServer()
		seedDemoCatalog(fake)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("start fake service: %w", err)
		}
		go http.Serve(ln, fake.Handler())
		return remote.NewClient("http://" + ln.Addr().String()), nil
	}

	baseURL := cfg.RemoteURL
	if v := c.String("remote"); v != "" {
		baseURL = v
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no remote URL configured; set remote_url, GALLERYSYNC_REMOTE_URL or --remote (or use --fake)")
	}

	opts := []remote.ClientOption{
		remote.WithTimeout(time.Duration(cfg.HTTPTimeout) * time.Second),
	}
	if cfg.Token != "" {
		opts = append(opts, remote.WithToken(cfg.Token))
	}
	return remote.NewClient(baseURL, opts...), nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(os.Stderr, cfg.LogLevel)
	return cfg, nil
}
