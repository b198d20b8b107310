package main

import (
	"context"
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/urfave/cli/v2"

	"github.com/hveda/gallerysync/internal/cache"
	"github.com/hveda/gallerysync/internal/config"
	"github.com/hveda/gallerysync/internal/connectivity"
	"github.com/hveda/gallerysync/internal/db"
	"github.com/hveda/gallerysync/internal/engine"
	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/queue"
	"github.com/hveda/gallerysync/internal/reconcile"
	"github.com/hveda/gallerysync/internal/view"
)

// session bundles the assembled core for one CLI invocation.
type session struct {
	cfg      config.Config
	engine   *engine.Engine
	database *db.DB
}

func (s *session) close() {
	s.database.Close()
}

// openSession loads config and assembles the full core.
func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	service, err := buildService(c, cfg)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	cacheStore, err := cache.NewStore(database, cfg.CacheLimit)
	if err != nil {
		database.Close()
		return nil, err
	}
	queueStore, err := queue.NewStore(database)
	if err != nil {
		database.Close()
		return nil, err
	}

	monitor := connectivity.NewMonitor(!c.Bool("offline"))
	feed := view.NewFeed(cacheStore, queueStore, service, monitor, cfg.PageSize)
	reconciler := reconcile.New(queueStore, service)
	eng := engine.New(cacheStore, queueStore, feed, reconciler, monitor, service)
	eng.SetUser(c.String("user"))

	return &session{cfg: cfg, engine: eng, database: database}, nil
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show cache and queue state",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()
			printStatus(s)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Fetch the first page and print the merged asset list",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.engine.Start(context.Background()); err != nil {
				return err
			}
			printItems(s.engine.Items(), s.engine.HasMore())
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Drain the pending action queue against the remote service",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			pending := s.engine.Queue().PendingToSync()
			if len(pending) == 0 {
				fmt.Println("queue is empty, nothing to sync")
				return nil
			}

			bar := pb.StartNew(len(pending))
			s.engine.Reconciler().OnProgress = func(done, total int) {
				bar.SetCurrent(int64(done))
			}
			result, err := s.engine.Reconciler().TrySync(context.Background())
			bar.Finish()
			if err != nil {
				return err
			}
			fmt.Printf("applied %d, converged %d, failed %d\n",
				result.Applied, result.Converged, result.Failed)
			return nil
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Re-trigger reconciliation and reload the first page",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.engine.Refresh(context.Background()); err != nil {
				return err
			}
			printItems(s.engine.Items(), s.engine.HasMore())
			return nil
		},
	}
}

func loadMoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "load-more",
		Usage: "Materialize the next slice of containers",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := context.Background()
			if err := s.engine.Start(ctx); err != nil {
				return err
			}
			if err := s.engine.LoadMore(ctx); err != nil {
				return err
			}
			printItems(s.engine.Items(), s.engine.HasMore())
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one media entry (target key: generationId:mediaType:index)",
		ArgsUsage: "<target>",
		Action: func(c *cli.Context) error {
			target, err := models.ParseTarget(c.Args().First())
			if err != nil {
				return err
			}
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.engine.DeleteAsset(context.Background(), target); err != nil {
				return err
			}
			if c.Bool("offline") {
				fmt.Printf("queued delete for %s\n", target.Key())
			} else {
				fmt.Printf("deleted %s\n", target.Key())
			}
			return nil
		},
	}
}

func favoriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "favorite",
		Usage:     "Toggle the favorite state of one media entry",
		ArgsUsage: "<target>",
		Action: func(c *cli.Context) error {
			target, err := models.ParseTarget(c.Args().First())
			if err != nil {
				return err
			}
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.engine.ToggleFavorite(context.Background(), target); err != nil {
				return err
			}
			fmt.Printf("toggled favorite for %s\n", target.Key())
			return nil
		},
	}
}

func signOutCommand() *cli.Command {
	return &cli.Command{
		Name:  "signout",
		Usage: "Wipe all local state for the current user",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			s.engine.SignOut()
			fmt.Println("local state wiped")
			return nil
		},
	}
}
