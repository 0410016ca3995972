package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rezkam/stackit/internal/application/schedule"
	"github.com/rezkam/stackit/internal/config"
	"github.com/rezkam/stackit/internal/domain"
	"github.com/rezkam/stackit/internal/infrastructure/export/ics"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/stackit/internal/infrastructure/persistence/sqlite"
	"github.com/rezkam/stackit/internal/infrastructure/refresh"
	"github.com/rezkam/stackit/internal/scheduler"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stackit",
		Short: "Plan and rank the tasks of your day",
		Long: `stackit keeps a daily schedule of tasks and fixed-time events, expands
recurring items, and orders the open tasks by the selected mode.

Storage is chosen with STACKIT_STORAGE_DRIVER (sqlite, postgres or memory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDayCmd(),
		newAddCmd(),
		newCompletionCmd("complete", "Mark an item as done", true),
		newCompletionCmd("reopen", "Mark an item as not done", false),
		newDeleteCmd(),
		newModeCmd(),
		newSuggestCmd(),
		newExportCmd(),
		newWatchCmd(),
		newMigrateCmd(),
	)
	return root
}

// withApp loads configuration, opens the app for one command and closes it
// afterwards, flushing pending remote writes.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	return fn(ctx, a)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func parseModeFlag(s string) (domain.ScheduleMode, error) {
	if s == "" {
		return "", nil
	}
	return domain.ParseScheduleMode(s)
}

func newDayCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "day [date]",
		Short: "Show the schedule of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := parseDay(optionalArg(args), a.now(), a.loc)
				if err != nil {
					return err
				}
				m, err := parseModeFlag(mode)
				if err != nil {
					return err
				}

				store, err := a.openSchedule(ctx, day, m)
				if err != nil {
					return err
				}
				printView(cmd.OutOrStdout(), store.View(), a.loc)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "ordering: priority, reverse_priority, fifo, lifo or shuffle")
	return cmd
}

func newAddCmd() *cobra.Command {
	var f itemFlags

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task or event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				item, err := f.build(strings.Join(args, " "), a.now(), a.loc)
				if err != nil {
					return err
				}

				store, err := a.openSchedule(ctx, item.ScheduleDate, "")
				if err != nil {
					return err
				}
				store.Add(item)
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.date, "date", "", "day of the item: yyyy-mm-dd, today, tomorrow (default today)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&f.priority, "priority", "medium", "low, medium or high")
	cmd.Flags().StringVar(&f.itemType, "type", "task", "task or event")
	cmd.Flags().StringVar(&f.repeat, "repeat", "none", "none, daily, weekdays or weekly:<days> (weekly:mon,wed)")
	cmd.Flags().StringVar(&f.start, "start", "", "start time HH:MM")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "length, e.g. 30m; the end time when --start is set, else an estimate")
	return cmd
}

// lookup opens the day and resolves id on it.
func lookup(ctx context.Context, a *app, date, rawID string) (*schedule.Store, domain.ScheduleItem, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, domain.ScheduleItem{}, fmt.Errorf("invalid id %q: %w", rawID, err)
	}
	day, err := parseDay(date, a.now(), a.loc)
	if err != nil {
		return nil, domain.ScheduleItem{}, err
	}

	store, err := a.openSchedule(ctx, day, "")
	if err != nil {
		return nil, domain.ScheduleItem{}, err
	}
	item, ok := store.Item(id)
	if !ok {
		return nil, domain.ScheduleItem{}, fmt.Errorf("no item %s on %s", id, domain.FormatDate(day, a.loc))
	}
	return store, item, nil
}

func newCompletionCmd(use, short string, completed bool) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, item, err := lookup(ctx, a, date, args[0])
				if err != nil {
					return err
				}
				store.SetCompleted(item.ID, completed)
				printView(cmd.OutOrStdout(), store.View(), a.loc)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day the item is on (default today)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item, including every future occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, item, err := lookup(ctx, a, date, args[0])
				if err != nil {
					return err
				}
				store.Delete(item.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", item.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day the item is on (default today)")
	return cmd
}

func newModeCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "mode [mode]",
		Short: "List ordering modes, or show a day in one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printModes(cmd.OutOrStdout())
				return nil
			}
			mode, err := domain.ParseScheduleMode(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := parseDay(date, a.now(), a.loc)
				if err != nil {
					return err
				}
				store, err := a.openSchedule(ctx, day, "")
				if err != nil {
					return err
				}
				if err := store.SetMode(mode); err != nil {
					return err
				}
				printView(cmd.OutOrStdout(), store.View(), a.loc)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (default today)")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the next task by priority, then start time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := parseDay(date, a.now(), a.loc)
				if err != nil {
					return err
				}
				store, err := a.openSchedule(ctx, day, "")
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				item, ok := scheduler.Suggest(store.View().Items)
				if !ok {
					fmt.Fprintln(out, "Nothing left to do.")
					return nil
				}
				fmt.Fprintf(out, "%s  %s  %s\n", item.Title, item.Priority, item.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to pick from (default today)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		output string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "export [date]",
		Short: "Export a day as an iCalendar file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := parseDay(optionalArg(args), a.now(), a.loc)
				if err != nil {
					return err
				}
				store, err := a.openSchedule(ctx, day, "")
				if err != nil {
					return err
				}

				opts := ics.Options{Name: name, Location: a.loc, Now: a.now}
				if output == "" || output == "-" {
					return ics.Write(cmd.OutOrStdout(), store.View().Items, opts)
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				if err := ics.Write(f, store.View().Items, opts); err != nil {
					return errors.Join(err, f.Close())
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().StringVar(&name, "name", ics.DefaultName, "calendar name")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "watch [date]",
		Short: "Show a day and refresh it on STACKIT_REFRESH_SPEC until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := parseDay(optionalArg(args), a.now(), a.loc)
				if err != nil {
					return err
				}
				m, err := parseModeFlag(mode)
				if err != nil {
					return err
				}
				store, err := a.openSchedule(ctx, day, m)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printView(out, store.View(), a.loc)

				var lastPrinted uint64
				cancel := store.Subscribe(func(v schedule.View) {
					if v.IsLoading || v.Version <= lastPrinted {
						return
					}
					lastPrinted = v.Version
					fmt.Fprintln(out)
					printView(out, v, a.loc)
				})
				defer cancel()

				r, err := refresh.New(store, refresh.Config{
					Spec:     a.cfg.Sync.RefreshSpec,
					Location: a.loc,
					Timeout:  a.cfg.Sync.FetchTimeout,
				})
				if err != nil {
					return err
				}
				r.Start()

				<-ctx.Done()

				stopCtx, stop := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
				defer stop()
				return r.Stop(stopCtx)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "ordering: priority, reverse_priority, fifo, lifo or shuffle")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			switch cfg.Storage.Driver {
			case config.DriverPostgres:
				if err := postgres.Migrate(ctx, cfg.Storage.DSN); err != nil {
					return err
				}
			case config.DriverSQLite:
				// Open applies pending migrations.
				store, err := sqlite.Open(ctx, sqlite.DBConfig{
					Path:        cfg.Storage.SQLitePath,
					BusyTimeout: cfg.Storage.SQLiteBusyTimeout,
				})
				if err != nil {
					return err
				}
				if err := store.Close(); err != nil {
					return err
				}
			default:
				return fmt.Errorf("driver %q has no schema to migrate", cfg.Storage.Driver)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s storage\n", cfg.Storage.Driver)
			return nil
		},
	}
}
