package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xvierd/keeper/internal/adapters/alarm"
	"github.com/xvierd/keeper/internal/adapters/badge"
	"github.com/xvierd/keeper/internal/adapters/notification"
	"github.com/xvierd/keeper/internal/protocol"
	"github.com/xvierd/keeper/internal/services"
)

// alarmBuffer is how many undelivered wake signals the scheduler holds.
const alarmBuffer = 16

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background timer",
	Long: `Run the background process that owns the timer. It counts down while no
popup is open, advances through pomodoros and breaks, shows the countdown badge
and sends a notification when a phase ends.

The daemon listens on a unix socket for commands from the popup and the CLI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(setupSignalHandler())
	},
}

func runDaemon(ctx context.Context) error {
	cfg := app.config

	logger, closeLog, err := openDaemonLog(cfg.Daemon.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	scheduler := alarm.New(alarmBuffer)
	defer scheduler.Stop()

	notifier := notification.New(&cfg.Notifications, app.storage.Settings(), logger)
	defer notifier.Wait()

	engine := services.NewTimerEngine(
		app.storage,
		scheduler,
		badge.New(cfg.Badge.File),
		notifier,
		services.EngineOptions{
			WakeInterval:      cfg.Daemon.WakeInterval.Std(),
			KeepAliveInterval: cfg.Daemon.KeepAliveInterval.Std(),
			Logger:            logger,
			PomodoroColor:     cfg.Badge.ColorPomodoro,
			BreakColor:        cfg.Badge.ColorBreak,
			InstallSettings:   cfg.Defaults.Settings(),
		},
	)

	if err := engine.Install(ctx); err != nil {
		return fmt.Errorf("failed to install defaults: %w", err)
	}
	if err := engine.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume timer: %w", err)
	}
	logger.Printf("daemon started, listening on %s", cfg.Daemon.Socket)

	server := protocol.NewServer(protocol.NewDispatcher(engine, logger), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.Daemon.Socket)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case fired := <-scheduler.C():
				if err := engine.HandleAlarm(gctx, fired.Name); err != nil {
					logger.Printf("alarm %s: %v", fired.Name, err)
				}
			}
		}
	})

	runErr := g.Wait()

	// ctx is already cancelled here; suspension still needs to write.
	if err := engine.Suspend(context.Background()); err != nil {
		logger.Printf("failed to suspend timer: %v", err)
	}
	logger.Printf("daemon stopped")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// openDaemonLog returns a logger writing to stderr and, when path is set, the log file.
func openDaemonLog(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(os.Stderr, "keeper: ", log.LstdFlags), func() {}, nil
	}

	if err := os.MkdirAll(getDir(path), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open daemon log: %w", err)
	}

	logger := log.New(io.MultiWriter(os.Stderr, f), "keeper: ", log.LstdFlags)
	return logger, func() { _ = f.Close() }, nil
}
