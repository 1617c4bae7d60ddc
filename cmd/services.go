package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xvierd/keeper/internal/adapters/storage"
	"github.com/xvierd/keeper/internal/config"
	"github.com/xvierd/keeper/internal/ports"
	"github.com/xvierd/keeper/internal/protocol"
	"github.com/xvierd/keeper/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config   *config.Config
	storage  ports.Storage
	client   *protocol.Client
	commands ports.TimerCommands
	pomodoro *services.PomodoroService
	state    *services.StateService
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
// Every command except the daemon reaches the timer through the socket.
func initializeServices() error {
	var err error
	app.config, err = config.Load()
	if err != nil {
		// If config loading fails, use defaults
		fmt.Fprintf(os.Stderr, "Warning: %v; using default configuration\n", err)
		app.config = config.DefaultConfig()
		if err := app.config.ResolvePaths(); err != nil {
			return err
		}
	}

	if dbPath == "" {
		dbPath = config.GetDBPath(app.config)
	}
	if socketPath != "" {
		app.config.Daemon.Socket = socketPath
	}

	if err := os.MkdirAll(getDir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	app.storage, err = storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.client = protocol.NewClient(app.config.Daemon.Socket, app.config.Daemon.RequestTimeout.Std())
	app.commands = protocol.NewCaller(app.client)
	app.pomodoro = services.NewPomodoroService(app.commands, app.storage.Settings())
	app.state = services.NewStateService(app.pomodoro, app.storage.Phases())

	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	if app.storage != nil {
		return app.storage.Close()
	}
	return nil
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}
