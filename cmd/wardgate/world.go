package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/cli"
	"mercator-hq/wardgate/pkg/config"
	"mercator-hq/wardgate/pkg/dispatch"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/world/mcpi"
	"mercator-hq/wardgate/pkg/zone"
)

var worldFlags struct {
	address string
	watch   bool
}

var worldCmd = &cobra.Command{
	Use:   "world",
	Short: "Run the game-world poller",
	Long: `Connect to a Minecraft-Pi server and serve the hospital world.

Hitting the records terminal shows the configured patient record to the
player. Hitting a ward door segment lets doctors through and closes the
door on everyone else. Players type 'register' in chat to sign up.

When --config is given, edits to the world layout (terminal, doors,
patient_id) are applied without restarting.

Examples:
  # Connect to the default endpoint (localhost:4711)
  wardgate world

  # Override the endpoint
  wardgate world --address 10.0.0.5:4711`,
	RunE: runWorld,
}

func init() {
	rootCmd.AddCommand(worldCmd)

	worldCmd.Flags().StringVar(&worldFlags.address, "address", "", "override the Minecraft-Pi API address")
	worldCmd.Flags().BoolVar(&worldFlags.watch, "watch", true, "reload the world layout when the config file changes")
}

func runWorld(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	wc := a.cfg.World
	if worldFlags.address != "" {
		wc.Address = worldFlags.address
	}

	layout := layoutFromConfig(wc)
	if err := layout.Validate(); err != nil {
		return cli.NewConfigError("world", err.Error())
	}

	sessions, redisClient, err := sessionStore(ctx, a.cfg.Onboarding)
	if err != nil {
		return cli.NewCommandError("world", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		a.health.Register("redis", redisCheck(redisClient))
	}

	client, err := mcpi.Dial(ctx, mcpi.Config{
		Address:     wc.Address,
		DialTimeout: wc.DialTimeout,
		IOTimeout:   wc.IOTimeout,
	})
	if err != nil {
		return cli.NewCommandError("world", err)
	}
	defer client.Close()

	guard := zone.NewGuard(client, a.recorder, wc.DoorCloseDelay).WithMetrics(a.metrics).WithTracer(a.tracer)
	machine := onboarding.NewMachine(sessions, a.store, a.registrar()).WithMetrics(a.metrics)
	poller := dispatch.NewPoller(client, a.store, a.engine(), guard, machine, layout, wc.PollInterval).WithTracer(a.tracer)

	a.serveTelemetry(ctx)
	go sweepSessions(ctx, sessions, a.cfg.Onboarding.SessionTTL)

	if cfgFile != "" && worldFlags.watch {
		go watchLayout(ctx, poller)
	}

	slog.Info("world bridge connected", "address", wc.Address, "session_backend", a.cfg.Onboarding.SessionBackend)
	if err := poller.Run(ctx); err != nil {
		return cli.NewCommandError("world", err)
	}
	return nil
}

// watchLayout applies layout changes from the config file to poller. A
// file that fails validation keeps the current layout.
func watchLayout(ctx context.Context, poller *dispatch.Poller) {
	watcher := config.NewWatcher(cfgFile, config.DefaultDebounceInterval)
	err := watcher.Watch(ctx, func(cfg *config.Config) {
		layout := layoutFromConfig(cfg.World)
		if err := layout.Validate(); err != nil {
			slog.Warn("ignoring invalid world layout", "error", err)
			return
		}
		poller.SetLayout(layout)
	})
	if err != nil {
		slog.Error("config watcher stopped", "path", cfgFile, "error", err)
	}
}
