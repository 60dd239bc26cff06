package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	v1 "github.com/clusterreg/clusterreg/pkg/api/v1"
	"github.com/clusterreg/clusterreg/pkg/client"
	"github.com/clusterreg/clusterreg/pkg/cluster"
	"github.com/clusterreg/clusterreg/pkg/config"
	"github.com/clusterreg/clusterreg/pkg/liveness"
	"github.com/clusterreg/clusterreg/pkg/logger"
	"github.com/clusterreg/clusterreg/pkg/networking"
	"github.com/clusterreg/clusterreg/pkg/registry"
	"github.com/clusterreg/clusterreg/pkg/replication"
	"github.com/clusterreg/clusterreg/pkg/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry node",
	Long: `Run a single registry node: serve the registry HTTP surface, heartbeat
sweep for expired instances, participate in leader election, and replicate
state either as leader (serving snapshots) or follower (pulling them).`,
	RunE: runServe,
}

const (
	// shutdownDrainTimeout bounds the whole drain: HTTP server shutdown
	// plus the wait for in-flight periodic ticks, after which shutdown
	// proceeds to the final snapshot without waiting further.
	shutdownDrainTimeout = 5 * time.Second
	serverReadTimeout    = 10 * time.Second
	serverWriteTimeout   = 15 * time.Second
	serverIdleTimeout    = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8761", "address for the HTTP server to listen on")
	serveCmd.Flags().Bool("print-config", false, "print the resolved configuration and exit without starting the server")

	for _, name := range []string{"address", "print-config"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			logger.Fatalf("failed to bind %s flag: %v", name, err)
		}
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if viper.GetBool("print-config") {
		fmt.Printf("%+v\n", *cfg)
		return nil
	}

	address := viper.GetString("address")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	localIP, err := networking.ResolveLocalIP()
	if err != nil {
		logger.Warnf("could not resolve local IP, falling back to configured myUrl: %v", err)
	}

	view := cluster.NewView(cfg.ServerList, cfg.MyURL, localIP)
	election := cluster.NewElection(view)

	sm := registry.NewStateMachine(nil)

	snapStore := state.NewStore(cfg.SnapshotPath, cfg.SnapshotInterval, sm)
	if err := snapStore.Load(ctx); err != nil {
		logger.Errorw("failed to load durable snapshot at startup, starting empty", "error", err)
	}

	svc := registry.NewService(sm, view)

	peerClient := client.NewPeerClient()
	repl := replication.NewReplicator(sm, view, peerClient)

	var loop *cluster.Loop
	if cfg.ClusterMode {
		loop = cluster.NewLoop(view, election, repl, peerClient, cfg.HeartbeatInterval)
		loop.Start(ctx)
		logger.Infof("cluster loop started: period=%s peers=%d", cfg.HeartbeatInterval, len(view.Servers()))
	} else {
		logger.Info("clusterMode disabled; running as a standalone leader")
		view.SetLeader(view.SelfURL())
	}

	sweeper := liveness.NewSweeper(sm, registry.SystemClock{}, liveness.DefaultPeriod, cfg.NodeTimeout)
	sweeper.Start()

	snapStore.Start(ctx)

	router := v1.NewRouter(svc, view)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("registryd listening on %s (self=%s)", address, view.SelfURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrainTimeout)
	defer cancel()

	if err := server.Shutdown(drainCtx); err != nil {
		logger.Errorw("server forced to shutdown", "error", err)
	}

	tasksStopped := make(chan struct{})
	go func() {
		sweeper.Stop()
		snapStore.Stop()
		if loop != nil {
			loop.Stop()
		}
		close(tasksStopped)
	}()
	select {
	case <-tasksStopped:
	case <-drainCtx.Done():
		logger.Warn("periodic tasks did not stop within the drain timeout")
	}

	if err := snapStore.Save(context.Background()); err != nil {
		logger.Errorw("final snapshot save failed", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
