package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/memri/pod/pkg/api"
	"github.com/memri/pod/pkg/config"
	"github.com/memri/pod/pkg/files"
	"github.com/memri/pod/pkg/log"
	"github.com/memri/pod/pkg/metrics"
	"github.com/memri/pod/pkg/plugin"
	"github.com/memri/pod/pkg/pluginauth"
	"github.com/memri/pod/pkg/schema"
	"github.com/memri/pod/pkg/tenant"
	"github.com/memri/pod/pkg/types"
)

var (
	// Version information, set via ldflags during build.
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pod",
	Short: "Pod - a single-node, multi-tenant personal data store",
	RunE:  runServe,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Pod version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("listen-addr", "127.0.0.1:3030", "address the JSON API listens on")
	rootCmd.PersistentFlags().String("metrics-addr", "127.0.0.1:9090", "address the metrics/health endpoints listen on")

	config.BindFlags(rootCmd)

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %v", err)
	}
	listenAddr, _ := cmd.Flags().GetString("listen-addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	if cfg.SchemaSeedPath != "" {
		if err := loadSchemaSeed(cfg.SchemaSeedPath); err != nil {
			return fmt.Errorf("failed to load schema seed: %v", err)
		}
	}

	for _, dir := range []string{cfg.DBRoot, cfg.FilesRoot} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create %s: %v", dir, err)
		}
	}

	startupLog := log.WithComponent("startup")

	gate := tenant.New(cfg.DBRoot, cfg.FilesRoot, cfg.AllowedOwnerHashes)
	defer gate.Close()

	fileStore, err := files.NewStore(cfg.FilesRoot)
	if err != nil {
		return fmt.Errorf("failed to open file store: %v", err)
	}

	launcher, err := newLauncher(cfg)
	if err != nil {
		return fmt.Errorf("failed to prepare plugin launcher: %v", err)
	}

	procKey, err := pluginauth.NewProcessKey()
	if err != nil {
		return fmt.Errorf("failed to generate plugin process key: %v", err)
	}

	metrics.SetVersion(Version)
	metrics.RegisterComponent("tenant_gate", true, "ready")
	metrics.RegisterComponent("plugin_launcher", true, "ready")
	metrics.RegisterComponent("api", false, "starting")

	collector := metrics.NewCollector(gate)
	collector.Start()
	defer collector.Stop()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.Handle("/health", metrics.HealthHandler())
	metricsMux.Handle("/ready", metrics.ReadyHandler())
	metricsMux.Handle("/live", metrics.LivenessHandler())
	metricsServer := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startupLog.Error().Err(err).Msg("metrics server error")
		}
	}()
	startupLog.Info().Str("addr", metricsAddr).Msg("metrics and health endpoints listening")

	apiServer := api.New(Version, gate, fileStore, launcher, procKey, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(ctx, listenAddr); err != nil {
			errCh <- err
		}
	}()
	time.Sleep(100 * time.Millisecond)
	metrics.RegisterComponent("api", true, "ready")
	fmt.Printf("API listening on %s\n", listenAddr)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nAPI server error: %v\n", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "metrics server shutdown error: %v\n", err)
	}

	fmt.Println("Shutdown complete")
	return nil
}

// newLauncher builds a plugin.Launcher per cfg.UseContainerOrchestrator: a
// containerd client when orchestration is requested, or nil (falling back to
// os/exec) otherwise.
func newLauncher(cfg *config.Config) (*plugin.Launcher, error) {
	var client *containerd.Client
	if cfg.UseContainerOrchestrator {
		var err error
		client, err = containerd.New(cfg.ContainerdSocket)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to containerd at %s: %w", cfg.ContainerdSocket, err)
		}
	}
	return plugin.NewLauncher(client, cfg.UseContainerOrchestrator, cfg.RuntimeBinary, cfg.PluginsContainerNetwork), nil
}

// schemaSeedFile is the on-disk shape of a schema seed file: a flat list of
// (itemType, propertyName, valueType) entries, in a declarative YAML form.
type schemaSeedFile struct {
	Entries []struct {
		ItemType     string `yaml:"itemType"`
		PropertyName string `yaml:"propertyName"`
		ValueType    string `yaml:"valueType"`
	} `yaml:"entries"`
}

// loadSchemaSeed merges additional schema entries from a YAML file into the
// built-in schema.Seed, applied once at process start before any owner
// database is opened.
func loadSchemaSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f schemaSeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for _, e := range f.Entries {
		vt, err := schema.ParseValueType(e.ValueType)
		if err != nil {
			return fmt.Errorf("schema seed entry %s.%s: %w", e.ItemType, e.PropertyName, err)
		}
		schema.Seed = append(schema.Seed, types.SchemaEntry{
			ItemType:     e.ItemType,
			PropertyName: e.PropertyName,
			ValueType:    vt,
		})
	}
	return nil
}
