// Package config binds Pod's process configuration to cobra persistent
// flags, each defaulted from an environment variable the way an operator
// running the binary under a process supervisor expects.
package config

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// Config is Pod's recognized environment/config surface.
type Config struct {
	DBRoot                   string
	FilesRoot                string
	AllowedOwnerHashes       string
	PluginCallbackAddress    string
	PluginsContainerNetwork  string
	UseContainerOrchestrator bool
	ContainerdSocket         string
	RuntimeBinary            string
	SMTPRelay                string
	SMTPUser                 string
	SMTPPassword             string
	SMTPPort                 int
	NonTLS                   bool
	InsecureNonTLS           bool
	SchemaSeedPath           string
}

// BindFlags registers every Config field as a persistent flag on cmd,
// defaulted from its POD_* environment variable.
func BindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("db-root", envOrDefault("POD_DB_ROOT", "./data/db"), "directory holding per-owner encrypted database files")
	f.String("files-root", envOrDefault("POD_FILES_ROOT", "./data/files"), "directory holding per-owner encrypted blob stores")
	f.String("allowed-owner-hashes", envOrDefault("POD_ALLOWED_OWNER_HASHES", ""), "comma-separated 64-hex-character allowed owner hashes, or ANY")
	f.String("plugin-callback-address", envOrDefault("POD_PLUGIN_CALLBACK_ADDRESS", ""), "address plugins call back to reach this Pod")
	f.String("plugins-container-network", envOrDefault("POD_PLUGINS_CONTAINER_NETWORK", "bridge"), "container network plugins are launched into")
	f.Bool("use-container-orchestrator", envOrDefaultBool("POD_USE_CONTAINER_ORCHESTRATOR", false), "launch plugins through containerd instead of a bare os/exec")
	f.String("containerd-socket", envOrDefault("POD_CONTAINERD_SOCKET", "/run/containerd/containerd.sock"), "containerd socket path, used when use-container-orchestrator is set")
	f.String("runtime-binary", envOrDefault("POD_RUNTIME_BINARY", "docker"), "container runtime CLI invoked when use-container-orchestrator is not set")
	f.String("smtp-relay", envOrDefault("POD_SMTP_RELAY", ""), "SMTP relay host for plugin-failure notifications")
	f.String("smtp-user", envOrDefault("POD_SMTP_USER", ""), "SMTP auth username")
	f.String("smtp-password", envOrDefault("POD_SMTP_PASSWORD", ""), "SMTP auth password")
	f.Int("smtp-port", envOrDefaultInt("POD_SMTP_PORT", 587), "SMTP relay port")
	f.Bool("non-tls", envOrDefaultBool("POD_NON_TLS", false), "serve plain HTTP instead of HTTPS")
	f.Bool("insecure-non-tls", envOrDefaultBool("POD_INSECURE_NON_TLS", false), "allow plain HTTP even when a TLS certificate is configured")
	f.String("schema-seed-path", envOrDefault("POD_SCHEMA_SEED_PATH", ""), "path to an additional schema seed file merged into pkg/schema.Seed")
}

// Load reads every bound flag off cmd into a Config.
func Load(cmd *cobra.Command) (*Config, error) {
	f := cmd.Flags()
	c := &Config{}
	var err error

	if c.DBRoot, err = f.GetString("db-root"); err != nil {
		return nil, err
	}
	if c.FilesRoot, err = f.GetString("files-root"); err != nil {
		return nil, err
	}
	if c.AllowedOwnerHashes, err = f.GetString("allowed-owner-hashes"); err != nil {
		return nil, err
	}
	if c.PluginCallbackAddress, err = f.GetString("plugin-callback-address"); err != nil {
		return nil, err
	}
	if c.PluginsContainerNetwork, err = f.GetString("plugins-container-network"); err != nil {
		return nil, err
	}
	if c.UseContainerOrchestrator, err = f.GetBool("use-container-orchestrator"); err != nil {
		return nil, err
	}
	if c.ContainerdSocket, err = f.GetString("containerd-socket"); err != nil {
		return nil, err
	}
	if c.RuntimeBinary, err = f.GetString("runtime-binary"); err != nil {
		return nil, err
	}
	if c.SMTPRelay, err = f.GetString("smtp-relay"); err != nil {
		return nil, err
	}
	if c.SMTPUser, err = f.GetString("smtp-user"); err != nil {
		return nil, err
	}
	if c.SMTPPassword, err = f.GetString("smtp-password"); err != nil {
		return nil, err
	}
	if c.SMTPPort, err = f.GetInt("smtp-port"); err != nil {
		return nil, err
	}
	if c.NonTLS, err = f.GetBool("non-tls"); err != nil {
		return nil, err
	}
	if c.InsecureNonTLS, err = f.GetBool("insecure-non-tls"); err != nil {
		return nil, err
	}
	if c.SchemaSeedPath, err = f.GetString("schema-seed-path"); err != nil {
		return nil, err
	}
	return c, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
