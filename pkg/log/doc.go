/*
Package log provides structured logging for Pod, built on zerolog.

The log package wraps zerolog to give Pod a single global logger, configured
once at process start from the command line, and a pair of context-logger
constructors for the two places a log line needs to carry more than the
global logger's fields: component-scoped startup/shutdown logging, and
owner-scoped logging on the tenant gate's connection-open path. Everywhere
else — request handlers, the façade, the plugin launcher — logs through
log.Logger directly, matching the call-site-owns-its-fields style the rest
of the codebase uses for zerolog.

# Usage

Initializing the logger:

	import "github.com/memri/pod/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Direct logging, the common case:

	log.Logger.Info().Str("addr", addr).Msg("pod http api listening")
	log.Logger.Warn().Str("code", string(code)).Err(err).Msg("request failed")
	log.Logger.Error().Err(err).Msg("failed to encode response body")

Component-scoped logging, for lines that precede any single owner request:

	startupLog := log.WithComponent("startup")
	startupLog.Info().Str("addr", metricsAddr).Msg("metrics and health endpoints listening")

Owner-scoped logging, for the tenant gate's connection lifecycle:

	ownerLog := log.WithOwner(ownerHex)
	ownerLog.Info().Msg("opened owner database connection")

# Log levels

Debug is for development and local troubleshooting; Info is the default
production level and covers request lifecycle and startup/shutdown; Warn
covers recoverable per-request failures (a handler rejecting a malformed
request); Error covers operation failures worth investigating (a plugin
launch failing, a response body that couldn't be encoded).

# Security

Pod's databaseKey and plugin-auth tokens never appear in a log line — only
owner ids, item ids, and route names are logged, never request bodies or
decrypted item data.
*/
package log
