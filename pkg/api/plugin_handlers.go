package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/log"
	"github.com/memri/pod/pkg/metrics"
	"github.com/memri/pod/pkg/pod"
	"github.com/memri/pod/pkg/types"
)

// runPluginPayload is the payload shape for run_downloader/run_importer/
// run_indexer: which image to launch, a trigger id to disambiguate repeated
// runs of the same image, and the item the plugin should act on.
type runPluginPayload struct {
	Image     string `json:"image"`
	TriggerID string `json:"triggerId"`
	ItemID    string `json:"itemId"`
}

// handleRunPlugin builds the handler shared by run_downloader/run_importer/
// run_indexer: kind only labels the log lines, the launch metrics and the
// failure notification, since the HTTP surface and launch mechanics are
// identical across the three.
func (s *Server) handleRunPlugin(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, env, ok := s.open(w, r)
		if !ok {
			return
		}
		req, err := decodePayload[runPluginPayload](env)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Image == "" || req.TriggerID == "" || req.ItemID == "" {
			writeError(w, apierr.New(apierr.BadRequest, "image, triggerId and itemId are required"))
			return
		}

		databaseKey, err := resolveDatabaseKey(env, s.procKey)
		if err != nil {
			writeError(w, err)
			return
		}

		var targetItem map[string]any
		err = engine.Read(func(tx *sql.Tx) error {
			f, err := pod.Open(engine, tx)
			if err != nil {
				return err
			}
			targetItem, err = f.Get(req.ItemID)
			return err
		})
		if err != nil {
			writeError(w, err)
			return
		}

		targetItemJSON, err := json.Marshal(targetItem)
		if err != nil {
			writeError(w, apierr.Wrap(apierr.InternalServerError, "failed to marshal target item", err))
			return
		}

		token, err := s.procKey.Issue(databaseKey)
		if err != nil {
			writeError(w, err)
			return
		}
		authJSON, err := json.Marshal(types.PluginAuth{Data: token})
		if err != nil {
			writeError(w, apierr.Wrap(apierr.InternalServerError, "failed to marshal plugin auth", err))
			return
		}

		run := types.PluginRun{
			Image:          req.Image,
			TriggerID:      req.TriggerID,
			Network:        s.cfg.PluginsContainerNetwork,
			FullAddress:    s.cfg.PluginCallbackAddress,
			TargetItemJSON: string(targetItemJSON),
			Owner:          r.PathValue("owner"),
			AuthJSON:       string(authJSON),
		}

		timer := metrics.NewTimer()
		if err := s.plugins.Launch(context.Background(), run); err != nil {
			timer.ObserveDurationVec(metrics.PluginLaunchDuration, kind)
			metrics.PluginLaunchesTotal.WithLabelValues(kind, "failure").Inc()
			log.Logger.Error().Str("kind", kind).Str("image", req.Image).Err(err).Msg("plugin launch failed")
			if mailErr := s.mailer.Send(s.cfg.SMTPUser, kind+" plugin failed",
				fmt.Sprintf("image %s (trigger %s) failed to launch: %v", req.Image, req.TriggerID, err)); mailErr != nil {
				log.Logger.Error().Err(mailErr).Msg("failed to send plugin-failure notification")
			}
			writeError(w, apierr.Wrap(apierr.InternalServerError, "plugin launch failed", err))
			return
		}
		timer.ObserveDurationVec(metrics.PluginLaunchDuration, kind)
		metrics.PluginLaunchesTotal.WithLabelValues(kind, "success").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "launched"})
	}
}
