package api

import (
	"encoding/json"
	"net/http"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/log"
	"github.com/memri/pod/pkg/types"
)

// envelope is the body shape every route beyond /version accepts: a
// databaseKey (direct ClientAuth shorthand), an optional discriminated-union
// auth, and the operation's own payload.
type envelope struct {
	DatabaseKey string          `json:"databaseKey"`
	Payload     json.RawMessage `json:"payload"`
	Auth        *authUnion      `json:"auth"`
}

type authUnion struct {
	Type        string                `json:"type"`
	DatabaseKey string                `json:"databaseKey"`
	Data        types.PluginAuthToken `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Logger.Error().Err(err).Msg("failed to encode response body")
	}
}

// writeError renders err as {error: {code, message}} at its taxonomy status,
// where code is that HTTP status.
func writeError(w http.ResponseWriter, err error) {
	code := apierr.CodeOf(err)
	log.Logger.Warn().Str("code", string(code)).Err(err).Msg("request failed")
	writeJSON(w, code.Status(), map[string]any{
		"error": map[string]any{"code": code.Status(), "message": err.Error()},
	})
}

func decodeEnvelope(r *http.Request) (envelope, error) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return envelope{}, apierr.Wrap(apierr.BadRequest, "malformed request body", err)
	}
	return env, nil
}

func decodePayload[T any](env envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, apierr.Wrap(apierr.BadRequest, "malformed payload", err)
	}
	return out, nil
}
