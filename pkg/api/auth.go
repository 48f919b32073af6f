package api

import (
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/pluginauth"
)

// resolveDatabaseKey extracts the real 64-hex-character database key (or ""
// for the no-key mode) from a request envelope. A ClientAuth union member, or
// the top-level databaseKey field when no auth union is present, is used
// as-is; a PluginAuth member is decrypted through procKey, the one place a
// plugin's opaque token is turned back into the raw key it stands for.
func resolveDatabaseKey(env envelope, procKey *pluginauth.ProcessKey) (string, error) {
	if env.Auth == nil {
		return env.DatabaseKey, nil
	}

	switch env.Auth.Type {
	case "ClientAuth":
		return env.Auth.DatabaseKey, nil
	case "PluginAuth":
		key, err := procKey.Extract(env.Auth.Data)
		if err != nil {
			return "", err
		}
		defer key.Destroy()
		return key.String(), nil
	default:
		return "", apierr.Newf(apierr.BadRequest, "unknown auth type %q", env.Auth.Type)
	}
}
