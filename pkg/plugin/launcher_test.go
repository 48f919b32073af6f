package plugin

import (
	"context"
	"testing"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestLaunchExecSucceeds(t *testing.T) {
	l := NewLauncher(nil, false, "true", "bridge")
	err := l.Launch(context.Background(), types.PluginRun{
		Image:          "example/downloader",
		TriggerID:      "trig-1",
		FullAddress:    "https://pod.local:8080",
		TargetItemJSON: `{"id":"abc"}`,
		Owner:          "deadbeef",
		AuthJSON:       `{"data":{"nonce":"","encryptedPermissions":""}}`,
	})
	require.NoError(t, err)
}

func TestLaunchExecFailurePropagatesAsInternalServerError(t *testing.T) {
	l := NewLauncher(nil, false, "false", "bridge")
	err := l.Launch(context.Background(), types.PluginRun{
		Image:     "example/downloader",
		TriggerID: "trig-2",
	})
	require.Error(t, err)
	require.Equal(t, apierr.InternalServerError, apierr.CodeOf(err))
}

func TestEnvArgsCarriesAllFourVariables(t *testing.T) {
	l := NewLauncher(nil, false, "true", "bridge")
	env := l.envArgs(types.PluginRun{
		FullAddress:    "https://pod.local:8080",
		TargetItemJSON: `{"id":"abc"}`,
		Owner:          "deadbeef",
		AuthJSON:       `{}`,
	})
	require.Contains(t, env, "POD_FULL_ADDRESS=https://pod.local:8080")
	require.Contains(t, env, "POD_TARGET_ITEM={\"id\":\"abc\"}")
	require.Contains(t, env, "POD_OWNER=deadbeef")
	require.Contains(t, env, "POD_AUTH_JSON={}")
}

func TestContainerNameCombinesImageAndTrigger(t *testing.T) {
	l := NewLauncher(nil, false, "true", "bridge")
	name := l.containerName(types.PluginRun{Image: "example/downloader", TriggerID: "trig-3"})
	require.Equal(t, "example/downloader-trig-3", name)
}
