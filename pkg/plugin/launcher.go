// Package plugin launches the external plugin containers Pod's API exposes,
// treating their internals as out of scope beyond their invocation surface.
package plugin

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/types"
)

// podNamespace is the containerd namespace Pod's plugin containers run in.
const podNamespace = "pod"

// Launcher runs a PluginRun either through containerd (when useOrchestrator
// is true) or through a bare os/exec invocation of a container-runtime CLI
// with the equivalent argv (the common path, since the container runtime
// itself is out of scope here).
type Launcher struct {
	client           *containerd.Client
	useOrchestrator  bool
	runtimeBinary    string
	containerNetwork string
}

// NewLauncher builds a Launcher. client may be nil when useOrchestrator is
// false. runtimeBinary names the CLI os/exec shells out to (e.g. "docker",
// "nerdctl") when useOrchestrator is false.
func NewLauncher(client *containerd.Client, useOrchestrator bool, runtimeBinary, containerNetwork string) *Launcher {
	if runtimeBinary == "" {
		runtimeBinary = "docker"
	}
	return &Launcher{
		client:           client,
		useOrchestrator:  useOrchestrator,
		runtimeBinary:    runtimeBinary,
		containerNetwork: containerNetwork,
	}
}

// Launch runs one plugin invocation to completion.
func (l *Launcher) Launch(ctx context.Context, run types.PluginRun) error {
	if l.useOrchestrator {
		return l.launchContainerd(ctx, run)
	}
	return l.launchExec(ctx, run)
}

func (l *Launcher) envArgs(run types.PluginRun) []string {
	return []string{
		"POD_FULL_ADDRESS=" + run.FullAddress,
		"POD_TARGET_ITEM=" + run.TargetItemJSON,
		"POD_OWNER=" + run.Owner,
		"POD_AUTH_JSON=" + run.AuthJSON,
	}
}

func (l *Launcher) containerName(run types.PluginRun) string {
	return fmt.Sprintf("%s-%s", run.Image, run.TriggerID)
}

// launchContainerd issues the run through containerd's
// client.NewContainer/NewTask calls, torn down unconditionally once the
// task exits.
func (l *Launcher) launchContainerd(ctx context.Context, run types.PluginRun) error {
	ctx = namespaces.WithNamespace(ctx, podNamespace)

	image, err := l.client.Pull(ctx, run.Image, containerd.WithPullUnpack)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, fmt.Sprintf("failed to pull plugin image %s", run.Image), err)
	}

	name := l.containerName(run)
	ctr, err := l.client.NewContainer(
		ctx,
		name,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(name+"-snapshot", image),
		containerd.WithNewSpec(oci.WithImageConfig(image), oci.WithEnv(l.envArgs(run))),
	)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to create plugin container", err)
	}
	defer ctr.Delete(ctx, containerd.WithSnapshotCleanup)

	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to create plugin task", err)
	}
	defer task.Delete(ctx)

	statusC, err := task.Wait(ctx)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to wait on plugin task", err)
	}
	if err := task.Start(ctx); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to start plugin task", err)
	}

	status := <-statusC
	if status.ExitCode() != 0 {
		return apierr.Newf(apierr.InternalServerError, "plugin %s exited with code %d", run.Image, status.ExitCode())
	}
	return nil
}

// launchExec shells out to l.runtimeBinary with the literal argv surface:
// run --network=<net> --env=... --name=<image>-<triggerId> --rm -- <image>.
func (l *Launcher) launchExec(ctx context.Context, run types.PluginRun) error {
	args := []string{"run", "--network=" + l.containerNetwork}
	for _, e := range l.envArgs(run) {
		args = append(args, "--env="+e)
	}
	args = append(args, "--name="+l.containerName(run), "--rm", "--", run.Image)

	cmd := exec.CommandContext(ctx, l.runtimeBinary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, fmt.Sprintf("plugin %s failed: %s", run.Image, string(output)), err)
	}
	return nil
}
