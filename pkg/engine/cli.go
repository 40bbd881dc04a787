package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cuemby/containerizer/pkg/log"
)

// CLIClient drives an external container engine's command-line binary
// out-of-process. It has no parent-child relationship with the processes it
// starts; every method call is one (or more) engine-binary invocations.
type CLIClient struct {
	// Bin is the engine binary to invoke, e.g. "docker".
	Bin string
}

// NewCLIClient returns a Client that shells out to bin for every operation.
// bin defaults to "docker" if empty.
func NewCLIClient(bin string) *CLIClient {
	if bin == "" {
		bin = "docker"
	}
	return &CLIClient{Bin: bin}
}

var _ Client = (*CLIClient)(nil)

func (c *CLIClient) run(ctx context.Context, args ...string) ([]byte, error) {
	callID := uuid.NewString()
	logger := log.WithComponent("engine").With().Str("call_id", callID).Logger()
	logger.Debug().Strs("args", args).Msg("engine call")

	cmd := exec.CommandContext(ctx, c.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Warn().Err(err).Str("stderr", stderr.String()).Msg("engine call failed")
		return nil, fmt.Errorf("engine %s %s: %w: %s", c.Bin, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Run implements Client.
func (c *CLIClient) Run(ctx context.Context, opts RunOptions) error {
	args := []string{"run", "-d", "--name", opts.Name}

	if opts.Resources.CPUs > 0 {
		args = append(args, "--cpus", strconv.FormatFloat(opts.Resources.CPUs, 'f', -1, 64))
	}
	if opts.Resources.MemB > 0 {
		args = append(args, "--memory", strconv.FormatInt(opts.Resources.MemB, 10))
	}
	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	_, err := c.run(ctx, args...)
	return err
}

// Kill implements Client.
func (c *CLIClient) Kill(ctx context.Context, nameOrID string, force bool) error {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, nameOrID)

	_, err := c.run(ctx, args...)
	if err != nil && strings.Contains(err.Error(), "No such container") {
		// Already gone: success either way.
		return nil
	}
	return err
}

type inspectEntry struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Pid     int  `json:"Pid"`
		Running bool `json:"Running"`
	} `json:"State"`
}

// Inspect implements Client.
func (c *CLIClient) Inspect(ctx context.Context, name string) (*Container, error) {
	out, err := c.run(ctx, "inspect", name)
	if err != nil {
		return nil, err
	}

	var entries []inspectEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("engine inspect: decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("engine inspect: no such container %q", name)
	}

	e := entries[0]
	ct := &Container{
		Name: strings.TrimPrefix(e.Name, "/"),
		ID:   e.ID,
	}
	if e.State.Running && e.State.Pid > 0 {
		pid := e.State.Pid
		ct.Pid = &pid
	}
	return ct, nil
}

// Ps implements Client.
func (c *CLIClient) Ps(ctx context.Context, all bool, prefix string) ([]Container, error) {
	args := []string{"ps", "--format", "{{.ID}}\t{{.Names}}"}
	if all {
		args = append(args, "-a")
	}
	if prefix != "" {
		args = append(args, "--filter", "name="+prefix)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var containers []Container
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		containers = append(containers, Container{ID: fields[0], Name: fields[1]})
	}
	return containers, nil
}
