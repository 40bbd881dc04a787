package containerizer

// CommandInfo is the subset of a framework command the core inspects: the
// program to run, its arguments, its environment, and, when present, the
// container image URI that marks this command as belonging to an external
// engine rather than running bare on the host.
type CommandInfo struct {
	Value       string
	Arguments   []string
	Environment map[string]string

	// ContainerImage is the raw URI from the command's container qualifier,
	// e.g. "docker:///nginx". Empty if the command carries no container
	// qualifier at all.
	ContainerImage string
}

// ExecutorInfo describes the executor the agent asked the core to launch,
// either as the container root itself (executor-launch) or as the local
// supervisor spawned alongside a task's container (task-launch).
type ExecutorInfo struct {
	ExecutorID  string
	FrameworkID string
	Command     CommandInfo
}

// TaskInfo describes a single task launched inside its own container, with
// its own resource allocation and command.
type TaskInfo struct {
	TaskID    string
	Command   CommandInfo
	Resources Resources
}
