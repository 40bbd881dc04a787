package containerizer

import "strings"

// containerName returns the engine-visible name for id: the fixed,
// process-global prefix followed by the id verbatim.
func containerName(prefix string, id ContainerID) string {
	return prefix + string(id)
}

// parseContainerName inverts containerName. It accepts both "<prefix>…" and
// "/<prefix>…" since engines may report a leading slash, and returns
// (id, false) when the prefix does not match: the signal the Manager uses
// to distinguish its own containers from co-tenants.
func parseContainerName(prefix, engineName string) (ContainerID, bool) {
	name := strings.TrimPrefix(engineName, "/")
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	return ContainerID(strings.TrimPrefix(name, prefix)), true
}
