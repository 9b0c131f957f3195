package local

import "os/exec"

// Locator resolves tool names through the executable search path.
// Paths maps a tool name to the executable actually invoked for it; names
// without an entry are looked up as-is.
type Locator struct {
	Paths map[string]string
}

// Missing returns the names whose executable cannot be resolved.
func (l Locator) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		bin := name
		if p, ok := l.Paths[name]; ok && p != "" {
			bin = p
		}
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}
