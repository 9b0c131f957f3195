// Package probe holds the Python harness that times a file's execution in a
// child interpreter, and the decoder for its result line.
package probe

import (
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// Marker prefixes the harness result line on stdout.
const Marker = "__PYAUDIT_PROBE__ "

// Harness is passed to `python -I -c`; argv[1] is the file to run.
const Harness = `import json, sys, time
path = sys.argv[1]
with open(path, encoding="utf-8") as fh:
    src = fh.read()
result = {}
try:
    code = compile(src, path, "exec")
    start = time.perf_counter()
    try:
        exec(code, {"__name__": "__main__", "__file__": path})
    except SystemExit:
        pass
    result["seconds"] = time.perf_counter() - start
except Exception as e:
    result["error"] = str(e)
    result["type"] = type(e).__name__
sys.stdout.flush()
sys.stdout.write("\n" + "` + Marker + `" + json.dumps(result) + "\n")
sys.stdout.flush()
`

type result struct {
	Seconds *float64 `json:"seconds"`
	Error   *string  `json:"error"`
	Type    string   `json:"type"`
}

// Decode reads the last marker line of stdout. It returns the measured
// seconds, or a *domain.ExecutionError when the code raised or the harness
// never reported.
func Decode(stdout, stderr string) (float64, error) {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if !strings.HasPrefix(line, Marker) {
			continue
		}
		var r result
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, Marker)), &r); err != nil {
			return 0, &domain.ExecutionError{Message: fmt.Sprintf("unreadable probe result: %v", err)}
		}
		if r.Error != nil {
			return 0, &domain.ExecutionError{Message: *r.Error}
		}
		if r.Seconds == nil {
			return 0, &domain.ExecutionError{Message: "probe reported no timing"}
		}
		return *r.Seconds, nil
	}
	msg := lastLine(stderr)
	if msg == "" {
		msg = "process exited without reporting a result"
	}
	return 0, &domain.ExecutionError{Message: msg}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
