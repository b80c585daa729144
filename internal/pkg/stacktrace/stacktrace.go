// Package stacktrace condenses a raw goroutine stack into the frames that
// belong to this repository, which is what a panic log actually needs.
package stacktrace

import "strings"

// InternalPaths extracts "internal/...go:line" entries from the output of
// runtime/debug.Stack. Frames from the runtime and dependencies are skipped.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		cut := strings.Index(line, ".go:")
		if cut == -1 || !strings.Contains(line, "/internal/") {
			continue
		}

		// Trim the trailing " +0x..." offset when present.
		end := len(line)
		if sp := strings.Index(line[cut:], " "); sp != -1 {
			end = cut + sp
		}

		frame := line[:end]
		if at := strings.Index(frame, "/internal/"); at != -1 {
			paths = append(paths, frame[at+1:])
		}
	}

	return paths
}
