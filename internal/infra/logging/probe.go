package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PointerFile records where the service is actually logging, so an
	// operator (or the status command) can find the logs without guessing
	// which candidate directory won the probe.
	PointerFile = "mtrepair-location.txt"

	probeSentinel = "mtrepair-probe.tmp"
)

// probeDir reports whether dir accepts a full create-write-sync-delete
// cycle. Existence alone is not enough on locked-down hosts.
func probeDir(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	path := filepath.Join(dir, probeSentinel)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return false
	}
	_, werr := f.WriteString("probe")
	serr := f.Sync()
	f.Close()
	os.Remove(path)
	return werr == nil && serr == nil
}

// pickDir returns the first writable candidate. When every candidate
// fails the probe it falls back to the OS temp directory, which is the
// least likely place to be unwritable.
func pickDir(candidates []string) string {
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if probeDir(dir) {
			return dir
		}
	}
	return os.TempDir()
}

// writePointer drops the location pointer into dir. Errors are ignored;
// the pointer is a troubleshooting aid, not a dependency.
func writePointer(dir, opPath, dbgPath string) {
	content := fmt.Sprintf("location: %s\nlog: %s\ndebug: %s\n", dir, opPath, dbgPath)
	_ = os.WriteFile(filepath.Join(dir, PointerFile), []byte(content), 0o644)
}

// FindPointer scans the candidate directories for the location pointer
// and returns the operational log path it names.
func FindPointer(candidates []string) (string, error) {
	// pickDir may have fallen back to the temp dir, so check it too.
	for _, dir := range append(append([]string{}, candidates...), os.TempDir()) {
		if dir == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, PointerFile))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if rest, ok := strings.CutPrefix(line, "log: "); ok {
				return strings.TrimSpace(rest), nil
			}
		}
	}
	return "", os.ErrNotExist
}
