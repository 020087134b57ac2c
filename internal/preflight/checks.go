package preflight

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	inotifyWatchesPath = "/proc/sys/fs/inotify/max_user_watches"
	minInotifyWatches  = 128
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckInotifyWatches reports the per-user inotify watch limit. The watcher
// needs a single watch, so this only fails when the limit is unusually low.
func CheckInotifyWatches() Result {
	return checkInotifyWatches(inotifyWatchesPath)
}

func checkInotifyWatches(path string) Result {
	const name = "inotify watches"
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: "limit unavailable on this platform"}
	}
	limit, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("unparseable limit %q", strings.TrimSpace(string(data)))}
	}
	if limit < minInotifyWatches {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("max_user_watches=%d is below %d", limit, minInotifyWatches)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("max_user_watches=%d", limit)}
}
