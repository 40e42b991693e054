package db

import (
	"fmt"
	"os"
	"strings"
)

func isRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// checkSQLiteMount refuses to create a fresh SQLite file inside a container,
// where it would vanish with the container. The host should mount it with a
// volume instead.
func checkSQLiteMount(path string) error {
	if !isRunningInDocker() || isMemoryDSN(path) {
		return nil
	}

	file, _, _ := strings.Cut(strings.TrimPrefix(path, "file:"), "?")
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("SQLite database file %s not mounted, please use docker volumes to mount it", file)
	}

	return nil
}

func isMemoryDSN(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}
