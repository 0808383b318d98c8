//go:build !windows

package monitor

import (
	"os"
	"syscall"
)

// diskUsage returns the bytes allocated for a file, which is smaller than
// its logical size for sparse badger value logs.
func diskUsage(path string, info os.FileInfo) (int64, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.Size(), nil
	}
	// st_blocks is always in 512 byte units
	return stat.Blocks * 512, nil
}
