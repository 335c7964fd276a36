//go:build linux

package main

import "syscall"

// totalSystemMemory returns total system RAM in bytes (Linux)
func totalSystemMemory() (uint64, error) {
	var si syscall.Sysinfo_t
	if err := syscall.Sysinfo(&si); err != nil {
		return 0, err
	}
	// Totalram is counted in Unit-sized blocks
	return uint64(si.Totalram) * uint64(si.Unit), nil
}
