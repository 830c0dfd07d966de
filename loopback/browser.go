// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package loopback

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// OpenBrowser opens url with the system browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string

	switch {
	case runtime.GOOS == "windows" || isWSL():
		cmd = "cmd.exe"
		args = []string{"/c", "start"}
		url = strings.ReplaceAll(url, "&", "^&")
	case runtime.GOOS == "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}

// isWSL tests if the binary is being run in Windows Subsystem for Linux
func isWSL() bool {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return false
	}
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}
