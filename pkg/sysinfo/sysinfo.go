// Package sysinfo probes the host platform: operating system, Linux
// distribution, architecture, WSL, and desktop environment.
package sysinfo

import (
	"os"
	"runtime"
	"strings"
)

// Info describes the host system
type Info struct {
	OS            string // "linux", "macos", ...
	Distro        string // os-release ID, "none" off Linux
	Arch          string // normalized architecture ("amd64", "arm64", ...)
	WSL           bool
	Desktop       bool
	DisplayServer string // "wayland", "x11" or "none"
}

// Detect probes the current host
func Detect() Info {
	info := Info{
		OS:   detectOS(),
		Arch: runtime.GOARCH,
	}
	info.Distro = detectDistro(info.OS)
	info.WSL = detectWSL(info.OS)
	info.Desktop = os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	info.DisplayServer = detectDisplayServer(info.Desktop)
	return info
}

func detectOS() string {
	if runtime.GOOS == "darwin" {
		return "macos"
	}
	return runtime.GOOS
}

// detectDistro reads the ID field from /etc/os-release
func detectDistro(osName string) string {
	if osName != "linux" {
		return "none"
	}

	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "ID=") {
			id := strings.TrimPrefix(line, "ID=")
			return strings.ToLower(strings.Trim(id, `"`))
		}
	}
	return "unknown"
}

// detectWSL looks for the Microsoft kernel signature
func detectWSL(osName string) bool {
	if osName != "linux" {
		return false
	}
	data, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

func detectDisplayServer(desktop bool) string {
	if !desktop {
		return "none"
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return "wayland"
	}
	if os.Getenv("DISPLAY") != "" {
		return "x11"
	}
	return "unknown"
}
