package platform

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Host is the raw identification reported by the running system.
type Host struct {
	// OS is the operating system name (runtime.GOOS).
	OS string
	// Processor is the processor string; only populated on macOS.
	Processor string
}

// Platform resolves h to a Platform.
func (h Host) Platform() Platform {
	return Resolve(h.OS, h.Processor)
}

// Detector reports the running host.
type Detector interface {
	Detect(ctx context.Context) Host
}

// RealDetector implements Detector by querying the running system.
type RealDetector struct {
	// uname runs `uname -p`; replaced in tests.
	uname func(ctx context.Context) (string, error)
	// kernelArch reports the machine hardware name; replaced in tests.
	kernelArch func(ctx context.Context) (string, error)
	goos       string
}

// NewDetector creates a detector for the running host.
func NewDetector() *RealDetector {
	return &RealDetector{
		uname:      unameProcessor,
		kernelArch: func(ctx context.Context) (string, error) { return host.KernelArch() },
		goos:       runtime.GOOS,
	}
}

// Detect returns the host OS name and, on macOS, its processor string.
//
// The processor string comes from `uname -p`. If that command is unavailable
// the gopsutil kernel architecture is translated into the value uname would
// have printed.
func (d *RealDetector) Detect(ctx context.Context) Host {
	h := Host{OS: d.goos}
	if d.goos != "darwin" {
		return h
	}

	if p, err := d.uname(ctx); err == nil && p != "" {
		h.Processor = p
		return h
	}

	arch, err := d.kernelArch(ctx)
	if err != nil {
		// Empty processor resolves to MacArm.
		return h
	}
	h.Processor = processorFromArch(arch)
	return h
}

// processorFromArch converts a machine hardware name to the macOS `uname -p` form.
func processorFromArch(arch string) string {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "x86_64", "amd64", "i386", "i686":
		return "i386"
	case "arm64", "aarch64":
		return "arm"
	default:
		return arch
	}
}

func unameProcessor(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "uname", "-p").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// StaticDetector reports a fixed host.
type StaticDetector Host

// Detect returns the fixed host.
func (s StaticDetector) Detect(context.Context) Host {
	return Host(s)
}
