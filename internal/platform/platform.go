// Package platform maps the running host onto one of the package archives
// published for the course toolchain.
package platform

import "strings"

// Platform identifies which package archive the host needs.
type Platform int

const (
	// Unsupported is any host other than Windows or macOS.
	Unsupported Platform = iota
	// Windows is any Windows host.
	Windows
	// MacIntel is a macOS host reporting the "i386" processor.
	MacIntel
	// MacArm is every other macOS host.
	MacArm
)

// String returns a human readable platform name.
func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case MacIntel:
		return "macOS (Intel)"
	case MacArm:
		return "macOS (Apple Silicon)"
	default:
		return "Unsupported"
	}
}

// Token returns the platform token used in archive names, or "" when unsupported.
func (p Platform) Token() string {
	switch p {
	case Windows:
		return "windows"
	case MacIntel:
		return "mac-intel"
	case MacArm:
		return "mac-arm"
	default:
		return ""
	}
}

// Supported reports whether an archive exists for p.
func (p Platform) Supported() bool {
	return p.Token() != ""
}

// Resolve maps an OS name and processor string to a Platform.
//
// The processor string is only consulted on macOS, where the literal "i386"
// (what `uname -p` prints on Intel Macs) selects MacIntel and anything else,
// including the empty string, selects MacArm.
func Resolve(osName, processor string) Platform {
	switch strings.ToLower(osName) {
	case "windows":
		return Windows
	case "darwin":
		if processor == "i386" {
			return MacIntel
		}
		return MacArm
	default:
		return Unsupported
	}
}
