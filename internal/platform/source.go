package platform

import (
	"fmt"
	"path/filepath"
)

// InstallDirName is the directory created under the user's home directory.
const InstallDirName = ".platformio"

// ReleaseBaseURL is where the package archives are published.
const ReleaseBaseURL = "https://github.com/geoffreywwang/6190-pio-dl/releases/download/v1.0.0"

// Source pairs the archive to download with the directory to extract it into.
type Source struct {
	URL         string
	Destination string
}

// archiveURLs holds the literal download link for each supported platform.
var archiveURLs = map[Platform]string{
	Windows:  ReleaseBaseURL + "/packages-windows.zip",
	MacIntel: ReleaseBaseURL + "/packages-mac-intel.zip",
	MacArm:   ReleaseBaseURL + "/packages-mac-arm.zip",
}

// ResolveSource returns the archive URL and destination for p.
// ok is false for Unsupported; callers must stop before fetching anything.
func ResolveSource(p Platform, home string) (src Source, ok bool) {
	url, ok := archiveURLs[p]
	if !ok {
		return Source{}, false
	}
	return Source{
		URL:         url,
		Destination: filepath.Join(home, InstallDirName),
	}, true
}

// String returns a one-line description of the source.
func (s Source) String() string {
	return fmt.Sprintf("%s -> %s", s.URL, s.Destination)
}
