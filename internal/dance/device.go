package dance

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DeviceCheck reports whether a rename from src to dst would stay on one
// filesystem. Injected into the engine so cross-device behavior is testable
// without a second mount.
type DeviceCheck func(src, dst string) bool

// SameDevice reports whether src and dst share a device id, meaning a rename
// between them is atomic.
//
// dst normally does not exist yet, so its nearest existing ancestor stands in
// for it. Any stat failure counts as a mismatch: when in doubt, refuse the
// move rather than risk a copy-and-delete crossing devices.
func SameDevice(src, dst string) bool {
	probe := nearestExisting(dst)
	if probe == "" {
		return false
	}
	srcDev, err := deviceID(src)
	if err != nil {
		return false
	}
	dstDev, err := deviceID(probe)
	if err != nil {
		return false
	}
	return srcDev == dstDev
}

// nearestExisting walks up from path until a component exists on disk.
// Returns "" if the walk hits the filesystem root without finding one.
func nearestExisting(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return ""
		}
		path = parent
	}
}

func deviceID(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil
}
