//go:build windows

package preflight

import (
	"os"

	"golang.org/x/sys/windows"
)

// checkAccess rejects read-only directories and otherwise proves writability
// by creating a probe file.
func checkAccess(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return windows.ERROR_ACCESS_DENIED
	}
	f, err := os.CreateTemp(path, ".vtrpon-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
