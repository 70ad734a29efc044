// Package usb enumerates currently attached USB devices. It is the
// hardware-attachment collaborator used by discovery to decide which
// registered printers are physically present.
package usb

import (
	"os"
	"path/filepath"
	"strings"
)

type Device struct {
	VendorID     string
	ProductID    string
	Serial       string
	Manufacturer string
	Product      string
}

// ID returns the lowercase "vvvv:pppp" form used in printer name suffixes.
func (d Device) ID() string {
	return strings.ToLower(d.VendorID + ":" + d.ProductID)
}

type Enumerator interface {
	Attached() ([]Device, error)
}

// SysfsEnumerator reads device attributes from the kernel's USB sysfs tree.
type SysfsEnumerator struct {
	// Root is normally /sys/bus/usb/devices.
	Root string
}

func NewSysfsEnumerator() *SysfsEnumerator {
	return &SysfsEnumerator{Root: "/sys/bus/usb/devices"}
}

func (e *SysfsEnumerator) Attached() ([]Device, error) {
	entries, err := os.ReadDir(e.Root)
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, entry := range entries {
		dir := filepath.Join(e.Root, entry.Name())

		vendor := readAttr(dir, "idVendor")
		product := readAttr(dir, "idProduct")
		if vendor == "" || product == "" {
			// Interfaces and hubs without IDs are not printers.
			continue
		}

		devices = append(devices, Device{
			VendorID:     vendor,
			ProductID:    product,
			Serial:       readAttr(dir, "serial"),
			Manufacturer: readAttr(dir, "manufacturer"),
			Product:      readAttr(dir, "product"),
		})
	}

	return devices, nil
}

func readAttr(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
