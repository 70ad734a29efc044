package discover

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ibp/labeld/internal/cups"
	"github.com/ibp/labeld/internal/usb"
)

// A deviceMatcher decides whether a registered printer corresponds to an
// attached USB device. The variant is picked from the shape of the
// printer's device URI: a serial query parameter wins, then a usb://MFG/PRODUCT
// path, then the legacy "_VVVV:PPPP" hex suffix on the printer name.
type deviceMatcher interface {
	matches(dev usb.Device) bool
}

type serialMatcher struct {
	serial string
}

func (m serialMatcher) matches(dev usb.Device) bool {
	return dev.Serial != "" && strings.EqualFold(dev.Serial, m.serial)
}

type vendorProductMatcher struct {
	manufacturer string
	product      string
}

func (m vendorProductMatcher) matches(dev usb.Device) bool {
	return uriTokenEqual(m.manufacturer, dev.Manufacturer) &&
		uriTokenEqual(m.product, dev.Product)
}

type usbIDMatcher struct {
	id string // lowercase "vvvv:pppp"
}

func (m usbIDMatcher) matches(dev usb.Device) bool {
	return dev.ID() == m.id
}

var nameSuffixRe = regexp.MustCompile(`_([0-9a-fA-F]{4}:[0-9a-fA-F]{4})$`)

// matcherFor returns nil when the printer carries no recognizable physical
// connection identifier; such printers are never considered attached.
func matcherFor(p cups.Printer) deviceMatcher {
	if u, err := url.Parse(p.DeviceURI); err == nil && u.Scheme == "usb" {
		if serial := u.Query().Get("serial"); serial != "" {
			return serialMatcher{serial: serial}
		}
		product := strings.Trim(u.Path, "/")
		if u.Host != "" && product != "" {
			return vendorProductMatcher{manufacturer: u.Host, product: product}
		}
	}

	if m := nameSuffixRe.FindStringSubmatch(p.Name); m != nil {
		return usbIDMatcher{id: strings.ToLower(m[1])}
	}

	return nil
}

// CUPS percent-encodes device URI components and sysfs reports the raw
// descriptor strings, so compare with spaces/underscores folded together.
func uriTokenEqual(uriToken, attr string) bool {
	norm := func(s string) string {
		if decoded, err := url.QueryUnescape(s); err == nil {
			s = decoded
		}
		s = strings.ReplaceAll(s, "_", " ")
		return strings.ToLower(strings.TrimSpace(s))
	}
	return norm(uriToken) != "" && norm(uriToken) == norm(attr)
}
