package render

import "fmt"

// Label carries the six fields printed on a package label. JSON tags match
// the wire format accepted by the request receiver.
type Label struct {
	PackageID          string `json:"package_id"`
	InmateID           string `json:"inmate_id"`
	InmateName         string `json:"inmate_name"`
	InmateJurisdiction string `json:"inmate_jurisdiction"`
	UnitName           string `json:"unit_name"`
	UnitShippingMethod string `json:"unit_shipping_method"`
}

// RequiredKeys lists the wire-format field names, in layout order.
func RequiredKeys() []string {
	return []string{
		"package_id",
		"inmate_id",
		"inmate_name",
		"inmate_jurisdiction",
		"unit_name",
		"unit_shipping_method",
	}
}

func (l Label) fields() map[string]string {
	return map[string]string{
		"package_id":           l.PackageID,
		"inmate_id":            l.InmateID,
		"inmate_name":          l.InmateName,
		"inmate_jurisdiction":  l.InmateJurisdiction,
		"unit_name":            l.UnitName,
		"unit_shipping_method": l.UnitShippingMethod,
	}
}

// ValidationError reports a deterministically malformed label. Jobs failing
// validation are dropped without retries: re-running produces the same error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid label field %q: %s", e.Field, e.Reason)
}

// Validate checks that every required field is present and within maxLen.
func (l Label) Validate(maxLen int) error {
	fields := l.fields()
	for _, key := range RequiredKeys() {
		v := fields[key]
		if v == "" {
			return &ValidationError{Field: key, Reason: "missing"}
		}
		if maxLen > 0 && len(v) > maxLen {
			return &ValidationError{Field: key, Reason: fmt.Sprintf("longer than %d characters", maxLen)}
		}
	}
	return nil
}
