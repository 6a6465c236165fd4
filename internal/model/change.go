package model

import "fmt"

// Change is the direction of a price compared with the previous observation.
type Change int

const (
	// ChangeUnknown means no price was observed in this run.
	ChangeUnknown Change = iota

	// ChangeNew means there is no previous observation to compare with.
	ChangeNew

	// ChangeUnchanged means the price equals the previous one.
	ChangeUnchanged

	// ChangeDown means the price dropped.
	ChangeDown

	// ChangeUp means the price rose.
	ChangeUp
)

// String returns the lower-case name of the change.
func (c Change) String() string {
	switch c {
	case ChangeNew:
		return "new"
	case ChangeUnchanged:
		return "unchanged"
	case ChangeDown:
		return "down"
	case ChangeUp:
		return "up"
	default:
		return "unknown"
	}
}

// MarshalText encodes the change as its name.
func (c Change) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a change name.
func (c *Change) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unknown", "":
		*c = ChangeUnknown
	case "new":
		*c = ChangeNew
	case "unchanged":
		*c = ChangeUnchanged
	case "down":
		*c = ChangeDown
	case "up":
		*c = ChangeUp
	default:
		return fmt.Errorf("unknown price change %q", string(b))
	}
	return nil
}

// priceEpsilon absorbs float noise from parsing; prices carry at most a few decimals.
const priceEpsilon = 1e-9

// Compare returns the change from previous to current.
func Compare(previous *Observation, current float64) Change {
	if previous == nil {
		return ChangeNew
	}
	diff := current - previous.Price
	switch {
	case diff < -priceEpsilon:
		return ChangeDown
	case diff > priceEpsilon:
		return ChangeUp
	default:
		return ChangeUnchanged
	}
}
