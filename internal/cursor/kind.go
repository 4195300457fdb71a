package cursor

import "fmt"

// Kind identifies one of the pointer roles in the system cursor table.
// The numeric values are the fixed OCR_* identifiers the OS assigns to
// each slot, so a Kind converts directly to the id expected by the
// cursor table calls.
type Kind uint32

const (
	// Normal is the standard arrow pointer
	Normal Kind = 32512
	// IBeam is the text-entry I-beam
	IBeam Kind = 32513
	// Wait is the hourglass
	Wait Kind = 32514
	// Cross is the crosshair
	Cross Kind = 32515
	// Up is the vertical arrow
	Up Kind = 32516
	// SizeNWSE is the double-pointed arrow pointing northwest and southeast
	SizeNWSE Kind = 32642
	// SizeNESW is the double-pointed arrow pointing northeast and southwest
	SizeNESW Kind = 32643
	// SizeWE is the double-pointed arrow pointing west and east
	SizeWE Kind = 32644
	// SizeNS is the double-pointed arrow pointing north and south
	SizeNS Kind = 32645
	// SizeAll is the four-pointed arrow
	SizeAll Kind = 32646
	// No is the slashed circle
	No Kind = 32648
	// Hand is the pointing hand
	Hand Kind = 32649
	// AppStarting is the arrow with a small hourglass
	AppStarting Kind = 32650
)

var kindNames = map[Kind]string{
	Normal:      "Normal",
	IBeam:       "IBeam",
	Wait:        "Wait",
	Cross:       "Cross",
	Up:          "Up",
	SizeNWSE:    "SizeNWSE",
	SizeNESW:    "SizeNESW",
	SizeWE:      "SizeWE",
	SizeNS:      "SizeNS",
	SizeAll:     "SizeAll",
	No:          "No",
	Hand:        "Hand",
	AppStarting: "AppStarting",
}

// String returns the human-readable kind name used in logs and config files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// All returns every supported kind in id order.
func All() []Kind {
	return []Kind{
		Normal, IBeam, Wait, Cross, Up,
		SizeNWSE, SizeNESW, SizeWE, SizeNS, SizeAll,
		No, Hand, AppStarting,
	}
}

// KindFromName parses a kind name as written in config files. Matching is
// case-sensitive to keep config values unambiguous.
func KindFromName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
