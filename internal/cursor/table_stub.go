//go:build !windows

package cursor

// NewSystemTable reports that this platform has no system cursor table.
func NewSystemTable() (Table, error) {
	return nil, ErrUnsupportedPlatform
}
