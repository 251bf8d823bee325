// Package market models the exchange instruments, prices and positions the
// risk core operates on.
package market

// Side is the direction of exposure on a symbol.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// IsValid reports whether s is one of the two known sides.
func (s Side) IsValid() bool {
	return s == SideLong || s == SideShort
}
