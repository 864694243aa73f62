package market

import (
	"fmt"
	"strings"
)

// Direction is the side of a signal or position: +1 long, -1 short, 0 none.
type Direction int8

const (
	None  Direction = 0
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Sign returns +1 for long, -1 for short and 0 otherwise.
func (d Direction) Sign() float64 { return float64(d) }

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection accepts LONG, SHORT, NONE (any case) and the empty string.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	case "NONE", "":
		return None, nil
	}
	return None, fmt.Errorf("unknown direction %q", s)
}
