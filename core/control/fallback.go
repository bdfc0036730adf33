package control

import (
	"errors"
	"fmt"
)

// Fallback selects what the loop applies when the controller output is
// undefined.
type Fallback string

const (
	// FallbackHold reapplies the last defined value.
	FallbackHold Fallback = "hold"
	// FallbackZero applies 0.
	FallbackZero Fallback = "zero"
	// FallbackStop ends the loop with ErrStopped.
	FallbackStop Fallback = "stop"
)

var (
	ErrStopped         = errors.New("control loop stopped on undefined output")
	ErrUnknownFallback = errors.New("unknown fallback policy")
)

func ParseFallback(s string) (Fallback, error) {
	switch f := Fallback(s); f {
	case FallbackHold, FallbackZero, FallbackStop:
		return f, nil
	case "":
		return FallbackHold, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFallback, s)
	}
}
