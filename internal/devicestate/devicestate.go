// Package devicestate defines the closed set of Asterisk device states
// that devicestated writes into Custom: devices via DEVICE_STATE().
package devicestate

import "strings"

// State is one of Asterisk's device-state values.
type State int

const (
	Unknown State = iota
	NotInUse
	InUse
	Busy
	Invalid
	Unavailable
	Ringing
	RingInUse
	OnHold
)

var names = map[State]string{
	Unknown:     "UNKNOWN",
	NotInUse:    "NOT_INUSE",
	InUse:       "INUSE",
	Busy:        "BUSY",
	Invalid:     "INVALID",
	Unavailable: "UNAVAILABLE",
	Ringing:     "RINGING",
	RingInUse:   "RINGINUSE",
	OnHold:      "ONHOLD",
}

var byName = func() map[string]State {
	m := make(map[string]State, len(names))
	for s, n := range names {
		m[n] = s
	}
	return m
}()

// String renders the canonical AMI name for s. Unrecognized values render
// as UNKNOWN.
func (s State) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return names[Unknown]
}

// Parse reads a device-state name case-insensitively. Unrecognized input
// yields Unknown with ok=false so callers can distinguish "the PBX sent
// UNKNOWN" from "we didn't understand what the PBX sent."
func Parse(name string) (State, bool) {
	s, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return s, ok
}
