// Package extstate defines the closed set of AMI extension-state codes
// and their fixed mapping onto devicestate.State.
package extstate

import (
	"strconv"
	"strings"

	"github.com/sweeney/devicestated/internal/devicestate"
)

// State is an AMI extension-state code, as reported in the Status header
// of ExtensionStateList/ExtensionStatus events.
type State int

const (
	Removed       State = -2
	Deactivated   State = -1
	Idle          State = 0
	InUse         State = 1
	Busy          State = 2
	Unavailable   State = 4
	Ringing       State = 8
	InUseRinging  State = 9
	Hold          State = 16
	InUseHold     State = 17
)

var names = map[State]string{
	Removed:      "Removed",
	Deactivated:  "Deactivated",
	Idle:         "Idle",
	InUse:        "InUse",
	Busy:         "Busy",
	Unavailable:  "Unavailable",
	Ringing:      "Ringing",
	InUseRinging: "InUse&Ringing",
	Hold:         "Hold",
	InUseHold:    "InUse&Hold",
}

// deviceStates is the fixed, total ExtensionState -> DeviceState table
// from spec §3. InUseHold deliberately collapses onto the same DeviceState
// as Hold — see DESIGN.md's Open Question log.
var deviceStates = map[State]devicestate.State{
	Removed:      devicestate.Invalid,
	Deactivated:  devicestate.Unknown,
	Idle:         devicestate.NotInUse,
	InUse:        devicestate.InUse,
	Busy:         devicestate.Busy,
	Unavailable:  devicestate.Unavailable,
	Ringing:      devicestate.Ringing,
	InUseRinging: devicestate.RingInUse,
	Hold:         devicestate.OnHold,
	InUseHold:    devicestate.OnHold,
}

// String renders the canonical AMI token for s.
func (s State) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return strconv.Itoa(int(s))
}

// ToDeviceState maps s onto its device-state per the fixed table in spec §3.
// Any code outside the closed set maps to devicestate.Unknown.
func (s State) ToDeviceState() devicestate.State {
	if d, ok := deviceStates[s]; ok {
		return d
	}
	return devicestate.Unknown
}

// Parse reads an extension-state token. Parsing is case-insensitive and
// treats '&' and '_' as equivalent, so "InUse&Ringing" and "InUse_Ringing"
// parse identically. A bare integer is also accepted, since AMI sometimes
// reports Status as a numeric code rather than a name.
func Parse(token string) (State, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(token), "&", "_"))
	for s, name := range names {
		if strings.ToLower(strings.ReplaceAll(name, "&", "_")) == normalized {
			return s, true
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(token)); err == nil {
		if _, ok := names[State(n)]; ok {
			return State(n), true
		}
	}
	return 0, false
}
