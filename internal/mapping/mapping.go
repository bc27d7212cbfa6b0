// Package mapping implements the pure extension -> device transform
// described in spec §4.2: a regular expression selects which extensions
// are tracked at all, and a substitution template derives the device name
// from the match.
package mapping

import (
	"regexp"

	"github.com/sweeney/devicestated/internal/devicestate"
	"github.com/sweeney/devicestated/internal/extstate"
)

// Rule holds a compiled extensionPattern and its deviceFormat template.
type Rule struct {
	pattern *regexp.Regexp
	format  string
}

// Compile compiles an extensionPattern/deviceFormat pair from ServerConfig.
// deviceFormat defaults to "Custom:$0" when empty, per spec §3.
func Compile(extensionPattern, deviceFormat string) (*Rule, error) {
	if deviceFormat == "" {
		deviceFormat = "Custom:$0"
	}
	re, err := regexp.Compile(extensionPattern)
	if err != nil {
		return nil, err
	}
	return &Rule{pattern: re, format: format(deviceFormat)}, nil
}

// format rewrites a "$0"/"$1"-style template into regexp.Expand's
// "${0}"/"${1}" form so ReplaceAllString applies it correctly even when a
// capture group number is immediately followed by letters ("$1x" is group
// 1 then "x"). A run of digits after '$' is read as one group number, so
// "$12" is group 12.
func format(deviceFormat string) string {
	out := make([]byte, 0, len(deviceFormat)+8)
	for i := 0; i < len(deviceFormat); i++ {
		c := deviceFormat[i]
		if c == '$' && i+1 < len(deviceFormat) && deviceFormat[i+1] >= '0' && deviceFormat[i+1] <= '9' {
			j := i + 1
			for j < len(deviceFormat) && deviceFormat[j] >= '0' && deviceFormat[j] <= '9' {
				j++
			}
			out = append(out, '$', '{')
			out = append(out, deviceFormat[i+1:j]...)
			out = append(out, '}')
			i = j - 1
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// Device derives the device name for exten, or ok=false if exten does not
// match the rule's extensionPattern (spec §4.2 step 1).
func (r *Rule) Device(exten string) (device string, ok bool) {
	if !r.pattern.MatchString(exten) {
		return "", false
	}
	return r.pattern.ReplaceAllString(exten, r.format), true
}

// ExtensionEvent is one (Exten, Status) pair as reported by AMI.
type ExtensionEvent struct {
	Exten  string
	Status string
}

// Resolve applies the full §4.2 transform to a batch of extension events:
// filters events whose Exten doesn't match, derives the device name,
// parses Status, and applies last-wins on duplicate device names within
// the batch.
func (r *Rule) Resolve(events []ExtensionEvent) map[string]devicestate.State {
	out := make(map[string]devicestate.State)
	for _, evt := range events {
		device, ok := r.Device(evt.Exten)
		if !ok {
			continue
		}
		ext, ok := extstate.Parse(evt.Status)
		if !ok {
			continue
		}
		out[device] = ext.ToDeviceState()
	}
	return out
}
