// Package ami implements the AMI-over-HTTP client described in spec §4.1
// and §6: a thin request/response layer over Asterisk's rawman endpoint,
// exposing login, device/extension listing, long-poll wait, and
// set-device-state as typed operations.
package ami

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sweeney/devicestated/internal/devicestate"
	"github.com/sweeney/devicestated/internal/mapping"
)

// Client talks to one Asterisk server's rawman HTTP endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string // http://host:port/prefix/rawman
	timeout    time.Duration
}

// Options configures a Client. Host, Port, and Prefix mirror ServerConfig;
// Timeout bounds every request per spec §4.1.
type Options struct {
	Host    string
	Port    int
	Prefix  string
	Timeout time.Duration
}

// New creates a Client for one server.
func New(opts Options) *Client {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "asterisk"
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    fmt.Sprintf("http://%s:%d/%s/rawman", opts.Host, opts.Port, prefix),
		timeout:    opts.Timeout,
	}
}

// actionID generates a fresh correlation id for log lines, per SPEC_FULL §3.
func actionID() string {
	return uuid.NewString()
}

// do issues one AMI action as an HTTP GET and returns the raw response
// body, split into result sets. The context is bounded by the client's
// configured timeout, measured from call entry (spec §4.1).
func (c *Client) do(ctx context.Context, action string, params map[string]string) ([]*ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Op: action, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: action, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: action, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: action, Err: fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)}
	}

	sets, err := splitResultSets(string(body))
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// single runs a non-enumeration action, expecting exactly one result set
// whose Response header equals want (every caller passes "Success").
func (c *Client) single(ctx context.Context, action string, params map[string]string, want string) (*ResultSet, error) {
	sets, err := c.do(ctx, action, params)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, &ProtocolError{Op: action, Message: "empty response"}
	}
	if len(sets) > 1 {
		return nil, &ProtocolError{Op: action, Message: "multiple result sets in a single response"}
	}
	rs := sets[0]
	status, err := rs.responseValue()
	if err != nil {
		return nil, &ProtocolError{Op: action, Message: err.Error()}
	}
	if status == "" {
		return nil, &ProtocolError{Op: action, Message: "missing Response header"}
	}
	if !strings.EqualFold(status, want) {
		return nil, protocolErrorFromResultSet(action, rs)
	}
	return rs, nil
}

// Login authenticates to the AMI server. Returns *AuthError (a
// *ProtocolError) if the response status is not Success.
func (c *Client) Login(ctx context.Context, username, secret string) error {
	params := map[string]string{
		"Username": username,
		"Secret":   secret,
		"ActionID": actionID(),
	}
	_, err := c.single(ctx, "Login", params, "Success")
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			return &AuthError{pe}
		}
		return err
	}
	return nil
}

// ListDeviceStates issues the DeviceStateChange enumeration action with no
// parameters other than ActionID and returns the current device -> DeviceState map, applying
// last-wins when a device appears more than once (spec §4.1).
func (c *Client) ListDeviceStates(ctx context.Context) (map[string]devicestate.State, error) {
	sets, err := c.do(ctx, "DeviceStateChange", map[string]string{"ActionID": actionID()})
	if err != nil {
		return nil, err
	}
	events, err := enumeration("DeviceStateChange", sets, "DeviceStateChangeComplete")
	if err != nil {
		return nil, err
	}

	out := make(map[string]devicestate.State)
	for _, evt := range events {
		evtType, err := evt.eventType()
		if err != nil {
			return nil, &ProtocolError{Op: "DeviceStateChange", Message: err.Error()}
		}
		if !strings.EqualFold(evtType, "DeviceStateChange") {
			continue
		}
		device, err := evt.Get("Device")
		if err != nil {
			return nil, &ProtocolError{Op: "DeviceStateChange", Message: err.Error()}
		}
		if device == "" {
			continue
		}
		stateStr, err := evt.Get("State")
		if err != nil {
			return nil, &ProtocolError{Op: "DeviceStateChange", Message: err.Error()}
		}
		state, ok := devicestate.Parse(stateStr)
		if !ok {
			continue
		}
		out[device] = state // last occurrence wins
	}
	return out, nil
}

// ListExtensionStates issues the ExtensionStateList enumeration action and
// returns the mapped device -> DeviceState batch, via rule (spec §4.2).
func (c *Client) ListExtensionStates(ctx context.Context, rule *mapping.Rule) (map[string]devicestate.State, error) {
	sets, err := c.do(ctx, "ExtensionStateList", map[string]string{"ActionID": actionID()})
	if err != nil {
		return nil, err
	}
	events, err := enumeration("ExtensionStateList", sets, "ExtensionStateListComplete")
	if err != nil {
		return nil, err
	}
	extEvents, err := extensionEvents("ExtensionStateList", events)
	if err != nil {
		return nil, err
	}
	return rule.Resolve(extEvents), nil
}

// WaitForExtensionChanges issues the WaitEvent action, long-polling up to
// the client's timeout. An empty result is legal — it means nothing
// changed (spec §4.1).
func (c *Client) WaitForExtensionChanges(ctx context.Context, rule *mapping.Rule) (map[string]devicestate.State, error) {
	sets, err := c.do(ctx, "WaitEvent", map[string]string{"ActionID": actionID()})
	if err != nil {
		return nil, err
	}
	events, err := enumeration("WaitEvent", sets, "WaitEventComplete")
	if err != nil {
		return nil, err
	}
	extEvents, err := extensionEvents("WaitEvent", events)
	if err != nil {
		return nil, err
	}
	return rule.Resolve(extEvents), nil
}

// extensionEvents extracts the Exten/Status pair from each event result
// set. Events without an Exten header are skipped rather than
// treated as malformed — WaitEvent may legitimately surface unrelated
// AMI events alongside extension status changes.
func extensionEvents(op string, sets []*ResultSet) ([]mapping.ExtensionEvent, error) {
	var out []mapping.ExtensionEvent
	for _, set := range sets {
		exten, err := set.Get("Exten")
		if err != nil {
			return nil, &ProtocolError{Op: op, Message: err.Error()}
		}
		if exten == "" {
			continue
		}
		status, err := set.Get("Status")
		if err != nil {
			return nil, &ProtocolError{Op: op, Message: err.Error()}
		}
		out = append(out, mapping.ExtensionEvent{Exten: exten, Status: status})
	}
	return out, nil
}

// SetDeviceState writes device's DEVICE_STATE variable on the PBX (spec
// §4.1, via the SetVar action).
func (c *Client) SetDeviceState(ctx context.Context, device string, state devicestate.State) error {
	params := map[string]string{
		"Variable": fmt.Sprintf("DEVICE_STATE(%s)", device),
		"Value":    state.String(),
		"ActionID": actionID(),
	}
	_, err := c.single(ctx, "SetVar", params, "Success")
	return err
}
