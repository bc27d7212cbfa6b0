package ami

import (
	"fmt"
	"strings"
)

// enumeration implements the generic §6 shape: one response result set
// (must be Success), zero or more event result sets, and a final event
// result set whose Event header equals completionEvent. Missing response
// set, missing completion event, or a mismatched completion name are all
// ProtocolError.
func enumeration(op string, sets []*ResultSet, completionEvent string) (events []*ResultSet, err error) {
	if len(sets) == 0 {
		return nil, &ProtocolError{Op: op, Message: "missing response result set"}
	}

	response := sets[0]
	status, err := response.responseValue()
	if err != nil {
		return nil, &ProtocolError{Op: op, Message: err.Error()}
	}
	if !strings.EqualFold(status, "Success") {
		return nil, protocolErrorFromResultSet(op, response)
	}

	rest := sets[1:]
	if len(rest) == 0 {
		return nil, &ProtocolError{Op: op, Message: "missing completion event " + completionEvent}
	}

	completion := rest[len(rest)-1]
	completionType, err := completion.eventType()
	if err != nil {
		return nil, &ProtocolError{Op: op, Message: err.Error()}
	}
	if !strings.EqualFold(completionType, completionEvent) {
		return nil, &ProtocolError{Op: op, Message: fmt.Sprintf("expected completion event %s, got %q", completionEvent, completionType)}
	}

	for _, set := range rest[:len(rest)-1] {
		evtType, err := set.eventType()
		if err != nil {
			return nil, &ProtocolError{Op: op, Message: err.Error()}
		}
		if evtType == "" {
			return nil, &ProtocolError{Op: op, Message: "event result set missing Event header"}
		}
	}

	return rest[:len(rest)-1], nil
}

// protocolErrorFromResultSet builds a ProtocolError carrying the optional
// Message field from rs, newline-joined if Message appeared more than
// once (spec §6).
func protocolErrorFromResultSet(op string, rs *ResultSet) *ProtocolError {
	messages := rs.GetAll("Message")
	msg := ""
	for i, m := range messages {
		if i > 0 {
			msg += "\n"
		}
		msg += m
	}
	return &ProtocolError{Op: op, Message: msg}
}

