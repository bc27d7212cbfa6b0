package ami

import (
	"errors"
	"testing"
)

func TestSplitResultSetsBasic(t *testing.T) {
	body := "Response: Success\r\nMessage: Authentication accepted\r\n\r\n"
	sets, err := splitResultSets(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("expected 1 result set, got %d", len(sets))
	}
	status, err := sets[0].Get("Response")
	if err != nil || status != "Success" {
		t.Fatalf("Response = %q, %v", status, err)
	}
}

func TestSplitResultSetsCaseInsensitiveKeys(t *testing.T) {
	body := "response: Success\r\n\r\n"
	sets, err := splitResultSets(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, err := sets[0].Get("RESPONSE")
	if err != nil || status != "Success" {
		t.Fatalf("Response = %q, %v", status, err)
	}
}

func TestSplitResultSetsTrimsWhitespace(t *testing.T) {
	body := "Response:   Success  \r\n  Message :  hi there  \r\n\r\n"
	sets, err := splitResultSets(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, _ := sets[0].Get("Message")
	if msg != "hi there" {
		t.Errorf("Message = %q, want %q", msg, "hi there")
	}
}

func TestSplitResultSetsEnumeration(t *testing.T) {
	body := "Response: Success\r\n\r\n" +
		"Event: DeviceStateChange\r\nDevice: Custom:101\r\nState: INUSE\r\n\r\n" +
		"Event: DeviceStateChangeComplete\r\n\r\n"
	sets, err := splitResultSets(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("expected 3 result sets, got %d", len(sets))
	}
}

func TestSplitResultSetsMalformedMultiResultMarker(t *testing.T) {
	// LF-CR-LF-CR inside a single block, per spec §6/§9.
	body := "Response: Success\nMessage: ok\n\r\n\rResponse: Success\r\n\r\n"
	_, err := splitResultSets(body)
	if err == nil {
		t.Fatal("expected error for embedded multi-result marker")
	}
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
}

func TestResultSetGetAmbiguousField(t *testing.T) {
	rs := &ResultSet{headers: []header{
		{key: "Message", value: "first"},
		{key: "Message", value: "second"},
	}}
	_, err := rs.Get("Message")
	var ambig *AmbiguousFieldError
	if !errors.As(err, &ambig) {
		t.Fatalf("expected *AmbiguousFieldError, got %v", err)
	}
}

func TestResultSetGetAllPreservesOrderAndDuplicates(t *testing.T) {
	rs := &ResultSet{headers: []header{
		{key: "Message", value: "first"},
		{key: "Message", value: "second"},
	}}
	all := rs.GetAll("Message")
	if len(all) != 2 || all[0] != "first" || all[1] != "second" {
		t.Fatalf("GetAll = %v", all)
	}
}

func TestResultSetHas(t *testing.T) {
	rs := &ResultSet{headers: []header{{key: "Event", value: "Foo"}}}
	if !rs.Has("event") {
		t.Error("expected Has to be case-insensitive and true")
	}
	if rs.Has("Nope") {
		t.Error("expected Has(Nope) to be false")
	}
}

func TestEnumerationSuccess(t *testing.T) {
	sets, err := splitResultSets(
		"Response: Success\r\n\r\n" +
			"Event: ExtensionStatus\r\nExten: 101\r\nStatus: InUse\r\n\r\n" +
			"Event: ExtensionStateListComplete\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	events, err := enumeration("ExtensionStateList", sets, "ExtensionStateListComplete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestEnumerationMissingResponseSet(t *testing.T) {
	_, err := enumeration("X", nil, "XComplete")
	if err == nil {
		t.Fatal("expected error for missing response set")
	}
}

func TestEnumerationResponseNotSuccess(t *testing.T) {
	sets, err := splitResultSets("Response: Error\r\nMessage: bad action\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	_, err = enumeration("X", sets, "XComplete")
	if err == nil {
		t.Fatal("expected ProtocolError")
	}
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
	if pe.Message != "bad action" {
		t.Errorf("Message = %q, want %q", pe.Message, "bad action")
	}
}

func TestEnumerationMessageJoinedOnRepeat(t *testing.T) {
	sets, err := splitResultSets("Response: Error\r\nMessage: line one\r\nMessage: line two\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	_, err = enumeration("X", sets, "XComplete")
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
	if pe.Message != "line one\nline two" {
		t.Errorf("Message = %q", pe.Message)
	}
}

func TestEnumerationMissingCompletionEvent(t *testing.T) {
	sets, err := splitResultSets("Response: Success\r\n\r\nEvent: ExtensionStatus\r\nExten: 1\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	_, err = enumeration("X", sets, "XComplete")
	if err == nil {
		t.Fatal("expected error for missing completion event")
	}
}

func TestEnumerationMismatchedCompletionName(t *testing.T) {
	sets, err := splitResultSets("Response: Success\r\n\r\nEvent: SomethingElseComplete\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	_, err = enumeration("X", sets, "XComplete")
	if err == nil {
		t.Fatal("expected error for mismatched completion event name")
	}
}

func TestEnumerationEmptyIsLegalLongPoll(t *testing.T) {
	sets, err := splitResultSets("Response: Success\r\n\r\nEvent: WaitEventComplete\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	events, err := enumeration("WaitEvent", sets, "WaitEventComplete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events for an empty long-poll result, got %d", len(events))
	}
}
