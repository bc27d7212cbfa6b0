package extstate_test

import (
	"testing"

	"github.com/sweeney/devicestated/internal/devicestate"
	"github.com/sweeney/devicestated/internal/extstate"
)

func TestToDeviceStateTable(t *testing.T) {
	tests := []struct {
		ext  extstate.State
		want devicestate.State
	}{
		{extstate.Removed, devicestate.Invalid},
		{extstate.Deactivated, devicestate.Unknown},
		{extstate.Idle, devicestate.NotInUse},
		{extstate.InUse, devicestate.InUse},
		{extstate.Busy, devicestate.Busy},
		{extstate.Unavailable, devicestate.Unavailable},
		{extstate.Ringing, devicestate.Ringing},
		{extstate.InUseRinging, devicestate.RingInUse},
		{extstate.Hold, devicestate.OnHold},
		{extstate.InUseHold, devicestate.OnHold}, // deliberate collapse, see DESIGN.md
	}
	for _, tt := range tests {
		if got := tt.ext.ToDeviceState(); got != tt.want {
			t.Errorf("%v.ToDeviceState() = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestToDeviceStateUnknownCode(t *testing.T) {
	if got := extstate.State(99).ToDeviceState(); got != devicestate.Unknown {
		t.Errorf("unmapped code = %v, want Unknown", got)
	}
}

func TestParseAmpersandUnderscoreEquivalence(t *testing.T) {
	a, ok := extstate.Parse("InUse&Ringing")
	if !ok || a != extstate.InUseRinging {
		t.Fatalf("Parse(InUse&Ringing) = %v, %v", a, ok)
	}
	b, ok := extstate.Parse("InUse_Ringing")
	if !ok || b != extstate.InUseRinging {
		t.Fatalf("Parse(InUse_Ringing) = %v, %v", b, ok)
	}
	if a != b {
		t.Errorf("expected & and _ forms to parse identically")
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	for _, token := range []string{"idle", "IDLE", "Idle", "iDlE"} {
		got, ok := extstate.Parse(token)
		if !ok || got != extstate.Idle {
			t.Errorf("Parse(%q) = %v, %v, want Idle, true", token, got, ok)
		}
	}
}

func TestParseNumericCode(t *testing.T) {
	got, ok := extstate.Parse("17")
	if !ok || got != extstate.InUseHold {
		t.Errorf("Parse(\"17\") = %v, %v, want InUseHold, true", got, ok)
	}
}

func TestParseUnknownToken(t *testing.T) {
	_, ok := extstate.Parse("banana")
	if ok {
		t.Error("expected ok=false for unrecognized token")
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []extstate.State{
		extstate.Removed, extstate.Deactivated, extstate.Idle, extstate.InUse,
		extstate.Busy, extstate.Unavailable, extstate.Ringing,
		extstate.InUseRinging, extstate.Hold, extstate.InUseHold,
	} {
		got, ok := extstate.Parse(s.String())
		if !ok || got != s {
			t.Errorf("round trip of %v via %q failed: %v, %v", s, s.String(), got, ok)
		}
	}
}
