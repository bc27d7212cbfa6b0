package devicestate_test

import (
	"testing"

	"github.com/sweeney/devicestated/internal/devicestate"
)

func TestParseRoundTrip(t *testing.T) {
	for s := devicestate.Unknown; s <= devicestate.OnHold; s++ {
		name := s.String()
		got, ok := devicestate.Parse(name)
		if !ok {
			t.Errorf("Parse(%q) not recognized", name)
		}
		if got != s {
			t.Errorf("Parse(%q) = %v, want %v", name, got, s)
		}
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	for _, name := range []string{"inuse", "InUse", "INUSE", "iNuSe"} {
		got, ok := devicestate.Parse(name)
		if !ok || got != devicestate.InUse {
			t.Errorf("Parse(%q) = %v, %v, want InUse, true", name, got, ok)
		}
	}
}

func TestParseUnknownInput(t *testing.T) {
	_, ok := devicestate.Parse("NOT_A_REAL_STATE")
	if ok {
		t.Error("expected ok=false for unrecognized state name")
	}
}

func TestParseWhitespace(t *testing.T) {
	got, ok := devicestate.Parse("  busy  ")
	if !ok || got != devicestate.Busy {
		t.Errorf("Parse with whitespace = %v, %v, want Busy, true", got, ok)
	}
}
