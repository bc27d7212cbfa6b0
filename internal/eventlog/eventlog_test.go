package eventlog_test

import (
	"testing"

	"github.com/sweeney/devicestated/internal/eventlog"
)

func TestMockRecordsCalls(t *testing.T) {
	m := eventlog.NewMock()
	m.Log(eventlog.Warning, "pbx1", "retrying write")

	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Severity != eventlog.Warning || records[0].Server != "pbx1" || records[0].Message != "retrying write" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestMockClose(t *testing.T) {
	m := eventlog.NewMock()
	if m.Closed() {
		t.Fatal("expected not closed before Close")
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !m.Closed() {
		t.Fatal("expected closed after Close")
	}
}

func TestMultiFansOutToEverySink(t *testing.T) {
	a := eventlog.NewMock()
	b := eventlog.NewMock()
	multi := eventlog.NewMulti(a, b)

	multi.Log(eventlog.Error, "pbx2", "login failed")

	if len(a.Records()) != 1 || len(b.Records()) != 1 {
		t.Fatalf("expected both sinks to receive the log, got a=%d b=%d", len(a.Records()), len(b.Records()))
	}
}

func TestSeverityString(t *testing.T) {
	cases := map[eventlog.Severity]string{
		eventlog.Info:    "info",
		eventlog.Warning: "warning",
		eventlog.Error:   "error",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", sev, got, want)
		}
	}
}
