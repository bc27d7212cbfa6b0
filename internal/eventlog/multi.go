package eventlog

// Multi fans a Log call out to every sink it wraps. cmd/devicestated
// always wraps the sinks selected by the top-level eventlog config in one.
type Multi struct {
	sinks []Sink
}

// NewMulti combines sinks into one.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Log(severity Severity, server, message string) {
	for _, sink := range m.sinks {
		sink.Log(severity, server, message)
	}
}

func (m *Multi) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
