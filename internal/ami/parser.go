package ami

import (
	"strings"
)

// header is one "Key: Value" line, key preserved as written (lookups are
// case-insensitive via ResultSet's methods).
type header struct {
	key   string
	value string
}

// ResultSet is one block of "Key: Value" lines from a rawman response —
// either the single response block of a plain action, or one block
// (response, event, or completion event) within an enumeration.
type ResultSet struct {
	headers []header
}

// Get returns the single value for key (case-insensitive), or an
// AmbiguousFieldError if key appears more than once in this result set.
// A missing key returns ("", nil).
func (rs *ResultSet) Get(key string) (string, error) {
	var found string
	n := 0
	for _, h := range rs.headers {
		if strings.EqualFold(h.key, key) {
			found = h.value
			n++
		}
	}
	if n > 1 {
		return "", &AmbiguousFieldError{Key: key}
	}
	return found, nil
}

// GetAll returns every value for key (case-insensitive), in the order the
// headers appeared. Used for fields like "Message" that are explicitly
// allowed to repeat (spec §6: "newline-joined if repeated").
func (rs *ResultSet) GetAll(key string) []string {
	var out []string
	for _, h := range rs.headers {
		if strings.EqualFold(h.key, key) {
			out = append(out, h.value)
		}
	}
	return out
}

// Has reports whether key appears at all (any number of times).
func (rs *ResultSet) Has(key string) bool {
	for _, h := range rs.headers {
		if strings.EqualFold(h.key, key) {
			return true
		}
	}
	return false
}

// multiResultMarker is the "characteristic four-byte marker" spec §6/§9
// calls out: LF-CR-LF-CR appearing inside what should be a single result
// set's raw text indicates two result sets were concatenated without the
// normal \r\n\r\n separation between them. Preserved verbatim, not "fixed",
// per the Open Question in spec §9.
const multiResultMarker = "\n\r\n\r"

// splitResultSets splits a raw rawman response body into result-set
// blocks on the \r\n\r\n separator, parsing each block's "Key: Value"
// lines. It returns an error if any individual block itself contains the
// anomalous multiResultMarker, since that indicates the block actually
// held more than one result set.
func splitResultSets(body string) ([]*ResultSet, error) {
	blocks := strings.Split(body, "\r\n\r\n")
	var sets []*ResultSet
	for _, block := range blocks {
		block = strings.TrimRight(block, "\r\n")
		if block == "" {
			continue
		}
		if strings.Contains(block, multiResultMarker) {
			return nil, &ProtocolError{Op: "parse", Message: "multiple result sets in a single response"}
		}
		sets = append(sets, parseResultSet(block))
	}
	return sets, nil
}

// parseResultSet parses one block of CRLF-terminated "Key: Value" lines.
// Keys and values are trimmed of surrounding whitespace; keys are matched
// case-insensitively by ResultSet's accessors.
func parseResultSet(block string) *ResultSet {
	rs := &ResultSet{}
	for _, line := range strings.Split(block, "\r\n") {
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		rs.headers = append(rs.headers, header{key: key, value: value})
	}
	return rs
}

// responseValue reads the Response header from rs, or "" if absent.
func (rs *ResultSet) responseValue() (string, error) {
	return rs.Get("Response")
}

// eventType reads the Event header from rs, or "" if absent.
func (rs *ResultSet) eventType() (string, error) {
	return rs.Get("Event")
}
