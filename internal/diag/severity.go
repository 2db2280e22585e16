package diag

// Severity ranks a diagnostic. The validator and parser only ever emit
// errors; the lower levels exist for the renderers and for advisory
// checks that may land later.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{"INFO", "WARNING", "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
