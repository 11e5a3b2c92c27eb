package devicedata

// ParseError reports a malformed field-level input.
type ParseError struct {
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	return "device data: invalid " + e.Field + ": " + e.Message
}

// ValidationError reports a cross-field invariant violation. Field may
// be empty when the violation spans several fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "device data: " + e.Message
	}
	return "device data: " + e.Field + ": " + e.Message
}
