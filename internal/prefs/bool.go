package prefs

// ParseBool is the truthiness rule for stored strings. Storage only holds strings, so
// serialized falsy JavaScript-ish values ("false", "null", "NaN", "undefined", "0") and
// the empty string read back as false; anything else is true.
func ParseBool(v string) bool {
	switch v {
	case "", "false", "null", "NaN", "undefined", "0":
		return false
	}
	return true
}

// FormatBool is the inverse used when persisting checkbox state.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
