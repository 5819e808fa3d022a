package mode

// Mode is the response mode: it controls context breadth and answer verbosity.
type Mode string

// Response mode constants.
const (
	// Normal asks for a concise 3-5 sentence answer over a narrow context.
	Normal Mode = "normal"
	// Engaged asks for a longer, structured answer over a wider context.
	Engaged Mode = "engaged"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Normal || m == Engaged
}

// Parse maps an empty string to Normal and rejects unknown modes.
func Parse(s string) (Mode, bool) {
	if s == "" {
		return Normal, true
	}
	m := Mode(s)
	return m, m.IsValid()
}
