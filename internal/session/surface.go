package session

// Surface is where the session renders translated output and status lines.
// Output and status are separate channels: a failure updates status and must
// leave the last good output untouched.
type Surface interface {
	SetOutput(text string)
	SetStatus(message string)
	ClearStatus()
}

// noopSurface preserves session flow when no surface is wired.
type noopSurface struct{}

func (noopSurface) SetOutput(string) {}
func (noopSurface) SetStatus(string) {}
func (noopSurface) ClearStatus()     {}
