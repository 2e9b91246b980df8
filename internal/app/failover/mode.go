// Package failover decides which audio source should be playing and keeps a
// player process running for it.
package failover

// Mode represents the audio source the controller wants active.
type Mode int

const (
	ModeStreaming Mode = iota // Network stream
	ModeBackup                // Local backup files
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStreaming:
		return "streaming"
	case ModeBackup:
		return "backup"
	default:
		return "unknown"
	}
}
