package failover

import "time"

// EventType represents a controller event type.
type EventType int

const (
	EventProbe           EventType = iota // Connectivity sampled
	EventModeChanged                      // Switched between stream and backup
	EventPlayerRestarted                  // Player relaunched for the current mode (HandleID is the new player)
	EventLaunchFailed                     // Player could not be started
	EventBackupEmpty                      // No backup files to play
	EventStopped                          // Controller shut down
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventProbe:
		return "probe"
	case EventModeChanged:
		return "mode_changed"
	case EventPlayerRestarted:
		return "player_restarted"
	case EventLaunchFailed:
		return "launch_failed"
	case EventBackupEmpty:
		return "backup_empty"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a controller event.
type Event struct {
	Type     EventType
	Mode     Mode      // Mode after the event
	From     Mode      // Previous mode (EventModeChanged only)
	Online   bool      // Probe result (EventProbe only)
	HandleID string    // Player involved, if any
	Err      error     // Launch error (EventLaunchFailed only)
	At       time.Time // Controller clock time
}
