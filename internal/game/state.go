// Package game wires the combat services into a playable session.
package game

// Phase represents where the session is between and during battles.
type Phase int

const (
	// PhaseFighting - a battle is running
	PhaseFighting Phase = iota
	// PhaseResults - the last battle was won; waiting for the next
	PhaseResults
	// PhaseDefeated - the player has fallen; the run is over
	PhaseDefeated
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseFighting:
		return "fighting"
	case PhaseResults:
		return "results"
	case PhaseDefeated:
		return "defeated"
	default:
		return "unknown"
	}
}
