// Package trace provides the pluggable observability sink fed by the
// kernel's Inspector Hook (C6): one Event per completed node activation.
package trace

// Event is one node activation observed by the Inspector Hook.
type Event struct {
	RunID    string
	Step     int
	NodeID   string
	Priority string
	Msg      string
	Meta     map[string]any
}
