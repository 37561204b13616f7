package workflow

// State is the workflow's position in the upload lifecycle.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateGenerating
	StateGenerated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file_selected"
	case StateGenerating:
		return "generating"
	case StateGenerated:
		return "generated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
