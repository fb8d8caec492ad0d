package backfill

// State is the drain loop's position in its state machine.
//
//	Fetching -> Embedding  (non-empty batch)
//	Fetching -> Completed  (empty batch)
//	Fetching -> Failed     (store error)
//	Embedding -> Writing | Failed
//	Writing -> Fetching | Failed
//
// Completed and Failed are terminal.
type State int

const (
	StateFetching State = iota
	StateEmbedding
	StateWriting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateEmbedding:
		return "embedding"
	case StateWriting:
		return "writing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
