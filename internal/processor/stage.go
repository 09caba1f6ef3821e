package processor

// Stage is a step of a single conversion.
type Stage int

const (
	StageFetching Stage = iota
	StageDecoding
	StageResizing
	StageEncoding
	StageSaving
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageFetching:
		return "fetching"
	case StageDecoding:
		return "decoding"
	case StageResizing:
		return "resizing"
	case StageEncoding:
		return "encoding"
	case StageSaving:
		return "saving"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}
