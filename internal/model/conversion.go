package model

import (
	"time"

	"github.com/google/uuid"
)

// ResizeMode selects how target dimensions are computed.
type ResizeMode int

const (
	// ResizeNone keeps the source dimensions.
	ResizeNone ResizeMode = iota
	// ResizeMaxDimension clamps the longer side to a fixed maximum.
	ResizeMaxDimension
	// ResizeRatio scales both sides by the compression ratio percentage.
	ResizeRatio
)

func (m ResizeMode) String() string {
	switch m {
	case ResizeNone:
		return "none"
	case ResizeMaxDimension:
		return "max_dimension"
	case ResizeRatio:
		return "ratio"
	default:
		return "unknown"
	}
}

// Conversion is a single pipeline invocation.
type Conversion struct {
	ID     uuid.UUID  `json:"id"`
	URL    string     `json:"url"`
	Format Format     `json:"format"`
	Ratio  int        `json:"ratio"`
	Mode   ResizeMode `json:"mode"`
}

// Artifact is the encoded output handed to the download backend.
type Artifact struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Result describes a saved artifact.
type Result struct {
	ID        uuid.UUID `json:"id"`
	Location  string    `json:"location"`
	Filename  string    `json:"filename"`
	MIMEType  string    `json:"mime_type"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
