package model

// Format is the output image format chosen in the settings.
type Format string

const (
	FormatJPG Format = "jpg"
	FormatPNG Format = "png"
)

// Settings keys as they are persisted in the synchronized store.
const (
	KeyImageFormat      = "imageFormat"
	KeyCompressionRatio = "compressionRatio"
)

// Default values used when a key is absent from the store.
const (
	DefaultImageFormat      = FormatJPG
	DefaultCompressionRatio = 100
)

// MIMEType returns the encoder MIME type for the format.
// Anything that is not png takes the JPEG path.
func (f Format) MIMEType() string {
	if f == FormatPNG {
		return "image/png"
	}

	return "image/jpeg"
}

// Extension returns the file extension (without dot) matching MIMEType.
func (f Format) Extension() string {
	if f == FormatPNG {
		return "png"
	}

	return "jpg"
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f == FormatJPG || f == FormatPNG
}

// Settings holds the conversion settings.
// CompressionRatio is a scale percentage (0..100) applied to image dimensions.
type Settings struct {
	ImageFormat      Format `json:"imageFormat"`
	CompressionRatio int    `json:"compressionRatio"`
}

// DefaultSettings returns {jpg, 100}.
func DefaultSettings() Settings {
	return Settings{
		ImageFormat:      DefaultImageFormat,
		CompressionRatio: DefaultCompressionRatio,
	}
}

// Values is a partial set of settings.
// A nil field means the key is absent (on reads) or unchanged (on writes and notifications).
type Values struct {
	ImageFormat      *Format `json:"imageFormat,omitempty" yaml:"imageFormat,omitempty"`
	CompressionRatio *int    `json:"compressionRatio,omitempty" yaml:"compressionRatio,omitempty"`
}

// ValuesOf converts full settings into Values with every key present.
func ValuesOf(s Settings) Values {
	format := s.ImageFormat
	ratio := s.CompressionRatio

	return Values{ImageFormat: &format, CompressionRatio: &ratio}
}

// Empty reports whether no key is present.
func (v Values) Empty() bool {
	return v.ImageFormat == nil && v.CompressionRatio == nil
}

// Apply overlays the present keys onto s.
func (v Values) Apply(s Settings) Settings {
	if v.ImageFormat != nil {
		s.ImageFormat = *v.ImageFormat
	}
	if v.CompressionRatio != nil {
		s.CompressionRatio = *v.CompressionRatio
	}

	return s
}

// Merge returns v with the present keys of other written over it.
func (v Values) Merge(other Values) Values {
	if other.ImageFormat != nil {
		format := *other.ImageFormat
		v.ImageFormat = &format
	}
	if other.CompressionRatio != nil {
		ratio := *other.CompressionRatio
		v.CompressionRatio = &ratio
	}

	return v
}

// Diff returns the keys of next whose value differs from v.
func (v Values) Diff(next Values) Values {
	var changed Values

	if next.ImageFormat != nil && (v.ImageFormat == nil || *v.ImageFormat != *next.ImageFormat) {
		format := *next.ImageFormat
		changed.ImageFormat = &format
	}
	if next.CompressionRatio != nil && (v.CompressionRatio == nil || *v.CompressionRatio != *next.CompressionRatio) {
		ratio := *next.CompressionRatio
		changed.CompressionRatio = &ratio
	}

	return changed
}

// Only keeps the listed keys. No keys keeps everything.
func (v Values) Only(keys ...string) Values {
	if len(keys) == 0 {
		return v
	}

	var out Values
	for _, key := range keys {
		switch key {
		case KeyImageFormat:
			out.ImageFormat = v.ImageFormat
		case KeyCompressionRatio:
			out.CompressionRatio = v.CompressionRatio
		}
	}

	return out
}

// Keys lists the present keys.
func (v Values) Keys() []string {
	keys := make([]string, 0, 2)
	if v.ImageFormat != nil {
		keys = append(keys, KeyImageFormat)
	}
	if v.CompressionRatio != nil {
		keys = append(keys, KeyCompressionRatio)
	}

	return keys
}
