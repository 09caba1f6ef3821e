package processor

import "math"

// Browser canvas limits. Larger targets cannot get a drawing surface.
const (
	MaxSurfaceSide = 32767
	MaxSurfaceArea = 268435456
)

// FitWithin clamps the longer side of (width, height) to max, keeping the
// aspect ratio. Images already within max are returned unchanged.
func FitWithin(width, height, max int) (int, int) {
	if width > height {
		if width > max {
			height = round(float64(height) * float64(max) / float64(width))
			width = max
		}
	} else if height > max {
		width = round(float64(width) * float64(max) / float64(height))
		height = max
	}

	return width, height
}

// ScaleByRatio scales both sides by ratio percent.
func ScaleByRatio(width, height, ratio int) (int, int) {
	return round(float64(width) * float64(ratio) / 100),
		round(float64(height) * float64(ratio) / 100)
}

func surfaceAvailable(width, height int) bool {
	if width > MaxSurfaceSide || height > MaxSurfaceSide {
		return false
	}

	return int64(width)*int64(height) <= MaxSurfaceArea
}

func round(v float64) int {
	return int(math.Round(v))
}
