package detection

// BBox is an axis-aligned box in source-frame pixel coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BBox) Area() float64 {
	if !b.Valid() {
		return 0
	}
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Valid reports whether the box has positive width and height.
func (b BBox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Record is one detection produced for a frame. It is never persisted.
type Record struct {
	Label          string  `json:"class_name"`
	Confidence     float64 `json:"confidence"`
	BBox           BBox    `json:"bbox"`
	SourceCategory string  `json:"category"`
}

// IoU returns the intersection over union of two boxes, or 0 when they do not
// overlap or either box has no area.
func IoU(a, b BBox) float64 {
	areaA, areaB := a.Area(), b.Area()
	if areaA <= 0 || areaB <= 0 {
		return 0
	}

	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := areaA + areaB - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
