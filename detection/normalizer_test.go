package detection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x1, y1, x2, y2 float64) BBox {
	return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b BBox
		want float64
	}{
		{"identical", box(0, 0, 10, 10), box(0, 0, 10, 10), 1},
		{"half overlap", box(0, 0, 10, 10), box(5, 0, 15, 10), 50.0 / 150.0},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 30, 30), 0},
		{"touching edge", box(0, 0, 10, 10), box(10, 0, 20, 10), 0},
		{"degenerate", box(0, 0, 0, 10), box(0, 0, 10, 10), 0},
		{"inverted", box(10, 10, 0, 0), box(0, 0, 10, 10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalizeSuppressesSameLabelOverlap(t *testing.T) {
	n := NewNormalizer(0.3, 0.5)
	res := n.Normalize([]SourceResult{{
		Category: "drinks",
		Detections: []Record{
			{Label: "CocaCola-Can", Confidence: 0.7, BBox: box(0, 0, 100, 100)},
			{Label: "CocaCola-Can", Confidence: 0.9, BBox: box(5, 5, 100, 100)},
		},
	}})

	require.Len(t, res.Records, 1)
	assert.InDelta(t, 0.9, res.Records[0].Confidence, 1e-9)
	assert.Equal(t, "drinks", res.Records[0].SourceCategory)
	assert.Equal(t, 1, res.Dropped)
}

func TestNormalizeKeepsDifferentLabelOverlap(t *testing.T) {
	n := NewNormalizer(0.3, 0.5)
	res := n.Normalize([]SourceResult{
		{Category: "chips", Detections: []Record{{Label: "Tasto-Original-Flavor", Confidence: 0.8, BBox: box(0, 0, 100, 100)}}},
		{Category: "drinks", Detections: []Record{{Label: "Pepsi", Confidence: 0.6, BBox: box(0, 0, 100, 100)}}},
	})

	require.Len(t, res.Records, 2)
	assert.Equal(t, "Tasto-Original-Flavor", res.Records[0].Label)
	assert.Equal(t, "Pepsi", res.Records[1].Label)
}

func TestNormalizeKeepsSameLabelBelowThreshold(t *testing.T) {
	n := NewNormalizer(0.3, 0.5)
	res := n.Normalize([]SourceResult{{
		Category: "drinks",
		Detections: []Record{
			{Label: "Sprite", Confidence: 0.8, BBox: box(0, 0, 10, 10)},
			{Label: "Sprite", Confidence: 0.7, BBox: box(50, 50, 60, 60)},
		},
	}})

	assert.Len(t, res.Records, 2)
}

func TestNormalizeFiltersConfidenceAndGeometry(t *testing.T) {
	n := NewNormalizer(0.5, 0.5)
	res := n.Normalize([]SourceResult{{
		Category: "chips",
		Detections: []Record{
			{Label: "Enter", Confidence: 0.49, BBox: box(0, 0, 10, 10)},
			{Label: "Atreus", Confidence: 0.9, BBox: box(10, 10, 10, 20)},
			{Label: "Snackjack-Original-Flavor", Confidence: 0.5, BBox: box(0, 0, 10, 10)},
		},
	}})

	require.Len(t, res.Records, 1)
	assert.Equal(t, "Snackjack-Original-Flavor", res.Records[0].Label)
	assert.Equal(t, 2, res.Dropped)
}

func TestNormalizeReportsFailedSources(t *testing.T) {
	n := NewNormalizer(0.3, 0.5)
	res := n.Normalize([]SourceResult{
		{Category: "chips", Err: errors.New("model not loaded")},
		{Category: "drinks", Detections: []Record{{Label: "Pepsi", Confidence: 0.9, BBox: box(0, 0, 10, 10)}}},
	})

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "chips", res.Failures[0].Category)
	assert.Equal(t, "model not loaded", res.Failures[0].Reason)
	assert.Len(t, res.Records, 1)
}

func TestNormalizeEmpty(t *testing.T) {
	res := NewNormalizer(0.3, 0.5).Normalize(nil)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Failures)
}
