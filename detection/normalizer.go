package detection

import (
	"log"
	"sort"
)

const (
	DefaultMinConfidence = 0.5
	DefaultIoUThreshold  = 0.5
)

// SourceResult is the outcome of invoking one sub-model on a frame: either
// detections or the reason the invocation failed.
type SourceResult struct {
	Category   string
	Detections []Record
	Err        error
}

type SourceFailure struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

type FrameResult struct {
	Records  []Record
	Failures []SourceFailure
	// Dropped counts detections removed by confidence, geometry or overlap filtering.
	Dropped int
}

type Normalizer struct {
	MinConfidence float64
	IoUThreshold  float64
}

func NewNormalizer(minConfidence, iouThreshold float64) *Normalizer {
	if minConfidence < 0 {
		minConfidence = DefaultMinConfidence
	}
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}
	return &Normalizer{MinConfidence: minConfidence, IoUThreshold: iouThreshold}
}

// Normalize merges per-source results for one frame. Failed sources are
// reported and contribute nothing; the remaining detections are filtered by
// confidence and box geometry, then same-label overlaps are suppressed.
func (n *Normalizer) Normalize(results []SourceResult) FrameResult {
	var out FrameResult
	var candidates []Record

	for _, res := range results {
		if res.Err != nil {
			log.Printf("[detect] %s source failed: %v", res.Category, res.Err)
			out.Failures = append(out.Failures, SourceFailure{Category: res.Category, Reason: res.Err.Error()})
			continue
		}
		for _, rec := range res.Detections {
			if rec.SourceCategory == "" {
				rec.SourceCategory = res.Category
			}
			if rec.Confidence < n.MinConfidence || rec.Confidence < 0 || !rec.BBox.Valid() {
				out.Dropped++
				continue
			}
			candidates = append(candidates, rec)
		}
	}

	out.Records = n.suppress(candidates)
	out.Dropped += len(candidates) - len(out.Records)
	return out
}

// suppress keeps the highest-confidence box of every same-label cluster.
// Overlapping boxes with different labels are both kept.
func (n *Normalizer) suppress(candidates []Record) []Record {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	accepted := make([]Record, 0, len(candidates))
	for _, cand := range candidates {
		duplicate := false
		for _, kept := range accepted {
			if kept.Label == cand.Label && IoU(kept.BBox, cand.BBox) > n.IoUThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, cand)
		}
	}
	return accepted
}
