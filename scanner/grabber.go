package scanner

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"self-checkout/detection"
)

const maxSnapshotBytes = 16 << 20

// SnapshotGrabber polls a camera snapshot URL and overwrites the latest
// frame cell. Frames are never queued.
type SnapshotGrabber struct {
	url      string
	interval time.Duration
	client   *http.Client
	cell     *detection.LatestFrame
}

func NewSnapshotGrabber(url string, interval, timeout time.Duration, cell *detection.LatestFrame) *SnapshotGrabber {
	return &SnapshotGrabber{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		cell:     cell,
	}
}

func (g *SnapshotGrabber) Run(ctx context.Context) {
	if g.interval <= 0 {
		log.Printf("[camera] snapshot polling disabled, interval %v", g.interval)
		return
	}
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := g.Grab(ctx)
			switch {
			case err != nil && !failing:
				log.Printf("[camera] snapshot failed: %v", err)
				failing = true
			case err == nil && failing:
				log.Printf("[camera] snapshot recovered")
				failing = false
			}
		}
	}
}

// Grab fetches one snapshot into the cell.
func (g *SnapshotGrabber) Grab(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("snapshot status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return err
	}
	g.cell.Store(data, resp.Header.Get("Content-Type"), time.Now())
	return nil
}
