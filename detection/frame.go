package detection

import (
	"sync"
	"time"
)

type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
	Seq         uint64
}

// LatestFrame is a single-slot cell holding the most recent frame. It is
// lossy: Store overwrites whatever has not been read yet and readers always
// see the newest frame.
type LatestFrame struct {
	mu    sync.Mutex
	frame Frame
	seq   uint64
	set   bool
}

func (c *LatestFrame) Store(data []byte, contentType string, capturedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.frame = Frame{Data: data, ContentType: contentType, CapturedAt: capturedAt, Seq: c.seq}
	c.set = true
}

// Load returns a copy of the newest frame and false if nothing was stored yet.
func (c *LatestFrame) Load() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return Frame{}, false
	}
	f := c.frame
	f.Data = append([]byte(nil), c.frame.Data...)
	return f, true
}
