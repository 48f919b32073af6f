package metrics

import "time"

// Gate is the subset of pkg/tenant.Gate the collector polls.
type Gate interface {
	CachedOwnerCount() int
}

// Collector periodically samples the tenant gate's cache size into
// CachedOwnerConnections.
type Collector struct {
	gate   Gate
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector polling gate.
func NewCollector(gate Gate) *Collector {
	return &Collector{
		gate:   gate,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds until Stop is called.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	CachedOwnerConnections.Set(float64(c.gate.CachedOwnerCount()))
}
