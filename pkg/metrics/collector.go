package metrics

import "time"

// Source is the subset of the ordinal index core the collector polls on a
// timer. pkg/oic's Core satisfies this.
type Source interface {
	IndexedHeight() uint64
	TotalNames() int
	TotalTokens() int
	InscriptionCounts() map[string]int
}

// Collector periodically samples a Source and updates the package-level
// gauges.
type Collector struct {
	source Source
	stopCh chan struct{}
}

// NewCollector creates a Collector that polls source every 15s once
// started.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics in a background goroutine.
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

// Stop halts the background collection goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	IndexedHeight.Set(float64(c.source.IndexedHeight()))
	NamesTotal.Set(float64(c.source.TotalNames()))
	TokensTotal.Set(float64(c.source.TotalTokens()))

	for kind, count := range c.source.InscriptionCounts() {
		InscriptionsTotal.WithLabelValues(kind).Set(float64(count))
	}
}
