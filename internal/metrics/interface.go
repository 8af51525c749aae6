package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/rgbmond/internal/colormap"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *TickSnapshot) error
	Close() error
}

// TickSnapshot is one applied tick of the control loop
type TickSnapshot struct {
	Timestamp    time.Time
	Load         float64
	Color        colormap.Color
	ZonesUpdated int
	Suspended    bool
}
