package daemon

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/rgbmond/internal/colormap"
	"codeberg.org/mutker/rgbmond/internal/errors"
	"codeberg.org/mutker/rgbmond/internal/logger"
	"codeberg.org/mutker/rgbmond/internal/metrics"
	"codeberg.org/mutker/rgbmond/internal/openrgb"
	"codeberg.org/mutker/rgbmond/internal/registry"
)

// State is the daemon's runtime state, mutated only at tick boundaries
type State int

const (
	Active State = iota
	Suspended
)

func (s State) String() string {
	if s == Suspended {
		return "suspended"
	}

	return "active"
}

// Client is the slice of the controller client the loop drives
type Client interface {
	registry.Enumerator
	Connect() error
	SetZoneColor(controller, zone, ledCount uint32, color colormap.Color) error
	Close() error
}

// Sampler produces one load fraction in [0,1] per tick
type Sampler interface {
	Sample() (float64, error)
}

type Config struct {
	Interval time.Duration
	LoadDiff float64 // minimum load change before a new push, as a fraction
	Spec     colormap.Spec
	Enabled  []openrgb.DeviceType
}

func (c Config) validate() error {
	errFactory := errors.New()
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if err := c.Spec.Validate(); err != nil {
		return err
	}
	for _, t := range c.Enabled {
		if !t.IsValid() {
			return errFactory.WithData(errors.ErrInvalidDeviceType, uint32(t))
		}
	}

	return nil
}

// Daemon runs the sampling/update loop. A single goroutine owns the client
// and the registry; signal handlers only latch the atomic flags, which the
// loop applies at the next tick boundary.
type Daemon struct {
	cfg       Config
	client    Client
	sampler   Sampler
	collector metrics.Collector

	reg   *registry.Registry
	state State

	toggle atomic.Bool
	reload atomic.Bool

	lastLoad   float64
	havePushed bool
}

func New(cfg Config, client Client, sampler Sampler, collector metrics.Collector) (*Daemon, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if collector == nil {
		collector = metrics.Disabled()
	}

	return &Daemon{
		cfg:       cfg,
		client:    client,
		sampler:   sampler,
		collector: collector,
	}, nil
}

// RequestToggle latches a suspend/resume request; applied at the next tick
func (d *Daemon) RequestToggle() {
	d.toggle.Store(true)
}

// RequestReload latches a reconnect-and-rebuild request; applied at the
// next tick
func (d *Daemon) RequestReload() {
	d.reload.Store(true)
}

func (d *Daemon) State() State {
	return d.state
}

// Run connects, builds the registry and drives the loop until ctx is
// cancelled. The initial connect is the only fatal failure; afterwards the
// daemon retries indefinitely, one reconnect per tick.
func (d *Daemon) Run(ctx context.Context) error {
	errFactory := errors.New()

	if err := d.client.Connect(); err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	reg, err := registry.Rebuild(d.client, d.cfg.Enabled)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	d.reg = reg

	if d.reg.Empty() {
		logger.Warn().Msg("No controllers match the enabled device types")
	}

	// Prime the sampler so the first tick has a real delta window
	if _, err := d.sampler.Sample(); err != nil {
		logger.Warn().Err(err).Msg("Failed to prime load sampler")
	}

	logger.Info().Msg("Started")

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.applySignals(ctx)
			if d.state == Suspended {
				continue
			}
			d.tick(ctx, false)
		}
	}
}

// applySignals drains the latched flags at the tick boundary
func (d *Daemon) applySignals(ctx context.Context) {
	if d.toggle.Swap(false) {
		if d.state == Active {
			d.suspend(ctx)
		} else {
			d.resume(ctx)
		}
	}

	if d.reload.Swap(false) {
		logger.Info().Msg("Reloading controller data")
		d.resume(ctx)
	}
}

// suspend blanks every cached zone best-effort and stops ticking
func (d *Daemon) suspend(ctx context.Context) {
	logger.Debug().Msg("Suspending")
	d.state = Suspended

	for _, zone := range d.reg.Zones() {
		if err := d.client.SetZoneColor(zone.Controller, zone.Zone, zone.LEDCount, colormap.Black); err != nil {
			logger.Error().Err(err).Msg("Unable to set color")
			break
		}
	}

	d.record(ctx, 0, colormap.Black, 0)
}

// resume reconnects, rebuilds the registry from scratch (topology may have
// changed while suspended) and forces an immediate push instead of waiting
// for the next interval boundary.
func (d *Daemon) resume(ctx context.Context) {
	logger.Debug().Msg("Resuming")
	d.state = Active

	if err := d.reconnect(); err != nil {
		logger.Error().Err(err).Msg("Reconnect failed; will retry next tick")
		return
	}

	d.tick(ctx, true)
}

// tick performs one sample/compute/push cycle. force bypasses the load
// hysteresis and is used after resume and reload.
func (d *Daemon) tick(ctx context.Context, force bool) {
	load, err := d.sampler.Sample()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to sample CPU load")
		return
	}
	load = clamp01(load)

	logger.Debug().Float64("load", load).Msg("CPU load sampled")

	if !force && d.havePushed && math.Abs(load-d.lastLoad) < d.cfg.LoadDiff {
		return
	}

	color := colormap.Compute(load, d.cfg.Spec)

	if err := d.push(color); err != nil {
		// One reconnect-with-rebuild, then give up for this tick
		if rerr := d.reconnect(); rerr != nil {
			logger.Error().Err(rerr).Msg("Reconnect failed; skipping tick")
			return
		}
		if err := d.push(color); err != nil {
			logger.Error().Err(err).Msg("Push failed after reconnect; skipping tick")
			return
		}
	}

	d.lastLoad = load
	d.havePushed = true

	logger.Debug().Str("color", color.Hex()).Msg("Color applied")
	d.record(ctx, load, color, len(d.reg.Zones()))
}

// push sends the color to every cached zone reference
func (d *Daemon) push(color colormap.Color) error {
	for _, zone := range d.reg.Zones() {
		if err := d.client.SetZoneColor(zone.Controller, zone.Zone, zone.LEDCount, color); err != nil {
			return err
		}
	}

	return nil
}

// reconnect replaces the connection and the registry wholesale
func (d *Daemon) reconnect() error {
	if err := d.client.Connect(); err != nil {
		return err
	}

	reg, err := registry.Rebuild(d.client, d.cfg.Enabled)
	if err != nil {
		return err
	}
	d.reg = reg

	return nil
}

func (d *Daemon) record(ctx context.Context, load float64, color colormap.Color, zones int) {
	snapshot := &metrics.TickSnapshot{
		Timestamp:    time.Now(),
		Load:         load,
		Color:        color,
		ZonesUpdated: zones,
		Suspended:    d.state == Suspended,
	}
	if err := d.collector.Record(ctx, snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to record tick metrics")
	}
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}

	return x
}
