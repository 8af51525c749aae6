package registry

import (
	"codeberg.org/mutker/rgbmond/internal/logger"
	"codeberg.org/mutker/rgbmond/internal/openrgb"
)

// Enumerator is the slice of the controller client needed to rebuild the
// registry.
type Enumerator interface {
	ControllerCount() (uint32, error)
	ControllerData(index uint32) (*openrgb.Controller, error)
}

// ZoneRef is everything needed to issue a whole-zone color update
type ZoneRef struct {
	Controller uint32
	Zone       uint32
	LEDCount   uint32
}

// Registry caches, per enabled device type, the zone references of every
// matching controller. A Registry is immutable once built; the daemon swaps
// the whole value on reload so an in-flight tick never observes a partial
// update.
type Registry struct {
	entries map[openrgb.DeviceType][]ZoneRef
	order   []openrgb.DeviceType
}

// Rebuild enumerates the server's controllers and returns a fresh registry
// holding the zones of every controller whose device type is enabled.
func Rebuild(enum Enumerator, enabled []openrgb.DeviceType) (*Registry, error) {
	count, err := enum.ControllerCount()
	if err != nil {
		return nil, err
	}

	wanted := make(map[openrgb.DeviceType]bool, len(enabled))
	for _, t := range enabled {
		wanted[t] = true
	}

	r := &Registry{entries: make(map[openrgb.DeviceType][]ZoneRef)}
	for i := uint32(0); i < count; i++ {
		ctrl, err := enum.ControllerData(i)
		if err != nil {
			return nil, err
		}

		if !wanted[ctrl.Type] {
			continue
		}

		if _, seen := r.entries[ctrl.Type]; !seen {
			r.order = append(r.order, ctrl.Type)
		}
		for _, zone := range ctrl.Zones {
			r.entries[ctrl.Type] = append(r.entries[ctrl.Type], ZoneRef{
				Controller: ctrl.Index,
				Zone:       zone.Index,
				LEDCount:   zone.LEDCount,
			})
		}

		logger.Debug().
			Uint32("controller", ctrl.Index).
			Str("name", ctrl.Name).
			Str("type", ctrl.Type.String()).
			Int("zones", len(ctrl.Zones)).
			Msg("Controller registered")
	}

	return r, nil
}

// Zones returns every cached zone reference in enumeration order
func (r *Registry) Zones() []ZoneRef {
	var all []ZoneRef
	for _, t := range r.order {
		all = append(all, r.entries[t]...)
	}

	return all
}

// ZonesFor returns the cached zone references of one device type
func (r *Registry) ZonesFor(t openrgb.DeviceType) []ZoneRef {
	return r.entries[t]
}

func (r *Registry) Empty() bool {
	return len(r.entries) == 0
}
