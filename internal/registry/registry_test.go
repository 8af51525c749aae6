package registry

import (
	"testing"

	"codeberg.org/mutker/rgbmond/internal/errors"
	"codeberg.org/mutker/rgbmond/internal/openrgb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnum struct {
	controllers []*openrgb.Controller
	countErr    error
	dataErr     error
	describes   int
}

func (f *fakeEnum) ControllerCount() (uint32, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}

	return uint32(len(f.controllers)), nil
}

func (f *fakeEnum) ControllerData(index uint32) (*openrgb.Controller, error) {
	f.describes++
	if f.dataErr != nil {
		return nil, f.dataErr
	}

	return f.controllers[index], nil
}

func testControllers() []*openrgb.Controller {
	return []*openrgb.Controller{
		{
			Index: 0,
			Name:  "Mainboard",
			Type:  openrgb.DeviceMotherboard,
			Zones: []openrgb.Zone{{Index: 0, Name: "Back I/O", LEDCount: 12}},
		},
		{
			Index: 1,
			Name:  "Graphics card",
			Type:  openrgb.DeviceGPU,
			Zones: []openrgb.Zone{
				{Index: 0, Name: "Logo", LEDCount: 1},
				{Index: 1, Name: "Fans", LEDCount: 24},
			},
		},
		{
			Index: 2,
			Name:  "Memory",
			Type:  openrgb.DeviceDRAM,
			Zones: []openrgb.Zone{{Index: 0, Name: "Stick", LEDCount: 8}},
		},
	}
}

func TestRebuildFiltersByType(t *testing.T) {
	enum := &fakeEnum{controllers: testControllers()}

	r, err := Rebuild(enum, []openrgb.DeviceType{openrgb.DeviceGPU})
	require.NoError(t, err)

	// only the graphics card's zones survive the filter
	zones := r.Zones()
	require.Len(t, zones, 2)
	assert.Equal(t, ZoneRef{Controller: 1, Zone: 0, LEDCount: 1}, zones[0])
	assert.Equal(t, ZoneRef{Controller: 1, Zone: 1, LEDCount: 24}, zones[1])

	assert.Empty(t, r.ZonesFor(openrgb.DeviceMotherboard))
	assert.Empty(t, r.ZonesFor(openrgb.DeviceDRAM))
	assert.False(t, r.Empty())
}

func TestRebuildAllTypes(t *testing.T) {
	enum := &fakeEnum{controllers: testControllers()}
	enabled := []openrgb.DeviceType{
		openrgb.DeviceMotherboard,
		openrgb.DeviceDRAM,
		openrgb.DeviceGPU,
		openrgb.DeviceCooler,
		openrgb.DeviceLEDStrip,
	}

	r, err := Rebuild(enum, enabled)
	require.NoError(t, err)
	assert.Len(t, r.Zones(), 4)
	assert.Equal(t, 3, enum.describes)
}

func TestRebuildNoMatches(t *testing.T) {
	enum := &fakeEnum{controllers: testControllers()}

	r, err := Rebuild(enum, []openrgb.DeviceType{openrgb.DeviceLEDStrip})
	require.NoError(t, err)
	assert.True(t, r.Empty())
	assert.Empty(t, r.Zones())
}

func TestRebuildDescribesEveryController(t *testing.T) {
	enum := &fakeEnum{controllers: testControllers()}

	// filtering happens after the describe call, so every controller is
	// still queried exactly once
	_, err := Rebuild(enum, []openrgb.DeviceType{openrgb.DeviceDRAM})
	require.NoError(t, err)
	assert.Equal(t, 3, enum.describes)
}

func TestRebuildPropagatesErrors(t *testing.T) {
	errFactory := errors.New()

	enum := &fakeEnum{countErr: errFactory.New(errors.ErrConnectionClosed)}
	_, err := Rebuild(enum, []openrgb.DeviceType{openrgb.DeviceGPU})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrConnectionClosed))

	enum = &fakeEnum{
		controllers: testControllers(),
		dataErr:     errFactory.New(errors.ErrProtocolMalformed),
	}
	_, err = Rebuild(enum, []openrgb.DeviceType{openrgb.DeviceGPU})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProtocolMalformed))
}
