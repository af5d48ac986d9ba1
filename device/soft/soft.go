// Package soft is a software implementation of the device model.
//
// Surfaces live in system memory, the rendering device rasterizes with
// quarkgl and the primary surface is the hal framebuffer. Every object is
// tracked by a ledger that refuses out-of-order releases, which makes the
// package suitable for checking resource lifecycles in tests as well as for
// drawing.
//
// Objects are not safe for concurrent use.
package soft

import (
	"fmt"
	"iter"
	"slices"

	"quarkcube/device"
	"quarkcube/hal"
)

// Config describes the emulated display and driver.
type Config struct {
	// Display receives blits to the primary surface. It may be nil.
	Display hal.Framebuffer

	// DisplayFormat overrides the format derived from Display.
	DisplayFormat device.PixelFormat

	// Devices defaults to DefaultDevices.
	Devices []device.DeviceDesc

	// TextureFormats defaults to DefaultTextureFormats.
	TextureFormats []device.PixelFormat

	// VideoMemory limits the bytes of surface memory; 0 is unlimited.
	VideoMemory int

	Logger hal.Logger
}

// DefaultDevices returns a hardware device with 16 and 24-bit z-buffers and
// a software device with a 16-bit z-buffer.
func DefaultDevices() []device.DeviceDesc {
	return []device.DeviceDesc{
		{
			ID:               device.DeviceRGB,
			Name:             "RGB Emulation",
			Description:      "software rasterizer",
			ZBufferBitDepths: device.BD16,
		},
		{
			ID:               device.DeviceHAL,
			Name:             "Direct3D HAL",
			Description:      "quarkgl rasterizer",
			Hardware:         true,
			ZBufferBitDepths: device.BD16 | device.BD24,
		},
	}
}

// DefaultTextureFormats returns the texture formats in driver order.
func DefaultTextureFormats() []device.PixelFormat {
	return []device.PixelFormat{
		device.FormatARGB1555,
		device.FormatRGB565,
		device.FormatARGB4444,
		device.FormatL8,
		device.FormatV8U8,
		device.FormatDXT1,
		device.FormatARGB8888,
		device.FormatXRGB8888,
	}
}

// RenderStats counts device activity.
type RenderStats struct {
	Scenes    int
	Draws     int
	Triangles int
	Drawn     int
	Culled    int
	Clears    int
	Blits     int
}

// Provider is the soft display-surface provider.
type Provider struct {
	cfg    Config
	led    *ledger
	obj    *object
	faults Faults
	log    hal.Logger

	win      device.Window
	level    device.CoopLevel
	primary  *surface
	surfaces map[*surface]struct{}
	video    int
	render   RenderStats
}

var _ device.Provider = (*Provider)(nil)

// New returns a provider for cfg.
func New(cfg Config) *Provider {
	if cfg.Devices == nil {
		cfg.Devices = DefaultDevices()
	}
	if cfg.TextureFormats == nil {
		cfg.TextureFormats = DefaultTextureFormats()
	}
	p := &Provider{
		cfg:      cfg,
		log:      cfg.Logger,
		surfaces: make(map[*surface]struct{}),
	}
	p.led = newLedger(p.logf)
	p.obj = p.led.add("provider")
	return p
}

// Faults returns the fault injector of the provider.
func (p *Provider) Faults() *Faults { return &p.faults }

// Ledger returns the lifetime statistics of every object the provider created.
func (p *Provider) Ledger() LedgerStats { return p.led.snapshot() }

// LiveObjects names the objects not yet freed, the provider included.
func (p *Provider) LiveObjects() []string { return p.led.liveNames() }

// RenderStats returns what the devices of the provider did.
func (p *Provider) RenderStats() RenderStats { return p.render }

// LoseSurfaces marks every surface as lost, as a display mode switch would.
func (p *Provider) LoseSurfaces() {
	for s := range p.surfaces {
		s.lost = true
	}
}

func (p *Provider) logf(s string) {
	if p.log != nil {
		p.log.WriteLineString(s)
	}
}

func (p *Provider) Release() error { return p.led.release(p.obj) }

func (p *Provider) SetCooperativeLevel(win device.Window, level device.CoopLevel) error {
	if !p.led.alive(p.obj) {
		return device.ErrReleased
	}
	if err := p.faults.check(OpSetCooperativeLevel); err != nil {
		return err
	}
	if win == nil {
		return device.ErrInvalidParams
	}
	switch level {
	case device.CoopNormal:
	case device.CoopExclusive:
		return fmt.Errorf("%w: exclusive mode", device.ErrUnsupported)
	default:
		return device.ErrInvalidParams
	}
	p.win = win
	p.level = level
	return nil
}

func (p *Provider) DisplayMode() (device.PixelFormat, error) {
	if !p.led.alive(p.obj) {
		return device.PixelFormat{}, device.ErrReleased
	}
	if err := p.faults.check(OpDisplayMode); err != nil {
		return device.PixelFormat{}, err
	}
	return p.displayFormat(), nil
}

func (p *Provider) displayFormat() device.PixelFormat {
	if p.cfg.DisplayFormat != (device.PixelFormat{}) {
		return p.cfg.DisplayFormat
	}
	if p.cfg.Display == nil {
		return device.FormatRGB565
	}
	switch p.cfg.Display.Format() {
	case hal.PixelFormatRGBA8888:
		return device.FormatXRGB8888
	case hal.PixelFormatIndexed8:
		return device.FormatPAL8
	default:
		return device.FormatRGB565
	}
}

func (p *Provider) CreateClipper() (device.Clipper, error) {
	if !p.led.alive(p.obj) {
		return nil, device.ErrReleased
	}
	if err := p.faults.check(OpCreateClipper); err != nil {
		return nil, err
	}
	c := &clipper{p: p}
	c.obj = p.led.add("clipper", p.obj)
	return c, nil
}

func (p *Provider) Direct3D() (device.Direct3D, error) {
	if !p.led.alive(p.obj) {
		return nil, device.ErrReleased
	}
	if err := p.faults.check(OpDirect3D); err != nil {
		return nil, err
	}
	d := &direct3D{p: p}
	d.obj = p.led.add("direct3d", p.obj)
	return d, nil
}

func (p *Provider) devices() iter.Seq[device.DeviceDesc] {
	return slices.Values(p.cfg.Devices)
}
