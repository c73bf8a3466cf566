package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gv/backend"
	"github.com/gogpu/gv/gpucore"

	// Registers the Vulkan hal backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.WGPU, func(width, height int) (gpucore.Backend, error) {
		return Open(DefaultConfig(width, height))
	})
}

// Open creates a device on the best available adapter and returns a
// Backend that owns it. Discrete GPUs are preferred over integrated ones.
func Open(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hb, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoAdapter)
	}
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := selectAdapter(adapters)

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	b, err := NewWithDevice(openDev.Device, openDev.Queue, limits, cfg)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	b.instance = instance
	b.owned = true
	b.logger.Info("wgpu: device opened", "adapter", selected.Info.Name, "type", selected.Info.DeviceType)
	return b, nil
}

func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// halProvider is implemented by device providers that expose their hal
// objects, such as gogpu.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider returns a Backend sharing the device of a host
// application. The host keeps ownership of the device.
func NewFromProvider(p gpucontext.DeviceProvider, cfg Config) (*Backend, error) {
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHalAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not a hal.Device", ErrNoHalAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not a hal.Queue", ErrNoHalAccess)
	}
	b, err := NewWithDevice(device, queue, gputypes.DefaultLimits(), cfg)
	if err != nil {
		return nil, err
	}
	b.logger.Info("wgpu: sharing host device", "adapter", p.AdapterInfo().Name)
	return b, nil
}
