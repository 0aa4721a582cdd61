package render

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/software"

	// Registers the Vulkan backend with hal.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/termrender/internal/logging"
)

// DeviceHandle is the interface through which other components share the
// manager's device. It is gpucontext.DeviceProvider under a local name.
type DeviceHandle = gpucontext.DeviceProvider

// BackendProvider supplies HAL backends to a Manager.
type BackendProvider interface {
	// Hardware returns the preferred GPU backend.
	Hardware() (hal.Backend, error)
	// Software returns the CPU fallback backend. It must not fail.
	Software() hal.Backend
}

// DefaultBackends picks Vulkan when registered, then any other registered
// GPU backend, and falls back to the software HAL.
type DefaultBackends struct{}

// Hardware implements BackendProvider.
func (DefaultBackends) Hardware() (hal.Backend, error) {
	if b, ok := hal.GetBackend(gputypes.BackendVulkan); ok {
		return b, nil
	}
	for _, v := range hal.AvailableBackends() {
		if v == gputypes.BackendEmpty {
			continue
		}
		if b, ok := hal.GetBackend(v); ok {
			return b, nil
		}
	}
	return nil, ErrNoBackend
}

// Software implements BackendProvider.
func (DefaultBackends) Software() hal.Backend {
	return software.API{}
}

// selectAdapter prefers a discrete GPU, then an integrated one, then the
// first adapter listed.
func selectAdapter(adapters []hal.ExposedAdapter) (*hal.ExposedAdapter, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i], nil
			}
		}
	}
	return &adapters[0], nil
}

// openDevice creates an instance on backend and opens a device on the best
// adapter. On error nothing is left allocated.
func openDevice(backend hal.Backend) (*resources, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	selected, err := selectAdapter(instance.EnumerateAdapters(nil))
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	od, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		selected.Adapter.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	logging.Logger().Info("render: adapter selected",
		"name", selected.Info.Name, "type", selected.Info.DeviceType, "backend", backend.Variant())
	return &resources{
		instance: instance,
		adapter:  selected.Adapter,
		info:     selected.Info,
		limits:   selected.Capabilities.Limits,
		device:   od.Device,
		queue:    od.Queue,
	}, nil
}

// adapterType maps a HAL device type onto gpucontext's classification.
func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
