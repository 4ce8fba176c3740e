//go:build opencl

package main

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"ARG/internal/grid"
)

// openCLGridUpdater runs the impulse height mode with the radial and
// linear patterns on an OpenCL device. Other modes go to the CPU engine.
type openCLGridUpdater struct {
	cpu *grid.Engine

	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	impulseBuf *cl.MemObject
	heightBuf  *cl.MemObject
	colorBuf   *cl.MemObject
	binBuf     *cl.MemObject
	stopBuf    *cl.MemObject
	cellCap    int
	binCap     int
	deviceName string
}

const gridKernelSource = `__kernel void grid_update(
    const int dim,
    const int bin_count,
    const int pattern,
    const int mapping,
    const float extent,
    const float height_scale,
    const float decay,
    __global const uchar* bins,
    __global const float* stops,
    __global float* impulses,
    __global float* heights,
    __global float* colors)
{
    int i = get_global_id(0);
    if (i >= dim * dim) {
        return;
    }
    float half_extent = extent * 0.5f;
    float spacing = extent / (float)(dim - 1);
    float x = (float)(i % dim) * spacing - half_extent;
    float z = (float)(i / dim) * spacing - half_extent;

    int idx = -1;
    if (pattern == 0) {
        float max_dist = sqrt(2.0f * half_extent * half_extent);
        idx = (int)floor(sqrt(x * x + z * z) / max_dist * (float)bin_count);
    } else if (bin_count > 0) {
        idx = i % bin_count;
    }
    float audio = 0.0f;
    if (idx >= 0 && idx < bin_count) {
        audio = (float)bins[idx];
    }

    float h = fmax(impulses[i], audio / 255.0f * height_scale);
    impulses[i] *= decay;
    heights[i] = h;

    float f;
    if (mapping == 1) {
        f = audio / 255.0f;
    } else if (mapping == 2) {
        f = (h + audio) / (height_scale + 255.0f);
    } else {
        f = h / height_scale;
    }
    f = clamp(f, 0.0f, 1.0f);
    int a = 0;
    float t = f * 2.0f;
    if (f >= 0.5f) {
        a = 3;
        t = (f - 0.5f) * 2.0f;
    }
    for (int c = 0; c < 3; c++) {
        colors[3 * i + c] = stops[a + c] * (1.0f - t) + stops[a + 3 + c] * t;
    }
}`

func newOpenCLGridUpdater(cpu *grid.Engine) (*openCLGridUpdater, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	var device *cl.Device
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				device = devices[0]
				break
			}
		}
		if device != nil {
			break
		}
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	u := &openCLGridUpdater{cpu: cpu, deviceName: device.Name()}
	u.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	u.queue, err = u.context.CreateCommandQueue(device, 0)
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	u.program, err = u.context.CreateProgramWithSource([]string{gridKernelSource})
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := u.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		u.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	u.kernel, err = u.program.CreateKernel("grid_update")
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}
	u.stopBuf, err = u.context.CreateEmptyBuffer(cl.MemReadOnly, 9*int(unsafe.Sizeof(float32(0))))
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("allocating gradient buffer: %w", err)
	}
	return u, nil
}

// Update advances one instance, on the device when its style allows.
func (u *openCLGridUpdater) Update(g *grid.Instance, src grid.SpectrumSource) error {
	if g.Style.HeightMode != grid.HeightImpulse || g.Style.Pattern == grid.PatternRandom {
		return u.cpu.Update(g, src)
	}
	if src == nil {
		return nil
	}
	bins, ok := src.Spectrum(g.Style.Range)
	if !ok {
		return nil
	}
	if err := g.Validate(); err != nil {
		return err
	}
	if err := u.ensureBuffers(g.CellCount(), len(bins)); err != nil {
		return err
	}

	st := g.Style
	stops := []float32{
		st.Low[0], st.Low[1], st.Low[2],
		st.Mid[0], st.Mid[1], st.Mid[2],
		st.High[0], st.High[1], st.High[2],
	}
	if _, err := u.queue.EnqueueWriteBufferFloat32(u.stopBuf, true, 0, stops, nil); err != nil {
		return fmt.Errorf("writing gradient buffer: %w", err)
	}
	if _, err := u.queue.EnqueueWriteBufferFloat32(u.impulseBuf, true, 0, g.Impulses, nil); err != nil {
		return fmt.Errorf("writing impulse buffer: %w", err)
	}
	if len(bins) > 0 {
		if _, err := u.queue.EnqueueWriteBuffer(u.binBuf, true, 0, len(bins), unsafe.Pointer(&bins[0]), nil); err != nil {
			return fmt.Errorf("writing spectrum buffer: %w", err)
		}
	}
	if err := u.kernel.SetArgs(
		int32(g.Dim),
		int32(len(bins)),
		int32(st.Pattern),
		int32(st.Mapping),
		float32(grid.Extent),
		st.HeightScale,
		st.DecayRate,
		u.binBuf,
		u.stopBuf,
		u.impulseBuf,
		u.heightBuf,
		u.colorBuf,
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := u.queue.EnqueueNDRangeKernel(u.kernel, nil, []int{g.CellCount()}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	if _, err := u.queue.EnqueueReadBufferFloat32(u.impulseBuf, true, 0, g.Impulses, nil); err != nil {
		return fmt.Errorf("reading impulse buffer: %w", err)
	}
	if _, err := u.queue.EnqueueReadBufferFloat32(u.heightBuf, true, 0, g.Heights, nil); err != nil {
		return fmt.Errorf("reading height buffer: %w", err)
	}
	if _, err := u.queue.EnqueueReadBufferFloat32(u.colorBuf, true, 0, g.Colors, nil); err != nil {
		return fmt.Errorf("reading color buffer: %w", err)
	}
	return nil
}

// ensureBuffers grows the device buffers to hold cells cells and bins
// spectrum bins.
func (u *openCLGridUpdater) ensureBuffers(cells, bins int) error {
	floatSize := int(unsafe.Sizeof(float32(0)))
	if cells > u.cellCap {
		u.releaseCellBuffers()
		var err error
		if u.impulseBuf, err = u.context.CreateEmptyBuffer(cl.MemReadWrite, cells*floatSize); err != nil {
			return fmt.Errorf("allocating impulse buffer: %w", err)
		}
		if u.heightBuf, err = u.context.CreateEmptyBuffer(cl.MemWriteOnly, cells*floatSize); err != nil {
			return fmt.Errorf("allocating height buffer: %w", err)
		}
		if u.colorBuf, err = u.context.CreateEmptyBuffer(cl.MemWriteOnly, 3*cells*floatSize); err != nil {
			return fmt.Errorf("allocating color buffer: %w", err)
		}
		u.cellCap = cells
	}
	if bins < 1 {
		bins = 1
	}
	if bins > u.binCap {
		if u.binBuf != nil {
			u.binBuf.Release()
			u.binBuf = nil
		}
		var err error
		if u.binBuf, err = u.context.CreateEmptyBuffer(cl.MemReadOnly, bins); err != nil {
			u.binCap = 0
			return fmt.Errorf("allocating spectrum buffer: %w", err)
		}
		u.binCap = bins
	}
	return nil
}

func (u *openCLGridUpdater) releaseCellBuffers() {
	for _, b := range []**cl.MemObject{&u.impulseBuf, &u.heightBuf, &u.colorBuf} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	u.cellCap = 0
}

func (u *openCLGridUpdater) Close() {
	u.releaseCellBuffers()
	if u.binBuf != nil {
		u.binBuf.Release()
		u.binBuf = nil
	}
	if u.stopBuf != nil {
		u.stopBuf.Release()
		u.stopBuf = nil
	}
	if u.kernel != nil {
		u.kernel.Release()
		u.kernel = nil
	}
	if u.program != nil {
		u.program.Release()
		u.program = nil
	}
	if u.queue != nil {
		u.queue.Release()
		u.queue = nil
	}
	if u.context != nil {
		u.context.Release()
		u.context = nil
	}
}

func (u *openCLGridUpdater) DeviceName() string {
	return u.deviceName
}
