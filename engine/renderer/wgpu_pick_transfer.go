package renderer

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// pickCopyState tracks the staging buffer through one readback.
type pickCopyState int

const (
	pickIdle pickCopyState = iota
	pickRecorded
	pickMapping
)

const (
	mapPending int32 = iota
	mapReady
	mapFailed
)

// pickResources is the 1x1 pick target and the staging buffer its pixel is copied into.
type pickResources struct {
	texture      *wgpu.Texture
	view         *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	staging      *wgpu.Buffer

	state     pickCopyState
	mapStatus atomic.Int32
}

func (p *pickResources) init(device *wgpu.Device) error {
	size := wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}
	var err error

	p.texture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Pick Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR16Uint,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create pick texture: %w", err)
	}
	if p.view, err = p.texture.CreateView(nil); err != nil {
		return fmt.Errorf("create pick texture view: %w", err)
	}

	p.depthTexture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Pick Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create pick depth texture: %w", err)
	}
	if p.depthView, err = p.depthTexture.CreateView(nil); err != nil {
		return fmt.Errorf("create pick depth view: %w", err)
	}

	p.staging, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Pick Staging Buffer",
		Size:  pickStagingSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create pick staging buffer: %w", err)
	}
	return nil
}

// record encodes the pixel copy into the frame's encoder.
func (p *pickResources) record(encoder *wgpu.CommandEncoder) error {
	if p.staging == nil {
		return ErrNoPickCopy
	}
	if p.state != pickIdle {
		return ErrPickCopyInFlight
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  p.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: p.staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  pickStagingSize,
				RowsPerImage: 1,
			},
		},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	p.state = pickRecorded
	return nil
}

// requestMap starts mapping the staging buffer once the frame holding the copy has been submitted. A refused
// request surfaces as a map failure on the next read.
func (p *pickResources) requestMap() {
	if p.state != pickRecorded {
		return
	}
	p.mapStatus.Store(mapPending)
	err := p.staging.MapAsync(wgpu.MapModeRead, 0, pickStagingSize, func(status wgpu.BufferMapAsyncStatus) {
		if status == wgpu.BufferMapAsyncStatusSuccess {
			p.mapStatus.Store(mapReady)
			return
		}
		p.mapStatus.Store(mapFailed)
	})
	if err != nil {
		p.mapStatus.Store(mapFailed)
	}
	p.state = pickMapping
}

// read polls the device once and returns the pixel if the map has completed. A recorded copy whose frame has not
// been submitted yet is reported as not ready.
func (p *pickResources) read(device *wgpu.Device) (uint16, bool, error) {
	switch p.state {
	case pickIdle:
		return 0, false, ErrNoPickCopy
	case pickRecorded:
		return 0, false, nil
	}

	device.Poll(false, nil)
	switch p.mapStatus.Load() {
	case mapReady:
		data := p.staging.GetMappedRange(0, pickStagingSize)
		v := binary.LittleEndian.Uint16(data[:2])
		p.staging.Unmap()
		p.state = pickIdle
		return v, true, nil
	case mapFailed:
		p.state = pickIdle
		return 0, false, ErrPickMapFailed
	default:
		return 0, false, nil
	}
}

// drop forgets a copy whose frame was never submitted.
func (p *pickResources) drop() {
	if p.state == pickRecorded {
		p.state = pickIdle
	}
}

func (p *pickResources) release() {
	if p.staging != nil {
		if p.state == pickMapping && p.mapStatus.Load() == mapReady {
			p.staging.Unmap()
		}
		p.staging.Release()
		p.staging = nil
	}
	if p.view != nil {
		p.view.Release()
		p.view = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
	if p.depthView != nil {
		p.depthView.Release()
		p.depthView = nil
	}
	if p.depthTexture != nil {
		p.depthTexture.Release()
		p.depthTexture = nil
	}
	p.state = pickIdle
}
