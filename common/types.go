// Package common holds the math kernel, sentinel errors, logging and the plain data types
// shared across the viewer.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData is RGBA pixel data waiting to be uploaded into a texture binding.
type TextureStagingData struct {
	// Pixels is row-major, 4 bytes per pixel.
	Pixels []byte
	Width  uint32
	Height uint32
	// Format of zero means RGBA8Unorm.
	Format wgpu.TextureFormat
}

// SamplerStagingData configures a sampler binding before the renderer creates it.
// Filters are taken as given: FilterModeNearest is the zero value. Start from
// DefaultSamplerStagingData for linear filtering. A zero LodMaxClamp means 32 and a zero
// MaxAnisotropy means 1.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	MaxAnisotropy                            uint16
}

// DefaultSamplerStagingData returns repeat addressing with linear filtering on every axis.
func DefaultSamplerStagingData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}
