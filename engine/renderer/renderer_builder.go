package renderer

import "github.com/cogentcore/webgpu/wgpu"

// rendererSettings is everything NewRenderer must know before the device exists.
type rendererSettings struct {
	presentMode PresentMode
	msaa        MSAASampleCount
	clearColor  wgpu.Color
	// softwareFallback requests the CPU adapter (SwiftShader, lavapipe) instead of a GPU.
	softwareFallback bool
}

// defaultRendererSettings is VSync, 4x MSAA, clearing to opaque black on a hardware adapter.
func defaultRendererSettings() rendererSettings {
	return rendererSettings{
		presentMode: PresentModeVSync,
		msaa:        MSAA4x,
		clearColor:  wgpu.Color{A: 1},
	}
}

// RendererBuilderOption adjusts the settings NewRenderer creates the backend with.
type RendererBuilderOption func(*rendererSettings)

// WithPresentMode selects VSync or uncapped presentation.
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(s *rendererSettings) {
		s.presentMode = mode
	}
}

// WithMSAA sets the sample count of the main pass. Counts the renderer does not know are
// ignored and the default stays in place. 8x and 16x depend on the adapter.
//
// Parameters:
//   - count: MSAAOff, MSAA4x, MSAA8x or MSAA16x
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(s *rendererSettings) {
		if count.Valid() {
			s.msaa = count
		}
	}
}

// WithClearColor sets the background of the main pass.
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(s *rendererSettings) {
		s.clearColor = c
	}
}

// WithForceSoftwareRenderer asks wgpu for its fallback adapter. A software Vulkan ICD must be
// installed for the request to succeed.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(s *rendererSettings) {
		s.softwareFallback = force
	}
}
