package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption configures a provider in NewBindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithIndexFormat sets the index element type of the mesh. Defaults to Uint16.
func WithIndexFormat(format wgpu.IndexFormat) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.mesh.indexFormat = format
	}
}

// WithVertexCount presets the vertex count of a mesh whose vertex buffer is filled later,
// such as the overlay.
func WithVertexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.mesh.vertexCount = count
	}
}
