package bind_group_provider

// BufferWrite is one queued upload into the buffer a provider holds at Binding. Data lands at
// byte Offset; a write with no Data is a no-op.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// UniformWrite replaces the whole uniform at binding with data.
//
// Parameters:
//   - provider: the provider owning the buffer
//   - binding: the binding index of the buffer
//   - data: the marshalled uniform
//
// Returns:
//   - BufferWrite: a write at offset 0
func UniformWrite(provider BindGroupProvider, binding int, data []byte) BufferWrite {
	return BufferWrite{Provider: provider, Binding: binding, Data: data}
}
