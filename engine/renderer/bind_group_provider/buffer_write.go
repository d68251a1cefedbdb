package bind_group_provider

// BufferWrite is one queued write of Data into the buffer at Binding on Provider, starting at Offset.
// Writes are applied in slice order on the device queue, so a later draw in the same submission
// sees them.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
