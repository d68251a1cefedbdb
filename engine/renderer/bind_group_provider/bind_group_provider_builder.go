package bind_group_provider

// BindGroupProviderOption configures a provider at construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithIndexCount sets how many indices a draw with this provider's geometry issues.
//
// Parameters:
//   - count: the index count
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithIndexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexCount = count
	}
}
