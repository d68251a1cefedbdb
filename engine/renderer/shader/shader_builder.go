package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption configures a shader before its layouts are derived.
type ShaderBuilderOption func(*shader)

// WithGroupVisibility makes every binding in group visible to stages, in addition to the stages
// whose entry points use it.
//
// Parameters:
//   - group: the bind group index
//   - stages: the stage mask to add
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithGroupVisibility(group int, stages wgpu.ShaderStage) ShaderBuilderOption {
	return func(s *shader) {
		s.required[group] |= stages
	}
}
