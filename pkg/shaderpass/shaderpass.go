// Package shaderpass defines the seam between this repo's SPIR-V IR output
// and whatever final translation a host wants to run over it -- text
// disassembly, GLSL cross-compilation, driver validation, or a binary
// optimizer pass. None of those backends are implemented here (Non-goals:
// the final SPIR-V-to-GLSL/binary translation pass); TranslationPass is
// the interface a host wires a concrete backend behind.
package shaderpass

import "github.com/zilchlang/zilch/pkg/shader/spirvenc"

// TranslationPass consumes one compiled SPIR-V module and produces
// whatever a host backend's final output format is: optimized words,
// disassembly text, a validation report, or cross-compiled source.
// Name identifies the pass for logging and for ordering in a pipeline
// descriptor (pkg/shaderface.PipelineDescriptor.ToolPasses/DebugPasses).
type TranslationPass interface {
	Name() string
	Run(mod *spirvenc.Module) ([]byte, error)
}
