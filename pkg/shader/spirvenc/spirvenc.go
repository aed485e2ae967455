// Package spirvenc is the in-memory SPIR-V module builder the Shader IR
// Compiler targets: id allocation and instruction-word assembly, stopping
// at IR per spec section 10 (no final binary/text backend -- that's
// pkg/shaderpass.TranslationPass). Opcode numbering and the word-encoding
// convention are grounded on the pack's gogpu/naga SPIR-V writer.
package spirvenc

import "fmt"

// Op is a SPIR-V opcode number.
type Op uint16

// The subset of SPIR-V opcodes the Shader IR Compiler emits. Numbering
// matches the SPIR-V specification directly, as naga's writer does.
const (
	OpNop               Op = 0
	OpSource            Op = 3
	OpExtension         Op = 10
	OpExtInstImport     Op = 11
	OpExtInst           Op = 12
	OpMemoryModel       Op = 14
	OpEntryPoint        Op = 15
	OpExecutionMode     Op = 16
	OpCapability        Op = 17
	OpTypeVoid          Op = 19
	OpTypeBool          Op = 20
	OpTypeInt           Op = 21
	OpTypeFloat         Op = 22
	OpTypeVector        Op = 23
	OpTypeMatrix        Op = 24
	OpTypeImage         Op = 25
	OpTypeSampler       Op = 26
	OpTypeArray         Op = 28
	OpTypeRuntimeArray  Op = 29
	OpTypeStruct        Op = 30
	OpTypePointer       Op = 32
	OpTypeFunction      Op = 33
	OpConstantTrue      Op = 41
	OpConstantFalse     Op = 42
	OpConstant          Op = 43
	OpConstantComposite Op = 44
	OpFunction          Op = 54
	OpFunctionParameter Op = 55
	OpFunctionEnd       Op = 56
	OpFunctionCall      Op = 57
	OpVariable          Op = 59
	OpLoad              Op = 61
	OpStore             Op = 62
	OpAccessChain       Op = 65
	OpDecorate          Op = 71
	OpMemberDecorate    Op = 72
	OpVectorShuffle     Op = 79
	OpCompositeConstruct Op = 80
	OpCompositeExtract  Op = 81
	OpFNegate           Op = 127
	OpSNegate           Op = 126
	OpIAdd              Op = 128
	OpFAdd              Op = 129
	OpISub              Op = 130
	OpFSub              Op = 131
	OpIMul              Op = 132
	OpFMul              Op = 133
	OpSDiv              Op = 135
	OpFDiv              Op = 136
	OpVectorTimesScalar Op = 142
	OpMatrixTimesMatrix Op = 146
	OpMatrixTimesVector Op = 145
	OpVectorTimesMatrix Op = 144
	OpLabel             Op = 248
	OpBranch            Op = 249
	OpBranchConditional Op = 250
	OpReturn            Op = 253
	OpReturnValue       Op = 254
)

// Instruction is one SPIR-V instruction: an opcode plus operand words, not
// yet including the result-id/type-id convention most ops use -- callers
// build those into Operands themselves, since the positions vary by op.
type Instruction struct {
	Op       Op
	Operands []uint32
}

// wordCount returns the instruction's total word count including its own
// opcode+length word, per the SPIR-V physical layout.
func (i Instruction) wordCount() uint32 { return uint32(len(i.Operands)) + 1 }

// Module accumulates a SPIR-V module's sections in declaration order:
// capabilities, extensions, ext-inst imports, memory model, entry points,
// execution modes, debug names, decorations, types/constants/globals,
// function declarations, function bodies. pkg/shader/depcollect is
// responsible for handing sections to Module in this order; Module itself
// does no reordering.
type Module struct {
	nextID uint32

	Capabilities  []Instruction
	Extensions    []Instruction
	ExtInstImports []Instruction
	MemoryModel   Instruction
	EntryPoints   []Instruction
	ExecutionModes []Instruction
	DebugNames    []Instruction
	Decorations   []Instruction
	Types         []Instruction
	Functions     []Instruction

	typeIDs  map[string]uint32
	constIDs map[string]uint32
}

// NewModule returns an empty Module with id 1 reserved first (SPIR-V ids
// start at 1; 0 is never a valid result id).
func NewModule() *Module {
	return &Module{
		nextID:   1,
		typeIDs:  make(map[string]uint32),
		constIDs: make(map[string]uint32),
	}
}

// AllocID returns a fresh SPIR-V id.
func (m *Module) AllocID() uint32 {
	id := m.nextID
	m.nextID++
	return id
}

// InternType returns the id previously cached under key, or allocates and
// registers a new one via make if key hasn't been seen. Keeps OpType*
// instructions from being emitted twice for the same structural type, the
// de-duplication SPIR-V validation requires.
func (m *Module) InternType(key string, make func(id uint32) Instruction) uint32 {
	if id, ok := m.typeIDs[key]; ok {
		return id
	}
	id := m.AllocID()
	m.typeIDs[key] = id
	m.Types = append(m.Types, make(id))
	return id
}

// InternConstant is InternType's analogue for constant declarations.
func (m *Module) InternConstant(key string, make func(id uint32) Instruction) uint32 {
	if id, ok := m.constIDs[key]; ok {
		return id
	}
	id := m.AllocID()
	m.constIDs[key] = id
	m.Types = append(m.Types, make(id))
	return id
}

// AddCapability appends an OpCapability instruction, de-duplicating
// against capabilities already declared.
func (m *Module) AddCapability(cap uint32) {
	for _, i := range m.Capabilities {
		if len(i.Operands) == 1 && i.Operands[0] == cap {
			return
		}
	}
	m.Capabilities = append(m.Capabilities, Instruction{Op: OpCapability, Operands: []uint32{cap}})
}

// Words assembles the module's full physical word stream: the 5-word
// header (magic, version, generator, id bound, schema) followed by every
// section in the declaration order SPIR-V requires.
func (m *Module) Words(versionMajor, versionMinor uint8) []uint32 {
	words := make([]uint32, 0, 64)
	words = append(words,
		0x07230203, // magic number
		uint32(versionMajor)<<16|uint32(versionMinor)<<8,
		0, // generator id: unregistered
		m.nextID,
		0, // schema (reserved)
	)
	appendAll := func(sections ...[]Instruction) {
		for _, s := range sections {
			for _, inst := range s {
				words = append(words, uint32(inst.wordCount())<<16|uint32(inst.Op))
				words = append(words, inst.Operands...)
			}
		}
	}
	appendAll(m.Capabilities, m.Extensions, m.ExtInstImports)
	if m.MemoryModel.Op != 0 {
		words = append(words, uint32(m.MemoryModel.wordCount())<<16|uint32(m.MemoryModel.Op))
		words = append(words, m.MemoryModel.Operands...)
	}
	appendAll(m.EntryPoints, m.ExecutionModes, m.DebugNames, m.Decorations, m.Types, m.Functions)
	return words
}

func (m *Module) String() string {
	return fmt.Sprintf("spirvenc.Module{ids:%d types:%d functions:%d}", m.nextID-1, len(m.Types), len(m.Functions))
}
