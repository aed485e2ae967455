package spirvenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternTypeDeduplicates(t *testing.T) {
	m := NewModule()
	make1 := func(id uint32) Instruction { return Instruction{Op: OpTypeVoid, Operands: []uint32{id}} }
	a := m.InternType("void", make1)
	b := m.InternType("void", make1)
	assert.Equal(t, a, b)
	assert.Len(t, m.Types, 1)
}

func TestWordsEmitsHeaderAndSections(t *testing.T) {
	m := NewModule()
	m.AddCapability(1)
	m.MemoryModel = Instruction{Op: OpMemoryModel, Operands: []uint32{0, 1}}
	words := m.Words(1, 3)
	assert.Equal(t, uint32(0x07230203), words[0])
	assert.GreaterOrEqual(t, len(words), 5)
}

func TestAddCapabilityDeduplicates(t *testing.T) {
	m := NewModule()
	m.AddCapability(1)
	m.AddCapability(1)
	assert.Len(t, m.Capabilities, 1)
}
