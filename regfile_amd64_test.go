//go:build amd64

package lwp

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegFileFPUOffsetAligned(t *testing.T) {
	assert.Zero(t, regFileFPUOffset%16, "FPU area must be 16-byte aligned within regFile")
}

func TestNewAlignedRegFile(t *testing.T) {
	arf := newAlignedRegFile()
	require.NotNil(t, arf.ptr)

	addr := uintptr(unsafe.Pointer(arf.ptr))
	assert.Zero(t, addr%16, "regFile address must be 16-byte aligned for FXSAVE64/FXRSTOR64")

	fpuAddr := addr + regFileFPUOffset
	assert.Zero(t, fpuAddr%16, "FPU save area must itself land on a 16-byte boundary")
}

func TestSyntheticBootFrame(t *testing.T) {
	stack := make([]byte, 64*1024)
	const trampolineAddr = 0x1234deadbeef

	frame := syntheticBootFrame(stack, trampolineAddr)

	assert.Equal(t, uintptr(8), frame%16, "boot frame must sit 8 bytes past a 16-byte boundary")

	words := (*[2]uintptr)(unsafe.Pointer(frame))
	assert.Equal(t, uintptr(0), words[0], "frame+0 must be the sentinel 0")
	assert.Equal(t, uintptr(trampolineAddr), words[1], "frame+8 must hold the trampoline address")

	top := uintptr(unsafe.Pointer(&stack[0])) + uintptr(len(stack))
	assert.Less(t, frame, top, "frame must lie within the stack")
	assert.GreaterOrEqual(t, frame, top-32, "frame must be near the top of the stack")
}
