//go:build amd64

package lwp

// fpuInit holds the canonical initial FPU/SSE state copied into every new
// thread record's register file. It is captured
// once, at package initialization, via a real FXSAVE64 of the hosting
// goroutine's own pristine FPU state rather than hand-encoded, since the
// control-word/mxcsr defaults are a CPU and OS detail this module has no
// business guessing at.
var fpuInit [512]byte

func init() {
	captureFPUInit(&fpuInit)
}

// captureFPUInit executes FXSAVE64 into dst. Implemented in swap_amd64.s.
func captureFPUInit(dst *[512]byte)
