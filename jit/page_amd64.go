//go:build amd64 && (linux || darwin) && cgo

package jit

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/fncas-lang/fncas/conf"
)

// codePage is one anonymous, executable memory mapping holding a single
// compiled function's machine code. Release happens via a finalizer, since
// compiled Function values have no deterministic end of life.
type codePage struct {
	mem []byte
}

func newCodePage(code []byte) (*codePage, error) {
	size := (len(code) + conf.JITPageSize - 1) / conf.JITPageSize * conf.JITPageSize
	if size == 0 {
		size = conf.JITPageSize
	}
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	copy(mem, code)
	p := &codePage{mem: mem}
	runtime.SetFinalizer(p, func(p *codePage) {
		_ = unix.Munmap(p.mem)
	})
	return p, nil
}

// call invokes the compiled function through the callNative asm trampoline.
// x, scratch and fns are all shifted by the same uniform-displacement
// offsets the generated code's addressing assumes (asm.offsetBytes and
// asm.CallIndirect's +1 slot).
func (p *codePage) call(x, scratch []float64, fns []uintptr) float64 {
	codePtr := uintptr(unsafe.Pointer(&p.mem[0]))

	var xPtr, sPtr, fPtr uintptr
	if xd := unsafe.SliceData(x); xd != nil {
		xPtr = uintptr(unsafe.Pointer(xd)) - 16*8
	}
	if sd := unsafe.SliceData(scratch); sd != nil {
		sPtr = uintptr(unsafe.Pointer(sd)) - 16*8
	}
	if fd := unsafe.SliceData(fns); fd != nil {
		fPtr = uintptr(unsafe.Pointer(fd)) - 8
	}

	r := callNative(codePtr, xPtr, sPtr, fPtr)
	runtime.KeepAlive(x)
	runtime.KeepAlive(scratch)
	runtime.KeepAlive(fns)
	runtime.KeepAlive(p)
	return r
}
