package soft

import "sync"

// Op names an operation that can be made to fail.
type Op string

const (
	OpSetCooperativeLevel  Op = "SetCooperativeLevel"
	OpCreatePrimary        Op = "CreatePrimary"
	OpCreateOffscreen      Op = "CreateOffscreen"
	OpCreateZBuffer        Op = "CreateZBuffer"
	OpCreateTextureSurface Op = "CreateTextureSurface"
	OpAddAttachedSurface   Op = "AddAttachedSurface"
	OpCreateClipper        Op = "CreateClipper"
	OpSetClipperWindow     Op = "SetClipperWindow"
	OpSetClipper           Op = "SetClipper"
	OpDirect3D             Op = "Direct3D"
	OpDisplayMode          Op = "DisplayMode"
	OpCreateDevice         Op = "CreateDevice"
	OpCreateViewport       Op = "CreateViewport"
	OpAddViewport          Op = "AddViewport"
	OpSetViewport          Op = "SetViewport"
	OpSetCurrentViewport   Op = "SetCurrentViewport"
	OpCreateMaterial       Op = "CreateMaterial"
	OpMaterialHandle       Op = "MaterialHandle"
	OpCreateTexture        Op = "CreateTexture"
	OpTextureHandle        Op = "TextureHandle"
	OpLock                 Op = "Lock"
	OpClear                Op = "Clear"
	OpBeginScene           Op = "BeginScene"
	OpEndScene             Op = "EndScene"
	OpDraw                 Op = "DrawIndexedPrimitive"
	OpBlt                  Op = "Blt"
)

// Faults injects errors into provider operations.
type Faults struct {
	mu    sync.Mutex
	rules map[Op]*fault
}

type fault struct {
	err  error
	left int // 0 means forever
}

// Fail makes every following call of op return err.
func (f *Faults) Fail(op Op, err error) { f.set(op, err, 0) }

// FailOnce makes the next call of op return err.
func (f *Faults) FailOnce(op Op, err error) { f.set(op, err, 1) }

// FailTimes makes the next n calls of op return err.
func (f *Faults) FailTimes(op Op, err error, n int) {
	if n <= 0 {
		return
	}
	f.set(op, err, n)
}

// Clear removes the fault on op.
func (f *Faults) Clear(op Op) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rules, op)
}

func (f *Faults) set(op Op, err error, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rules == nil {
		f.rules = make(map[Op]*fault)
	}
	f.rules[op] = &fault{err: err, left: n}
}

// check returns the injected error for op, if any.
func (f *Faults) check(op Op) error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rules[op]
	if !ok {
		return nil
	}
	if r.left > 0 {
		r.left--
		if r.left == 0 {
			delete(f.rules, op)
		}
	}
	return r.err
}
