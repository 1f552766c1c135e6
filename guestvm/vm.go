// Package guestvm implements the sandboxed guest execution engine:
// a small, deterministic register/stack machine with a per-step
// instruction counter and host-call trap-and-resume (spec.md §4.1).
//
// There is no real WebAssembly runtime wired into this repo — see
// DESIGN.md for why: the pack's only scripting VM dependency has no
// exposed per-instruction counter, which the exact resumable-execution
// contract here requires. This engine plays the same role
// wasmi's resumable FuncInvocation played in the original Rust
// implementation (original_source/src/vm.rs), just expressed as a
// sequential Go interpreter instead of a trap-based coroutine: since
// the machine never actually blocks, "resuming" is simply continuing
// the fetch-execute loop from the saved program counter.
package guestvm

import (
	"errors"
	"fmt"

	"github.com/Grissess/RANKS/upcall"
)

// ErrEmptyProgram is returned by New for a zero-instruction program.
var ErrEmptyProgram = errors.New("guestvm: program has no instructions")

// VM is one guest program's sandboxed execution state: program
// counter, instruction counter, register file, and operand stack.
type VM struct {
	program []Instruction
	pc      int
	counter int
	regs    [NumRegs]Value
	stack   []Value

	// pending is the last upcall issued, awaiting result injection on
	// the next RunUntil call. Nil once injected.
	pending *upcall.Upcall
}

// New validates and constructs a VM over program. It fails with a
// typed error on an empty program, an out-of-range jump target, or an
// out-of-range register index — the guest-load-time failures of
// spec.md §7 ("Program load error").
func New(program []Instruction) (*VM, error) {
	if len(program) == 0 {
		return nil, ErrEmptyProgram
	}
	for i, ins := range program {
		switch ins.Op {
		case OpJump, OpJumpIfZero:
			if ins.Target < 0 || ins.Target >= len(program) {
				return nil, fmt.Errorf("guestvm: instruction %d: jump target %d out of range", i, ins.Target)
			}
		case OpLoad, OpStore:
			if ins.Reg < 0 || ins.Reg >= NumRegs {
				return nil, fmt.Errorf("guestvm: instruction %d: register %d out of range", i, ins.Reg)
			}
		case OpMathUnary:
			if _, ok := UnaryFns[ins.MathFn]; !ok {
				return nil, fmt.Errorf("guestvm: instruction %d: unknown unary math fn %q", i, ins.MathFn)
			}
		case OpMathBinary:
			if _, ok := BinaryFns[ins.MathFn]; !ok {
				return nil, fmt.Errorf("guestvm: instruction %d: unknown binary math fn %q", i, ins.MathFn)
			}
		}
	}
	return &VM{program: program}, nil
}

// BeginStep resets the per-tick instruction counter to zero. The
// program counter and registers carry over from the previous tick, as
// they must for the guest program to observe continuous state.
func (vm *VM) BeginStep() {
	vm.counter = 0
}

// Counter returns the number of instructions executed since the last
// BeginStep.
func (vm *VM) Counter() int {
	return vm.counter
}

// SetCounter overwrites the instruction counter, used by the tank
// execution loop to account for a world-altering upcall's cooldown
// (spec.md §4.3, §9: "advances the counter to max(timer, counter)").
func (vm *VM) SetCounter(c int) {
	vm.counter = c
}

// RunUntil resumes guest execution. It returns when the counter
// reaches max (nil upcall, not exploded — "budget exhausted"), the
// guest invokes "yield" (also a nil upcall, not exploded — spec.md
// §4.3 treats end-of-budget and an explicit yield identically), the
// guest invokes a host import (that Upcall, not exploded), or the
// guest traps / falls off the program / returns (nil upcall,
// exploded=true).
//
// If the previous call returned a value-producing upcall (Scan/GPSX/
// GPSY/Temp), RunUntil injects the filled result onto the guest stack
// before resuming; an unfilled slot at this point is a host bug and
// panics (spec.md §7).
func (vm *VM) RunUntil(max int) (u *upcall.Upcall, exploded bool) {
	if vm.pending != nil {
		vm.injectResult(vm.pending)
		vm.pending = nil
	}

	for vm.counter < max {
		if vm.pc < 0 || vm.pc >= len(vm.program) {
			return nil, true
		}
		ins := vm.program[vm.pc]
		vm.counter++

		switch ins.Op {
		case OpReturn:
			return nil, true
		case OpUpcall:
			call := vm.buildUpcall(ins.Upcall)
			vm.pending = call
			vm.pc++
			return call, false
		case OpYield:
			vm.pc++
			return nil, false
		case OpJump:
			vm.pc = ins.Target
		case OpJumpIfZero:
			v, err := vm.pop()
			if err != nil {
				return nil, true
			}
			vm.pc++
			if v.isZero() {
				vm.pc = ins.Target
			}
		default:
			if err := vm.exec(ins); err != nil {
				return nil, true
			}
			vm.pc++
		}
	}
	return nil, false
}

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Value{}, errors.New("guestvm: stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// safePop is used only where an underflow must not itself trap the
// guest mid host-call construction (the host call has already been
// committed to by the fetch-execute loop); it yields the zero Value
// for a malformed program rather than panicking.
func (vm *VM) safePop() Value {
	v, err := vm.pop()
	if err != nil {
		return Value{}
	}
	return v
}

func (vm *VM) exec(ins Instruction) error {
	switch ins.Op {
	case OpNop:
		return nil
	case OpPushConst:
		vm.push(ins.Const)
		return nil
	case OpLoad:
		vm.push(vm.regs[ins.Reg])
		return nil
	case OpStore:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.regs[ins.Reg] = v
		return nil
	case OpDup:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.push(v)
		vm.push(v)
		return nil
	case OpPop:
		_, err := vm.pop()
		return err
	case OpAdd, OpSub, OpMul, OpDiv:
		return vm.arith(ins.Op)
	case OpMathUnary:
		x, err := vm.pop()
		if err != nil {
			return err
		}
		fn, ok := UnaryFns[ins.MathFn]
		if !ok {
			return fmt.Errorf("guestvm: unknown unary math fn %q", ins.MathFn)
		}
		if x.Kind != KindF32 && x.Kind != KindF64 {
			return fmt.Errorf("guestvm: math fn %q on a non-float operand", ins.MathFn)
		}
		vm.push(castFloat(fn(x.AsFloat()), x.Kind))
		return nil
	case OpMathBinary:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		fn, ok := BinaryFns[ins.MathFn]
		if !ok {
			return fmt.Errorf("guestvm: unknown binary math fn %q", ins.MathFn)
		}
		if (a.Kind != KindF32 && a.Kind != KindF64) || (b.Kind != KindF32 && b.Kind != KindF64) {
			return fmt.Errorf("guestvm: math fn %q on a non-float operand", ins.MathFn)
		}
		vm.push(castFloat(fn(a.AsFloat(), b.AsFloat()), a.Kind))
		return nil
	default:
		return fmt.Errorf("guestvm: unhandled opcode %d", ins.Op)
	}
}

func castFloat(f float64, kind Kind) Value {
	if kind == KindF32 {
		return ValF32(float32(f))
	}
	return ValF64(f)
}

func (vm *VM) arith(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind != b.Kind {
		return fmt.Errorf("guestvm: arithmetic operand kind mismatch (%v vs %v)", a.Kind, b.Kind)
	}

	switch a.Kind {
	case KindI32:
		x, y := a.AsI32(), b.AsI32()
		vm.push(ValI32(intArith(op, x, y)))
	case KindI64:
		x, y := a.AsI64(), b.AsI64()
		vm.push(ValI64(int64Arith(op, x, y)))
	case KindF32:
		x, y := float64(a.AsF32()), float64(b.AsF32())
		vm.push(ValF32(float32(floatArith(op, x, y))))
	case KindF64:
		x, y := a.AsF64(), b.AsF64()
		vm.push(ValF64(floatArith(op, x, y)))
	}
	return nil
}

func intArith(op Opcode, x, y int32) int32 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		if y == 0 {
			return 0
		}
		return x / y
	}
	return 0
}

func int64Arith(op Opcode, x, y int64) int64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		if y == 0 {
			return 0
		}
		return x / y
	}
	return 0
}

func floatArith(op Opcode, x, y float64) float64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	}
	return 0
}

// buildUpcall pops the guest-visible arguments for kind off the
// operand stack (arity per spec.md §4.2) and attaches a fresh result
// slot for value-returning calls.
func (vm *VM) buildUpcall(kind upcall.Kind) *upcall.Upcall {
	u := &upcall.Upcall{Kind: kind}
	switch kind {
	case upcall.Scan:
		hi := vm.safePop()
		lo := vm.safePop()
		u.ArgLo = lo.AsF32()
		u.ArgHi = hi.AsF32()
		u.Result = &upcall.Result{}
	case upcall.Aim, upcall.Turn:
		theta := vm.safePop()
		u.ArgLo = theta.AsF32()
	case upcall.GPSX, upcall.GPSY, upcall.Temp:
		u.Result = &upcall.Result{}
	}
	return u
}

// injectResult pushes a filled upcall's return value onto the operand
// stack so the guest instruction stream following OpUpcall observes
// it, exactly as if the host call had returned synchronously.
func (vm *VM) injectResult(u *upcall.Upcall) {
	switch u.Kind {
	case upcall.Scan:
		if !u.Result.Filled() {
			panic("guestvm: upcall result slot empty on resume")
		}
		vm.push(ValI64(u.Result.Packed))
	case upcall.GPSX, upcall.GPSY:
		if !u.Result.Filled() {
			panic("guestvm: upcall result slot empty on resume")
		}
		vm.push(ValF32(u.Result.F32))
	case upcall.Temp:
		if !u.Result.Filled() {
			panic("guestvm: upcall result slot empty on resume")
		}
		vm.push(ValI32(u.Result.I32))
	}
}
