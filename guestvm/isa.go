package guestvm

import (
	"math"

	"github.com/Grissess/RANKS/upcall"
)

// Kind tags the runtime type carried by a Value.
type Kind uint8

const (
	KindI32 Kind = iota
	KindI64
	KindF32
	KindF64
)

// Value is a guest-visible operand: a small tagged union over the four
// wire types the upcall ABI and guest arithmetic use (i32, i64, f32,
// f64), stored as raw bits to keep Value comparable and copyable.
type Value struct {
	Kind Kind
	Bits uint64
}

func ValI32(v int32) Value { return Value{Kind: KindI32, Bits: uint64(uint32(v))} }
func ValI64(v int64) Value { return Value{Kind: KindI64, Bits: uint64(v)} }
func ValF32(v float32) Value {
	return Value{Kind: KindF32, Bits: uint64(math.Float32bits(v))}
}
func ValF64(v float64) Value {
	return Value{Kind: KindF64, Bits: math.Float64bits(v)}
}

func (v Value) AsI32() int32     { return int32(uint32(v.Bits)) }
func (v Value) AsI64() int64     { return int64(v.Bits) }
func (v Value) AsF32() float32   { return math.Float32frombits(uint32(v.Bits)) }
func (v Value) AsF64() float64   { return math.Float64frombits(v.Bits) }

// AsFloat widens F32/F64 values to float64 for use with the math
// library; it panics for integer-kinded values, which callers must
// guard against (a guest trying to take sin() of an i32 is a program
// error, surfaced as Explode by the interpreter, not a host panic —
// see exec in vm.go).
func (v Value) AsFloat() float64 {
	switch v.Kind {
	case KindF32:
		return float64(v.AsF32())
	case KindF64:
		return v.AsF64()
	default:
		panic("guestvm: AsFloat on a non-float Value")
	}
}

func (v Value) isZero() bool {
	switch v.Kind {
	case KindI32:
		return v.AsI32() == 0
	case KindI64:
		return v.AsI64() == 0
	case KindF32:
		return v.AsF32() == 0
	case KindF64:
		return v.AsF64() == 0
	}
	return false
}

// Opcode enumerates the small register/stack machine's instruction set.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpPushConst
	OpLoad
	OpStore
	OpDup
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMathUnary
	OpMathBinary
	OpJump
	OpJumpIfZero
	OpUpcall
	OpYield
	OpReturn
)

// NumRegs is the size of the guest's general-purpose register file,
// generalizing the original VM's two registers (regs.a, regs.b) to a
// small fixed bank.
const NumRegs = 8

// Instruction is one guest bytecode instruction. Only the fields
// relevant to Op are meaningful; the rest are zero.
type Instruction struct {
	Op Opcode

	// OpPushConst.
	Const Value
	// OpLoad / OpStore.
	Reg int
	// OpJump / OpJumpIfZero.
	Target int
	// OpUpcall.
	Upcall upcall.Kind
	// OpMathUnary / OpMathBinary.
	MathFn string
}

func Nop() Instruction                        { return Instruction{Op: OpNop} }
func PushConst(v Value) Instruction           { return Instruction{Op: OpPushConst, Const: v} }
func PushF32(f float32) Instruction           { return PushConst(ValF32(f)) }
func PushF64(f float64) Instruction           { return PushConst(ValF64(f)) }
func PushI32(i int32) Instruction             { return PushConst(ValI32(i)) }
func PushI64(i int64) Instruction             { return PushConst(ValI64(i)) }
func Load(reg int) Instruction                { return Instruction{Op: OpLoad, Reg: reg} }
func Store(reg int) Instruction               { return Instruction{Op: OpStore, Reg: reg} }
func Dup() Instruction                        { return Instruction{Op: OpDup} }
func Pop() Instruction                        { return Instruction{Op: OpPop} }
func Add() Instruction                        { return Instruction{Op: OpAdd} }
func Sub() Instruction                        { return Instruction{Op: OpSub} }
func Mul() Instruction                        { return Instruction{Op: OpMul} }
func Div() Instruction                        { return Instruction{Op: OpDiv} }
func MathUnary(fn string) Instruction         { return Instruction{Op: OpMathUnary, MathFn: fn} }
func MathBinary(fn string) Instruction        { return Instruction{Op: OpMathBinary, MathFn: fn} }
func Jump(target int) Instruction             { return Instruction{Op: OpJump, Target: target} }
func JumpIfZero(target int) Instruction       { return Instruction{Op: OpJumpIfZero, Target: target} }
func CallUpcall(kind upcall.Kind) Instruction { return Instruction{Op: OpUpcall, Upcall: kind} }
func Yield() Instruction                      { return Instruction{Op: OpYield} }
func Return() Instruction                     { return Instruction{Op: OpReturn} }
