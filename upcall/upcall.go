// Package upcall defines the enumerated set of host calls a guest
// program may issue (spec.md §4.2), and the typed result slot used to
// inject a value back into the guest on resume.
package upcall

import "fmt"

// Kind enumerates the host calls a guest may invoke.
type Kind int

const (
	// None represents no pending upcall (a budget exhaustion or a
	// cooperative Yield, which has no host-visible effect).
	None Kind = iota
	Scan
	Fire
	Aim
	Turn
	GPSX
	GPSY
	Temp
	Forward
	Explode
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Scan:
		return "scan"
	case Fire:
		return "fire"
	case Aim:
		return "aim"
	case Turn:
		return "turn"
	case GPSX:
		return "gpsx"
	case GPSY:
		return "gpsy"
	case Temp:
		return "temp"
	case Forward:
		return "forward"
	case Explode:
		return "explode"
	default:
		return fmt.Sprintf("upcall(%d)", int(k))
	}
}

// alteringKinds are the world-altering upcalls (§4.2, GLOSSARY),
// subject to per-tank cooldown throttling.
var alteringKinds = map[Kind]bool{
	Fire:    true,
	Aim:     true,
	Turn:    true,
	Forward: true,
	Explode: true,
}

// WorldAltering reports whether k mutates world state and is therefore
// subject to the tank's cooldown timer.
func (k Kind) WorldAltering() bool {
	return alteringKinds[k]
}

// Result is the shared slot a value-returning upcall (Scan, GPSX,
// GPSY, Temp) fills; the VM injects it back into the guest on the next
// resume. A nil Result is valid for upcalls with no return value.
type Result struct {
	// Packed holds the i64 returned to Scan (friends<<32 | enemies).
	Packed int64
	// F32 holds the f32 returned to GPSX/GPSY.
	F32 float32
	// I32 holds the i32 returned to Temp.
	I32 int32
	// filled guards against reading an unset slot.
	filled bool
}

// Fill marks the slot as populated.
func (r *Result) Fill() {
	r.filled = true
}

// Filled reports whether the slot has been populated since the upcall
// was issued. Resuming the VM while a value-returning upcall's slot is
// unfilled is a host bug (spec.md §7); callers should assert on this.
func (r *Result) Filled() bool {
	return r != nil && r.filled
}

// Upcall is one host call issued by a guest, with its guest-visible
// arguments and (for value-returning calls) a result slot the VM will
// read from on resume.
type Upcall struct {
	Kind Kind

	// Scan(lo, hi), Aim(theta), Turn(theta) arguments.
	ArgLo, ArgHi float32

	// Result is non-nil only for Scan/GPSX/GPSY/Temp.
	Result *Result
}

// PackScan packs a scan result the way the guest ABI expects:
// (friends<<32) | enemies.
func PackScan(friends, enemies uint32) int64 {
	return int64(uint64(friends)<<32 | uint64(enemies))
}
