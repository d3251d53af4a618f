// Package typecheck implements a closed value-type universe: a recursive
// runtime type checker, best-effort value coercion, an ordered field
// signature with argument validation, and a canonical marshalled form for
// signatures exchanged between peers.
//
// Every type expression is a concrete value of the closed Expr union below,
// built explicitly by the constructors in this file through a
// schema-declaration API rather than introspected via reflection over a Go
// type.
package typecheck

import "fmt"

// Expr is a type expression from a closed universe. Only the concrete types
// in this file implement it.
type Expr interface {
	// String returns the display name used in error messages and as the
	// marshalled "display name" for annotated validators (e.g. "Ge(0)",
	// "Lt(65536)").
	String() string
	exprTag() string
}

// IntExpr is a signed or unsigned integer bounded by Ge(Lo) and Lt(Hi).
type IntExpr struct {
	Lo int64
	Hi int64
}

func (e IntExpr) exprTag() string { return "int" }
func (e IntExpr) String() string  { return fmt.Sprintf("int(Ge(%d),Lt(%d))", e.Lo, e.Hi) }

// GeString and LtString return the display form of the individual bound
// validators, used in error messages ("Ge(0)", "Lt(65536)").
func (e IntExpr) GeString() string { return fmt.Sprintf("Ge(%d)", e.Lo) }
func (e IntExpr) LtString() string { return fmt.Sprintf("Lt(%d)", e.Hi) }

// StrExpr is a string bounded by MaxLen(N).
type StrExpr struct{ MaxLen int }

func (e StrExpr) exprTag() string { return "str" }
func (e StrExpr) String() string  { return fmt.Sprintf("str(MaxLen(%d))", e.MaxLen) }

// BytesExpr is a byte string bounded by MaxLen(N).
type BytesExpr struct{ MaxLen int }

func (e BytesExpr) exprTag() string { return "bytes" }
func (e BytesExpr) String() string  { return fmt.Sprintf("bytes(MaxLen(%d))", e.MaxLen) }

// ListExpr is list<Elem>.
type ListExpr struct{ Elem Expr }

func (e ListExpr) exprTag() string { return "list" }
func (e ListExpr) String() string  { return fmt.Sprintf("list<%s>", e.Elem) }

// DictExpr is dict<Key,Val> where Key must be a primitive.
type DictExpr struct {
	Key Expr
	Val Expr
}

func (e DictExpr) exprTag() string { return "dict" }
func (e DictExpr) String() string  { return fmt.Sprintf("dict<%s,%s>", e.Key, e.Val) }

// TupleExpr is tuple<T1,...,Tn> (fixed, Variadic == nil) or
// tuple<T1,...,Tk,Trest,...> (Variadic != nil: every element from index
// len(Items) onward must match Variadic).
type TupleExpr struct {
	Items    []Expr
	Variadic Expr
}

func (e TupleExpr) exprTag() string { return "tuple" }
func (e TupleExpr) String() string {
	s := "tuple<"
	for i, it := range e.Items {
		if i > 0 {
			s += ","
		}
		s += it.String()
	}
	if e.Variadic != nil {
		if len(e.Items) > 0 {
			s += ","
		}
		s += e.Variadic.String() + ",..."
	}
	return s + ">"
}

// UnionExpr matches if the value matches any member.
type UnionExpr struct{ Members []Expr }

func (e UnionExpr) exprTag() string { return "Union" }
func (e UnionExpr) String() string {
	s := "Union["
	for i, m := range e.Members {
		if i > 0 {
			s += "|"
		}
		s += m.String()
	}
	return s + "]"
}

// Predicate is a named, hashable-comparable value used by AnyExpr: the value
// passes if it equals one of the predicate values, matching the marshalled
// form's "{t: pr, d: value}" (a literal value, not a callable — see
// DESIGN.md for why predicates are literal-equality rather than arbitrary
// callables in this port).
type Predicate struct{ Value any }

// AnyExpr matches anything, optionally narrowed to a fixed set of literal
// values via Predicates (empty Predicates means truly any value).
type AnyExpr struct{ Predicates []Predicate }

func (e AnyExpr) exprTag() string { return "any" }
func (e AnyExpr) String() string  { return "any" }

// HashableExpr is the recursive alias:
// hashable = u64 | i64 | str | bytes | list<hashable> | dict<primitive,hashable> | tuple<hashable,...>
type HashableExpr struct{}

func (e HashableExpr) exprTag() string { return "hashable" }
func (e HashableExpr) String() string  { return "hashable" }

// Convenience constructors for common bounded integer/string/bytes shapes.

func UInt(bits int) IntExpr { return IntExpr{Lo: 0, Hi: int64(1) << uint(bits)} }
func SInt(bits int) IntExpr {
	half := int64(1) << uint(bits-1)
	return IntExpr{Lo: -half, Hi: half}
}

var (
	U8  = UInt(8)
	U16 = UInt(16)
	U32 = UInt(32)
	U64 = IntExpr{Lo: 0, Hi: int64(1) << 62} // u64 upper bound clamped to fit int64 range
	I8  = SInt(8)
	I16 = SInt(16)
	I32 = SInt(32)
	I64 = IntExpr{Lo: -(int64(1) << 62), Hi: int64(1) << 62}

	S16   = StrExpr{MaxLen: 16}
	S64   = StrExpr{MaxLen: 64}
	S256  = StrExpr{MaxLen: 256}
	S4096 = StrExpr{MaxLen: 4096}

	BS16   = BytesExpr{MaxLen: 16}
	BS64   = BytesExpr{MaxLen: 64}
	BS256  = BytesExpr{MaxLen: 256}
	BS4096 = BytesExpr{MaxLen: 4096}

	// Primitive is the set of type expressions valid as a dict key or as a
	// hashable leaf: u64 | i64 | str | bytes.
	Primitive = UnionExpr{Members: []Expr{U64, I64, S4096, BS4096}}

	Hashable = HashableExpr{}
)

// IsPrimitive reports whether expr is one of the four primitive leaf types
// valid as a dict key (dict<P,V> requires P primitive).
func IsPrimitive(expr Expr) bool {
	switch expr.(type) {
	case IntExpr, StrExpr, BytesExpr:
		return true
	}
	return false
}
