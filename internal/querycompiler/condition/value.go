// Package condition holds the intermediate logic tree produced by the where builder:
// conditions (leaves) and groups joined by AND/OR connectors, together with the tagged
// literal values they carry.
package condition

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/script"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindLong
	KindBigInteger
	KindDecimal
	KindDouble
	KindString
	KindBool
	KindDate
	// KindIdentifier is a bare identifier on the right-hand side, such as `missing`.
	KindIdentifier
	// KindScript is an inline script with parameters.
	KindScript
	// KindMethod is a full-text method call such as match_phrase('x').
	KindMethod
	// KindSubquery is a sub-select whose values are resolved by the caller.
	KindSubquery
)

var kindNames = map[Kind]string{
	KindNull:       "null",
	KindInt:        "int",
	KindLong:       "long",
	KindBigInteger: "biginteger",
	KindDecimal:    "decimal",
	KindDouble:     "double",
	KindString:     "string",
	KindBool:       "bool",
	KindDate:       "date",
	KindIdentifier: "identifier",
	KindScript:     "script",
	KindMethod:     "method",
	KindSubquery:   "subquery",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Script is an inline or stored script attached to a SCRIPT condition.
type Script struct {
	Source string
	Params map[string]any
	Stored bool
}

// Method is a full-text query method used as the right-hand side of a comparison.
type Method struct {
	Name string
	Args []Value
}

// Value is a literal of the clause, tagged with its kind.
type Value struct {
	kind   Kind
	i      int64
	big    *big.Int
	dec    *big.Float
	f      float64
	s      string
	b      bool
	t      time.Time
	script *Script
	method *Method
	sub    []any
}

func Null() Value                 { return Value{kind: KindNull} }
func Int(v int32) Value           { return Value{kind: KindInt, i: int64(v)} }
func Long(v int64) Value          { return Value{kind: KindLong, i: v} }
func BigInteger(v *big.Int) Value { return Value{kind: KindBigInteger, big: new(big.Int).Set(v)} }
func Decimal(v *big.Float) Value  { return Value{kind: KindDecimal, dec: new(big.Float).Copy(v)} }
func Double(v float64) Value      { return Value{kind: KindDouble, f: v} }
func String(v string) Value       { return Value{kind: KindString, s: v} }
func Bool(v bool) Value           { return Value{kind: KindBool, b: v} }
func Date(v time.Time) Value      { return Value{kind: KindDate, t: v} }
func Identifier(v string) Value   { return Value{kind: KindIdentifier, s: v} }

// ScriptValue wraps a script.
func ScriptValue(s Script) Value {
	return Value{kind: KindScript, script: &s}
}

// MethodValue wraps a full-text method call.
func MethodValue(m Method) Value {
	return Value{kind: KindMethod, method: &m}
}

// Subquery wraps the values a sub-select resolved to.
func Subquery(values []any) Value {
	return Value{kind: KindSubquery, sub: append([]any(nil), values...)}
}

// Integer picks the narrowest integer kind able to hold the decimal literal text.
func Integer(text string) (Value, error) {
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Value{}, fmt.Errorf("invalid integer literal %q", text)
	}
	switch {
	case n.IsInt64() && n.Int64() >= math.MinInt32 && n.Int64() <= math.MaxInt32:
		return Int(int32(n.Int64())), nil
	case n.IsInt64():
		return Long(n.Int64()), nil
	}
	return BigInteger(n), nil
}

// Number parses a non-integer numeric literal. Plain decimal notation becomes a Decimal,
// exponent notation a Double.
func Number(text string) (Value, error) {
	if strings.ContainsAny(text, "eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float literal %q: %w", text, err)
		}
		return Double(f), nil
	}
	d, ok := new(big.Float).SetPrec(128).SetString(text)
	if !ok {
		return Value{}, fmt.Errorf("invalid decimal literal %q", text)
	}
	return Decimal(d), nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsIdentifier reports whether v is the bare identifier name (case-insensitive).
func (v Value) IsIdentifier(name string) bool {
	return v.kind == KindIdentifier && strings.EqualFold(v.s, name)
}

// Text returns the string payload of String and Identifier values.
func (v Value) Text() string { return v.s }

func (v Value) Script() *Script { return v.script }

func (v Value) Method() *Method { return v.method }

// SubqueryValues returns the resolved values of a Subquery value.
func (v Value) SubqueryValues() []any { return v.sub }

// IsNumeric reports whether v holds any numeric kind.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInt, KindLong, KindBigInteger, KindDecimal, KindDouble:
		return true
	}
	return false
}

// Normalize converts v to the backend representation: every integer kind becomes int64,
// every fractional kind float64, booleans bool. An integer beyond int64 keeps its decimal text.
func (v Value) Normalize() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindInt, KindLong:
		return v.i
	case KindBigInteger:
		if v.big.IsInt64() {
			return v.big.Int64()
		}
		return v.big.String()
	case KindDecimal:
		f, _ := v.dec.Float64()
		return f
	case KindDouble:
		return v.f
	case KindString, KindIdentifier:
		return v.s
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	case KindScript:
		return v.script.Source
	case KindMethod:
		return v.method.Name
	case KindSubquery:
		return v.sub
	}
	return nil
}

// Literal renders v the way it appears inside a generated script: strings single-quoted,
// numbers and booleans bare.
func (v Value) Literal() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return script.Quote(v.s)
	case KindIdentifier:
		return v.s
	case KindInt, KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindBigInteger:
		return v.big.String()
	case KindDecimal:
		return v.dec.Text('f', -1)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return script.Quote(v.t.Format(time.RFC3339))
	case KindScript:
		return v.script.Source
	case KindMethod:
		return v.method.Name + "(...)"
	}
	return fmt.Sprint(v.Normalize())
}

func (v Value) String() string {
	return v.Literal()
}

// NormalizeAll normalizes a list of values, flattening resolved sub-selects.
func NormalizeAll(values []Value) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v.kind == KindSubquery {
			out = append(out, v.sub...)
			continue
		}
		out = append(out, v.Normalize())
	}
	return out
}
