package cheader

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"objcmeta/internal/clang"
)

type valueKind int

const (
	noValue valueKind = iota
	intValue
	floatValue
	stringValue
)

// value is the result of constant-folding a C expression.
type value struct {
	kind valueKind
	i    *big.Int
	f    float64
	s    string
}

func intOf(i *big.Int) value  { return value{kind: intValue, i: i} }
func int64Of(n int64) value   { return intOf(big.NewInt(n)) }
func floatOf(f float64) value { return value{kind: floatValue, f: f} }
func stringOf(s string) value { return value{kind: stringValue, s: s} }

func boolOf(b bool) value {
	if b {
		return int64Of(1)
	}
	return int64Of(0)
}

func (v value) ok() bool { return v.kind != noValue }

// truth reports the value as a condition. ok is false for non-scalars.
func (v value) truth() (bool, bool) {
	switch v.kind {
	case intValue:
		return v.i.Sign() != 0, true
	case floatValue:
		return v.f != 0, true
	}
	return false, false
}

func (v value) float() float64 {
	if v.kind == intValue {
		f, _ := new(big.Float).SetInt(v.i).Float64()
		return f
	}
	return v.f
}

// parseNumber reads an integer or floating literal with C prefixes and suffixes.
func parseNumber(text string) value {
	text = strings.ReplaceAll(strings.TrimSpace(text), "'", "")
	lower := strings.ToLower(text)
	hex := strings.HasPrefix(lower, "0x")

	isFloat := strings.ContainsAny(lower, ".p") || (!hex && strings.Contains(lower, "e"))
	if isFloat {
		body := strings.TrimRight(lower, "fl")
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return value{}
		}
		return floatOf(f)
	}

	body := strings.TrimRight(lower, "ul")
	base := 10
	switch {
	case hex:
		body, base = body[2:], 16
	case strings.HasPrefix(body, "0b"):
		body, base = body[2:], 2
	case len(body) > 1 && body[0] == '0':
		body, base = body[1:], 8
	}
	n, ok := new(big.Int).SetString(body, base)
	if !ok {
		return value{}
	}
	return intOf(n)
}

// parseChar reads a character literal such as 'a', '\n' or L'x'.
func parseChar(text string) value {
	text = strings.TrimLeft(text, "LuU8")
	if len(text) < 2 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return value{}
	}
	s, err := unescapeC(text[1 : len(text)-1])
	if err != nil || s == "" {
		return value{}
	}
	r := []rune(s)
	return int64Of(int64(r[0]))
}

// parseString reads a string literal including its quotes and prefix.
func parseString(text string) (string, bool) {
	text = strings.TrimLeft(text, "LuU8")
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", false
	}
	s, err := unescapeC(text[1 : len(text)-1])
	return s, err == nil
}

// unescapeC expands C escape sequences.
func unescapeC(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch c := s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'e':
			b.WriteByte(0x1b)
		case '\\', '\'', '"', '?':
			b.WriteByte(c)
		case 'x':
			j := i + 1
			for j < len(s) && strings.IndexByte("0123456789abcdefABCDEF", s[j]) >= 0 {
				j++
			}
			n, err := strconv.ParseUint(s[i+1:j], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid hex escape: %w", err)
			}
			writeCode(&b, n)
			i = j - 1
		case 'u', 'U':
			width := 4
			if c == 'U' {
				width = 8
			}
			if i+width >= len(s) {
				return "", fmt.Errorf("short unicode escape")
			}
			n, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape: %w", err)
			}
			b.WriteRune(rune(n))
			i += width
		default:
			if c < '0' || c > '7' {
				return "", fmt.Errorf("unknown escape \\%c", c)
			}
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(&b, n)
			i = j - 1
		}
	}
	return b.String(), nil
}

func writeCode(b *strings.Builder, n uint64) {
	if n < 0x80 {
		b.WriteByte(byte(n))
		return
	}
	b.WriteRune(rune(n))
}

// convert casts v to t the way an initializer would.
func convert(v value, t *cType) value {
	if t == nil || !v.ok() {
		return v
	}
	switch {
	case t.isFloating():
		if v.kind == intValue || v.kind == floatValue {
			f := v.float()
			if t.canon().kind == clang.TypeFloat {
				f = float64(float32(f))
			}
			return floatOf(f)
		}
	case t.canon().kind == clang.TypeBool:
		if b, ok := v.truth(); ok {
			return boolOf(b)
		}
	case t.isInteger():
		var n *big.Int
		switch v.kind {
		case intValue:
			n = new(big.Int).Set(v.i)
		case floatValue:
			if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
				return value{}
			}
			n, _ = big.NewFloat(math.Trunc(v.f)).Int(nil)
		default:
			return value{}
		}
		size := t.SizeOf()
		if size <= 0 {
			return intOf(n)
		}
		return intOf(truncate(n, uint(size*8), !t.isUnsigned()))
	}
	return v
}

// truncate wraps n to a two's complement integer of the given width.
func truncate(n *big.Int, bits uint, signed bool) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	out := new(big.Int).Mod(n, mod)
	if signed && out.Bit(int(bits)-1) == 1 {
		out.Sub(out, mod)
	}
	return out
}

func unaryOp(op string, v value) value {
	switch v.kind {
	case intValue:
		switch op {
		case "-":
			return intOf(new(big.Int).Neg(v.i))
		case "+":
			return v
		case "~":
			return intOf(new(big.Int).Not(v.i))
		case "!":
			return boolOf(v.i.Sign() == 0)
		}
	case floatValue:
		switch op {
		case "-":
			return floatOf(-v.f)
		case "+":
			return v
		case "!":
			return boolOf(v.f == 0)
		}
	}
	return value{}
}

func binaryOp(op string, l, r value) value {
	switch op {
	case "&&", "||":
		lb, lok := l.truth()
		rb, rok := r.truth()
		if !lok || !rok {
			return value{}
		}
		if op == "&&" {
			return boolOf(lb && rb)
		}
		return boolOf(lb || rb)
	}

	if l.kind == intValue && r.kind == intValue {
		return intBinary(op, l.i, r.i)
	}
	if (l.kind == intValue || l.kind == floatValue) && (r.kind == intValue || r.kind == floatValue) {
		return floatBinary(op, l.float(), r.float())
	}
	return value{}
}

func intBinary(op string, a, b *big.Int) value {
	z := new(big.Int)
	switch op {
	case "+":
		z.Add(a, b)
	case "-":
		z.Sub(a, b)
	case "*":
		z.Mul(a, b)
	case "/":
		if b.Sign() == 0 {
			return value{}
		}
		z.Quo(a, b)
	case "%":
		if b.Sign() == 0 {
			return value{}
		}
		z.Rem(a, b)
	case "<<":
		if !b.IsInt64() || b.Int64() < 0 || b.Int64() > 1024 {
			return value{}
		}
		z.Lsh(a, uint(b.Int64()))
	case ">>":
		if !b.IsInt64() || b.Int64() < 0 {
			return value{}
		}
		z.Rsh(a, uint(min(b.Int64(), 1024)))
	case "&":
		z.And(a, b)
	case "|":
		z.Or(a, b)
	case "^":
		z.Xor(a, b)
	case "==":
		return boolOf(a.Cmp(b) == 0)
	case "!=":
		return boolOf(a.Cmp(b) != 0)
	case "<":
		return boolOf(a.Cmp(b) < 0)
	case ">":
		return boolOf(a.Cmp(b) > 0)
	case "<=":
		return boolOf(a.Cmp(b) <= 0)
	case ">=":
		return boolOf(a.Cmp(b) >= 0)
	default:
		return value{}
	}
	return intOf(z)
}

func floatBinary(op string, a, b float64) value {
	switch op {
	case "+":
		return floatOf(a + b)
	case "-":
		return floatOf(a - b)
	case "*":
		return floatOf(a * b)
	case "/":
		return floatOf(a / b)
	case "==":
		return boolOf(a == b)
	case "!=":
		return boolOf(a != b)
	case "<":
		return boolOf(a < b)
	case ">":
		return boolOf(a > b)
	case "<=":
		return boolOf(a <= b)
	case ">=":
		return boolOf(a >= b)
	}
	return value{}
}

// evalResult reports v as libclang would for a variable of type t.
func evalResult(v value, t *cType) clang.EvalResult {
	v = convert(v, t)
	switch v.kind {
	case intValue:
		if t != nil && t.canon().kind.IsPointerLike() {
			return clang.Unexposed
		}
		return clang.EvalResult{Kind: clang.EvalInt, Int: v.i}
	case floatValue:
		return clang.EvalResult{Kind: clang.EvalFloat, Float: v.f}
	case stringValue:
		return clang.EvalResult{Kind: clang.EvalStrLiteral, Str: v.s}
	}
	return clang.Unexposed
}

// inferEnumType picks the integer type of an enum without a fixed underlying
// type: unsigned int when no constant is negative, int otherwise, widened to
// long or long long when the values do not fit.
func inferEnumType(m *dataModel, values []*big.Int) *cType {
	negative := false
	posBits, negBits := 0, 0
	for _, v := range values {
		if v.Sign() < 0 {
			negative = true
			// -2^(n-1) needs n bits.
			negBits = max(negBits, new(big.Int).Add(v, big.NewInt(1)).BitLen()+1)
			continue
		}
		posBits = max(posBits, v.BitLen())
	}

	if negative {
		if negBits <= 32 && posBits <= 31 {
			return m.builtin("int")
		}
		if m.long == 8 {
			return m.builtin("long")
		}
		return m.builtin("long long")
	}
	if posBits <= 32 {
		return m.builtin("unsigned int")
	}
	if m.long == 8 {
		return m.builtin("unsigned long")
	}
	return m.builtin("unsigned long long")
}
