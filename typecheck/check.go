package typecheck

import (
	"reflect"

	"github.com/Wizzerinus/magicnet/wireerr"
)

// CheckType validates value against expr, returning a *wireerr.ValidationError
// describing the first mismatch, or nil if value matches. It is total over
// finite values: a container that revisits itself along the current path
// raises RecursiveTypeProvided rather than recursing forever.
func CheckType(value any, expr Expr) error {
	return checkType(value, expr, map[uintptr]bool{})
}

func checkType(value any, expr Expr, stack map[uintptr]bool) error {
	switch e := expr.(type) {
	case AnyExpr:
		return checkPredicates(value, e.Predicates)
	case IntExpr:
		return checkInt(value, e)
	case StrExpr:
		return checkStr(value, e)
	case BytesExpr:
		return checkBytes(value, e)
	case ListExpr:
		return checkList(value, e, stack)
	case DictExpr:
		return checkDict(value, e, stack)
	case TupleExpr:
		return checkTuple(value, e, stack)
	case UnionExpr:
		return checkUnion(value, e, stack)
	case HashableExpr:
		return checkHashable(value, stack)
	default:
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, expr.String(), "unsupported type expression %T", expr)
	}
}

func checkPredicates(value any, predicates []Predicate) error {
	if len(predicates) == 0 {
		return nil
	}
	for _, p := range predicates {
		if p.Value == value {
			return nil
		}
	}
	return wireerr.NewValidationError(wireerr.KindPredicateFailed, "any", "value %v matched none of %d predicates", value, len(predicates))
}

// ToInt64 widens any Go integer or float kind to int64, the common currency
// for comparing wire-decoded numbers (which arrive as whatever width the
// encoder and Go's type system agree on) against a declared signature.
func ToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		// JSON decodes all numbers as float64; accept exact integral values.
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case float32:
		if v == float32(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

func checkInt(value any, e IntExpr) error {
	iv, ok := ToInt64(value)
	if !ok {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "expected an integer, got %T", value)
	}
	if iv < e.Lo {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.GeString(), "value %d is below %s", iv, e.GeString())
	}
	if iv >= e.Hi {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.LtString(), "value %d does not satisfy %s", iv, e.LtString())
	}
	return nil
}

func checkStr(value any, e StrExpr) error {
	sv, ok := value.(string)
	if !ok {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "expected a string, got %T", value)
	}
	if len(sv) > e.MaxLen {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, fmt_MaxLen(e.MaxLen), "string of length %d exceeds MaxLen(%d)", len(sv), e.MaxLen)
	}
	return nil
}

func checkBytes(value any, e BytesExpr) error {
	bv, ok := value.([]byte)
	if !ok {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "expected bytes, got %T", value)
	}
	if len(bv) > e.MaxLen {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, fmt_MaxLen(e.MaxLen), "bytes of length %d exceeds MaxLen(%d)", len(bv), e.MaxLen)
	}
	return nil
}

func fmt_MaxLen(n int) string { return "MaxLen(" + itoa(n) + ")" }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// asSlice converts a value that may be []any, a concrete typed slice, or an
// array into a []any, matching the original's "tuples and lists are
// interchangeable" rule.
func asSlice(value any) ([]any, bool) {
	if s, ok := value.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// identity returns a stable pointer for mutable containers (slice, map) so
// recursion detection can tell "the same container again" from "an equal
// but distinct container." Scalars and strings have no identity and never
// appear in the recursion stack.
func identity(value any) (uintptr, bool) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	}
	return 0, false
}

func enterContainer(value any, stack map[uintptr]bool) (uintptr, bool, error) {
	id, ok := identity(value)
	if !ok {
		return 0, false, nil
	}
	if stack[id] {
		return 0, false, wireerr.NewValidationError(wireerr.KindRecursiveTypeProvided, "", "recursive container detected")
	}
	stack[id] = true
	return id, true, nil
}

func leaveContainer(id uintptr, entered bool, stack map[uintptr]bool) {
	if entered {
		delete(stack, id)
	}
}

func checkList(value any, e ListExpr, stack map[uintptr]bool) error {
	elems, ok := asSlice(value)
	if !ok {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "expected a list, got %T", value)
	}
	id, entered, err := enterContainer(value, stack)
	if err != nil {
		return err
	}
	defer leaveContainer(id, entered, stack)
	for i, elem := range elems {
		if err := checkType(elem, e.Elem, stack); err != nil {
			return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "element %d: %s", i, err)
		}
	}
	return nil
}

// asPairs converts a map-shaped value (map[string]any, map[any]any, or any
// other map kind) into an ordered slice of key/value pairs.
func asPairs(value any) ([][2]any, bool) {
	if m, ok := value.(map[string]any); ok {
		out := make([][2]any, 0, len(m))
		for k, v := range m {
			out = append(out, [2]any{k, v})
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make([][2]any, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		out = append(out, [2]any{k.Interface(), rv.MapIndex(k).Interface()})
	}
	return out, true
}

func checkDict(value any, e DictExpr, stack map[uintptr]bool) error {
	pairs, ok := asPairs(value)
	if !ok {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "expected a dict, got %T", value)
	}
	id, entered, err := enterContainer(value, stack)
	if err != nil {
		return err
	}
	defer leaveContainer(id, entered, stack)
	for _, kv := range pairs {
		key := coerceKeyForCheck(kv[0], e.Key)
		if err := checkType(key, e.Key, stack); err != nil {
			return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "key %v: %s", kv[0], err)
		}
		if err := checkType(kv[1], e.Val, stack); err != nil {
			return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "value for key %v: %s", kv[0], err)
		}
	}
	return nil
}

// coerceKeyForCheck widens a string map key to an int when the expected key
// expression is integral, since wire encodings (notably JSON) only support
// string map keys.
func coerceKeyForCheck(key any, expect Expr) any {
	if _, isInt := expect.(IntExpr); isInt {
		if s, ok := key.(string); ok {
			if n, ok2 := parseInt(s); ok2 {
				return n
			}
		}
	}
	return key
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	var n int64
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func checkTuple(value any, e TupleExpr, stack map[uintptr]bool) error {
	elems, ok := asSlice(value)
	if !ok {
		return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "expected a tuple, got %T", value)
	}
	if e.Variadic == nil {
		if len(elems) != len(e.Items) {
			return wireerr.NewValidationError(wireerr.KindWrongTupleLength, e.String(), "expected %d elements, got %d", len(e.Items), len(elems))
		}
	} else if len(elems) < len(e.Items) {
		return wireerr.NewValidationError(wireerr.KindWrongTupleLength, e.String(), "expected at least %d elements, got %d", len(e.Items), len(elems))
	}
	id, entered, err := enterContainer(value, stack)
	if err != nil {
		return err
	}
	defer leaveContainer(id, entered, stack)
	for i, elem := range elems {
		var want Expr
		if i < len(e.Items) {
			want = e.Items[i]
		} else {
			want = e.Variadic
		}
		if err := checkType(elem, want, stack); err != nil {
			return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "element %d: %s", i, err)
		}
	}
	return nil
}

func checkUnion(value any, e UnionExpr, stack map[uintptr]bool) error {
	var lastErr error
	for _, member := range e.Members {
		// Each branch attempt pushes/pops the value's own identity
		// independently so a prior failed branch's recursion bookkeeping
		// never poisons the next branch.
		if err := checkType(value, member, stack); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return wireerr.NewValidationError(wireerr.KindUnionExhausted, e.String(), "value matched no union member (last: %s)", lastErr)
}

func checkHashable(value any, stack map[uintptr]bool) error {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	case string:
		return nil
	case []byte:
		return nil
	}
	if elems, ok := asSlice(value); ok {
		id, entered, err := enterContainer(value, stack)
		if err != nil {
			return err
		}
		defer leaveContainer(id, entered, stack)
		for i, elem := range elems {
			if err := checkHashable(elem, stack); err != nil {
				return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, "hashable", "element %d: %s", i, err)
			}
		}
		return nil
	}
	if pairs, ok := asPairs(value); ok {
		id, entered, err := enterContainer(value, stack)
		if err != nil {
			return err
		}
		defer leaveContainer(id, entered, stack)
		for _, kv := range pairs {
			if err := checkHashable(kv[1], stack); err != nil {
				return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, "hashable", "value for key %v: %s", kv[0], err)
			}
		}
		return nil
	}
	return wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, "hashable", "value of type %T is not hashable-shaped", value)
}
