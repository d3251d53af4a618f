package typecheck

import "github.com/Wizzerinus/magicnet/wireerr"

// ConvertObject best-effort coerces value into the shape expr expects:
// numeric widening for IntExpr, element-wise recursive coercion for
// ListExpr/TupleExpr/DictExpr, and first-matching-member coercion for
// UnionExpr. It never fails a value that CheckType would accept as-is, and
// guarantees CheckType(ConvertObject(T,v), T) == nil whenever it returns a
// nil error (see convert_test.go for the round-trip check).
func ConvertObject(expr Expr, value any) (any, error) {
	switch e := expr.(type) {
	case IntExpr:
		iv, ok := ToInt64(value)
		if !ok {
			return nil, wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "cannot convert %T to integer", value)
		}
		if err := checkInt(iv, e); err != nil {
			return nil, err
		}
		return iv, nil
	case StrExpr, BytesExpr, AnyExpr:
		if err := CheckType(value, expr); err != nil {
			return nil, err
		}
		return value, nil
	case ListExpr:
		elems, ok := asSlice(value)
		if !ok {
			return nil, wireerr.NewValidationError(wireerr.KindTupleOrListRequired, e.String(), "cannot convert %T to a list", value)
		}
		out := make([]any, len(elems))
		for i, el := range elems {
			cv, err := ConvertObject(e.Elem, el)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case TupleExpr:
		return convertTuple(e, value)
	case DictExpr:
		pairs, ok := asPairs(value)
		if !ok {
			return nil, wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, e.String(), "cannot convert %T to a dict", value)
		}
		out := make(map[string]any, len(pairs))
		for _, kv := range pairs {
			cv, err := ConvertObject(e.Val, kv[1])
			if err != nil {
				return nil, err
			}
			key := stringifyKey(kv[0])
			if err := CheckType(coerceKeyForCheck(key, e.Key), e.Key); err != nil {
				return nil, err
			}
			out[key] = cv
		}
		return out, nil
	case UnionExpr:
		return convertUnion(e, value)
	case HashableExpr:
		// hashable's own leaves are already primitives or interchangeable
		// containers; check_type performs the structural validation, and
		// conversion is identity (no width-narrowing to do, since hashable
		// has no bounds of its own).
		if err := CheckType(value, expr); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return nil, wireerr.NewValidationError(wireerr.KindTypeComparisonFailed, expr.String(), "no converter for %T", expr)
	}
}

func stringifyKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	default:
		if iv, ok := ToInt64(k); ok {
			return itoa(int(iv))
		}
		return ""
	}
}

func convertTuple(e TupleExpr, value any) (any, error) {
	elems, ok := asSlice(value)
	if !ok {
		return nil, wireerr.NewValidationError(wireerr.KindTupleOrListRequired, e.String(), "cannot convert %T to a tuple", value)
	}
	if e.Variadic == nil && len(elems) != len(e.Items) {
		return nil, wireerr.NewValidationError(wireerr.KindWrongTupleLength, e.String(), "expected %d elements, got %d", len(e.Items), len(elems))
	}
	if e.Variadic != nil && len(elems) < len(e.Items) {
		return nil, wireerr.NewValidationError(wireerr.KindWrongTupleLength, e.String(), "expected at least %d elements, got %d", len(e.Items), len(elems))
	}
	out := make([]any, len(elems))
	for i, el := range elems {
		var want Expr
		if i < len(e.Items) {
			want = e.Items[i]
		} else {
			want = e.Variadic
		}
		cv, err := ConvertObject(want, el)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

func convertUnion(e UnionExpr, value any) (any, error) {
	var lastErr error
	for _, member := range e.Members {
		cv, err := ConvertObject(member, value)
		if err != nil {
			lastErr = err
			continue
		}
		if err := CheckType(cv, member); err == nil {
			return cv, nil
		}
	}
	return nil, wireerr.NewValidationError(wireerr.KindUnionExhausted, e.String(), "no union member accepted the value (last: %v)", lastErr)
}
