package typecheck

import "github.com/Wizzerinus/magicnet/wireerr"

// MarshalExpr renders expr into the canonical tree of primitives:
// {t: tag, m: meta|null, a?: [sub, ...]}.
func MarshalExpr(expr Expr) map[string]any {
	switch e := expr.(type) {
	case IntExpr:
		return map[string]any{"t": "int", "m": []any{
			map[string]any{"t": "av", "d": e.GeString()},
			map[string]any{"t": "av", "d": e.LtString()},
		}}
	case StrExpr:
		return map[string]any{"t": "str", "m": []any{
			map[string]any{"t": "av", "d": AnnotatedValidator{Name: "MaxLen", Arg: int64(e.MaxLen)}.String()},
		}}
	case BytesExpr:
		return map[string]any{"t": "bytes", "m": []any{
			map[string]any{"t": "av", "d": AnnotatedValidator{Name: "MaxLen", Arg: int64(e.MaxLen)}.String()},
		}}
	case ListExpr:
		return map[string]any{"t": "list", "m": nil, "a": []any{MarshalExpr(e.Elem)}}
	case DictExpr:
		return map[string]any{"t": "dict", "m": nil, "a": []any{MarshalExpr(e.Key), MarshalExpr(e.Val)}}
	case TupleExpr:
		a := make([]any, 0, len(e.Items)+2)
		for _, it := range e.Items {
			a = append(a, MarshalExpr(it))
		}
		if e.Variadic != nil {
			a = append(a, MarshalExpr(e.Variadic), map[string]any{"t": "ell"})
		}
		return map[string]any{"t": "tuple", "m": nil, "a": a}
	case UnionExpr:
		a := make([]any, len(e.Members))
		for i, m := range e.Members {
			a[i] = MarshalExpr(m)
		}
		return map[string]any{"t": "Union", "m": nil, "a": a}
	case AnyExpr:
		if len(e.Predicates) == 0 {
			return map[string]any{"t": "any", "m": nil}
		}
		meta := make([]any, len(e.Predicates))
		for i, p := range e.Predicates {
			meta[i] = map[string]any{"t": "pr", "d": p.Value}
		}
		return map[string]any{"t": "any", "m": meta}
	case HashableExpr:
		return map[string]any{"t": "hashable", "m": nil}
	default:
		return map[string]any{"t": "unknown", "m": nil}
	}
}

// UnmarshalExpr is the inverse of MarshalExpr.
func UnmarshalExpr(tree map[string]any) (Expr, error) {
	tag, _ := tree["t"].(string)
	switch tag {
	case "int":
		lo, hi, err := intBoundsFromMeta(tree["m"])
		if err != nil {
			return nil, err
		}
		return IntExpr{Lo: lo, Hi: hi}, nil
	case "str":
		n, err := maxLenFromMeta(tree["m"])
		if err != nil {
			return nil, err
		}
		return StrExpr{MaxLen: n}, nil
	case "bytes":
		n, err := maxLenFromMeta(tree["m"])
		if err != nil {
			return nil, err
		}
		return BytesExpr{MaxLen: n}, nil
	case "list":
		subs, err := subtrees(tree["a"])
		if err != nil || len(subs) != 1 {
			return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "malformed list expr")
		}
		elem, err := UnmarshalExpr(subs[0])
		if err != nil {
			return nil, err
		}
		return ListExpr{Elem: elem}, nil
	case "dict":
		subs, err := subtrees(tree["a"])
		if err != nil || len(subs) != 2 {
			return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "malformed dict expr")
		}
		key, err := UnmarshalExpr(subs[0])
		if err != nil {
			return nil, err
		}
		val, err := UnmarshalExpr(subs[1])
		if err != nil {
			return nil, err
		}
		return DictExpr{Key: key, Val: val}, nil
	case "tuple":
		subs, err := subtrees(tree["a"])
		if err != nil {
			return nil, err
		}
		items := make([]Expr, 0, len(subs))
		var variadic Expr
		for i := 0; i < len(subs); i++ {
			if t, _ := subs[i]["t"].(string); t == "ell" {
				continue
			}
			// The element immediately before a trailing "ell" marker is the
			// variadic tail type, not a fixed item.
			if i+1 < len(subs) {
				if t2, _ := subs[i+1]["t"].(string); t2 == "ell" {
					v, err := UnmarshalExpr(subs[i])
					if err != nil {
						return nil, err
					}
					variadic = v
					continue
				}
			}
			it, err := UnmarshalExpr(subs[i])
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
		return TupleExpr{Items: items, Variadic: variadic}, nil
	case "Union":
		subs, err := subtrees(tree["a"])
		if err != nil {
			return nil, err
		}
		members := make([]Expr, len(subs))
		for i, s := range subs {
			m, err := UnmarshalExpr(s)
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		return UnionExpr{Members: members}, nil
	case "any":
		preds, err := predicatesFromMeta(tree["m"])
		if err != nil {
			return nil, err
		}
		return AnyExpr{Predicates: preds}, nil
	case "hashable":
		return HashableExpr{}, nil
	default:
		return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "unsupported marshalled type tag %q", tag)
	}
}

func subtrees(raw any) ([]map[string]any, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "expected a marshalled array")
	}
	out := make([]map[string]any, len(arr))
	for i, a := range arr {
		m, ok := a.(map[string]any)
		if !ok {
			return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "expected a marshalled object")
		}
		out[i] = m
	}
	return out, nil
}

func intBoundsFromMeta(raw any) (int64, int64, error) {
	metas, ok := raw.([]any)
	if !ok || len(metas) != 2 {
		return 0, 0, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "int expr requires exactly Ge and Lt meta entries")
	}
	var lo, hi int64
	for _, m := range metas {
		mm, _ := m.(map[string]any)
		d, _ := mm["d"].(string)
		v, err := ParseValidator(d)
		if err != nil {
			return 0, 0, err
		}
		switch v.Name {
		case "Ge":
			lo = v.Arg
		case "Lt":
			hi = v.Arg
		default:
			return 0, 0, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "int expr meta must be Ge/Lt, got %q", v.Name)
		}
	}
	return lo, hi, nil
}

func maxLenFromMeta(raw any) (int, error) {
	metas, ok := raw.([]any)
	if !ok || len(metas) != 1 {
		return 0, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "str/bytes expr requires exactly one MaxLen meta entry")
	}
	mm, _ := metas[0].(map[string]any)
	d, _ := mm["d"].(string)
	v, err := ParseValidator(d)
	if err != nil {
		return 0, err
	}
	if v.Name != "MaxLen" {
		return 0, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "expected MaxLen, got %q", v.Name)
	}
	return int(v.Arg), nil
}

func predicatesFromMeta(raw any) ([]Predicate, error) {
	if raw == nil {
		return nil, nil
	}
	metas, ok := raw.([]any)
	if !ok {
		return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "any expr meta must be an array")
	}
	out := make([]Predicate, len(metas))
	for i, m := range metas {
		mm, _ := m.(map[string]any)
		out[i] = Predicate{Value: mm["d"]}
	}
	return out, nil
}

// MarshalItem renders a SignatureItem to its marshalled form.
func MarshalItem(item SignatureItem) map[string]any {
	out := map[string]any{
		"n": item.Name,
		"t": MarshalExpr(item.Type),
		"v": item.IsVariadic,
	}
	if item.HasDefault {
		out["d"] = item.Default
	}
	return out
}

// UnmarshalItem is the inverse of MarshalItem.
func UnmarshalItem(tree map[string]any) (SignatureItem, error) {
	name, _ := tree["n"].(string)
	typeTree, ok := tree["t"].(map[string]any)
	if !ok {
		return SignatureItem{}, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "signature item missing type expr")
	}
	expr, err := UnmarshalExpr(typeTree)
	if err != nil {
		return SignatureItem{}, err
	}
	variadic, _ := tree["v"].(bool)
	item := SignatureItem{Name: name, Type: expr, IsVariadic: variadic}
	if def, ok := tree["d"]; ok {
		item.Default = def
		item.HasDefault = true
	}
	return item, nil
}

// MarshalSignature renders a FieldSignature to {n: name, a: flags, f: [item, ...]}.
func MarshalSignature(sig *FieldSignature) map[string]any {
	items := make([]any, len(sig.Items))
	for i, it := range sig.Items {
		items[i] = MarshalItem(it)
	}
	return map[string]any{"n": sig.Name, "a": int(sig.Flags), "f": items}
}

// UnmarshalSignature is the inverse of MarshalSignature.
func UnmarshalSignature(tree map[string]any) (*FieldSignature, error) {
	name, _ := tree["n"].(string)
	flagsRaw := intFromAny(tree["a"])
	itemsRaw, ok := tree["f"].([]any)
	if !ok {
		return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "field signature missing items")
	}
	items := make([]SignatureItem, len(itemsRaw))
	for i, raw := range itemsRaw {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "signature item is not an object")
		}
		it, err := UnmarshalItem(m)
		if err != nil {
			return nil, err
		}
		items[i] = it
	}
	return &FieldSignature{Name: name, Items: items, Flags: SignatureFlags(flagsRaw)}, nil
}

// intFromAny accepts the numeric shapes a marshalled tree's integer fields
// can take: a plain Go int (round-tripped in-process) or a float64
// (decoded from JSON on disk), where flags and similar small integers lose
// no precision.
func intFromAny(raw any) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
