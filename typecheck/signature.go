package typecheck

import "github.com/Wizzerinus/magicnet/wireerr"

// SignatureFlags is a bitset carried by a FieldSignature.
type SignatureFlags uint8

// PersistInRAM marks that the most recent argument tuple for a field should
// be cached on the object instance so it can be resent on visibility
// queries.
const PersistInRAM SignatureFlags = 1 << 0

// SignatureItem describes one positional parameter: its name, its type
// expression, whether it is the trailing variadic slot, and its default
// value if any. Built explicitly by the application rather than introspected
// from a callable.
type SignatureItem struct {
	Name       string
	Type       Expr
	IsVariadic bool
	Default    any
	HasDefault bool
}

// FieldSignature is an ordered list of parameter descriptors.
type FieldSignature struct {
	Name  string
	Items []SignatureItem
	Flags SignatureFlags
}

// NewFieldSignature builds a FieldSignature, eagerly validating that only
// the final item may be variadic (a configuration error otherwise).
func NewFieldSignature(name string, items []SignatureItem) (*FieldSignature, error) {
	for i, it := range items {
		if it.IsVariadic && i != len(items)-1 {
			return nil, wireerr.NewConfigError(wireerr.KindKeywordOnlyFieldArgument,
				"only the final signature item may be variadic (item %d %q is not last)", i, it.Name)
		}
	}
	return &FieldSignature{Name: name, Items: items}, nil
}

// ValidateArguments zips args against the signature in order, applying
// ConvertObject then CheckType to each slot; if the last slot is variadic,
// every remaining positional argument validates against its type. Missing
// slots without defaults produce NoValueProvided; excess args produce
// TooManyArguments. Returns (coerced_args, nil) on success or (nil, err) on
// failure.
func (s *FieldSignature) ValidateArguments(args []any) ([]any, error) {
	out := make([]any, 0, len(args))
	argIdx := 0
	for i, item := range s.Items {
		if item.IsVariadic {
			for argIdx < len(args) {
				cv, err := convertAndCheck(item.Type, args[argIdx])
				if err != nil {
					return nil, err
				}
				out = append(out, cv)
				argIdx++
			}
			return out, nil
		}
		if argIdx >= len(args) {
			if !item.HasDefault {
				return nil, wireerr.NewValidationError(wireerr.KindNoValueProvided, item.Type.String(),
					"missing required argument %q (slot %d)", item.Name, i)
			}
			out = append(out, item.Default)
			continue
		}
		cv, err := convertAndCheck(item.Type, args[argIdx])
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
		argIdx++
	}
	if argIdx < len(args) {
		return nil, wireerr.NewValidationError(wireerr.KindTooManyArguments, "",
			"too many arguments: signature %q takes %d, got %d", s.Name, len(s.Items), len(args))
	}
	return out, nil
}

func convertAndCheck(expr Expr, value any) (any, error) {
	cv, err := ConvertObject(expr, value)
	if err != nil {
		return nil, err
	}
	if err := CheckType(cv, expr); err != nil {
		return nil, err
	}
	return cv, nil
}
