package typecheck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Wizzerinus/magicnet/wireerr"
)

// AnnotatedValidator is one of the fixed set of bound validators the
// marshalled form can reference by display name: Ge, Lt, MaxLen. A validator
// is purely a (name, integer argument) pair — all three built-ins take and
// render a single int.
type AnnotatedValidator struct {
	Name string
	Arg  int64
}

func (v AnnotatedValidator) String() string { return fmt.Sprintf("%s(%d)", v.Name, v.Arg) }

// validatorRegistry caches parsed validators by display name: parsing
// "Ge(128)" splits at "(", converts the argument, and caches the instance.
var validatorRegistry = map[string]AnnotatedValidator{}

// knownValidatorNames is the fixed set of validator names the registry
// accepts. Any other name is a configuration error.
var knownValidatorNames = map[string]bool{"Ge": true, "Lt": true, "MaxLen": true}

// ParseValidator parses a display-form validator like "Ge(128)" into an
// AnnotatedValidator, caching the result. Returns a ConfigError for unknown
// validator names or malformed arguments.
func ParseValidator(display string) (AnnotatedValidator, error) {
	if v, ok := validatorRegistry[display]; ok {
		return v, nil
	}
	open := strings.IndexByte(display, '(')
	if open < 0 || !strings.HasSuffix(display, ")") {
		return AnnotatedValidator{}, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "malformed validator display %q", display)
	}
	name := display[:open]
	if !knownValidatorNames[name] {
		return AnnotatedValidator{}, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "unknown validator %q", name)
	}
	argStr := display[open+1 : len(display)-1]
	arg, err := strconv.ParseInt(argStr, 10, 64)
	if err != nil {
		return AnnotatedValidator{}, wireerr.NewConfigError(wireerr.KindUnsupportedValidator, "validator %q has a non-integer argument: %v", display, err)
	}
	v := AnnotatedValidator{Name: name, Arg: arg}
	validatorRegistry[display] = v
	return v, nil
}
