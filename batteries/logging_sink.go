package batteries

import (
	"fmt"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/observability"
)

// loggingSinkOwner is the bus.Owner every LoggingSink registers its
// listeners under, so Detach can remove them all in one call.
const loggingSinkOwner bus.Owner = "batteries.logging-sink"

// LoggingSink bridges bus.EventDebug/Info/Warning/Error/Exception to an
// observability.Logger. Attaching more than one sink to the same bus logs
// every event multiple times, so a setup normally wants exactly one.
type LoggingSink struct {
	bus *bus.Bus
	log observability.Logger
}

// NewLoggingSink attaches a sink to b that logs through log, and returns it.
func NewLoggingSink(b *bus.Bus, log observability.Logger) *LoggingSink {
	s := &LoggingSink{bus: b, log: log}
	b.Listen(loggingSinkOwner, bus.EventDebug, 0, func(args ...any) { s.log.Debug(render(args)) })
	b.Listen(loggingSinkOwner, bus.EventInfo, 0, func(args ...any) { s.log.Info(render(args)) })
	b.Listen(loggingSinkOwner, bus.EventWarning, 0, func(args ...any) { s.log.Warn(render(args)) })
	b.Listen(loggingSinkOwner, bus.EventError, 0, func(args ...any) { s.log.Error(render(args)) })
	b.Listen(loggingSinkOwner, bus.EventException, 0, func(args ...any) {
		s.log.Error(fmt.Sprintf("exception raised: %s", render(args)))
	})
	return s
}

// Detach removes every listener this sink registered.
func (s *LoggingSink) Detach() { s.bus.IgnoreAll(loggingSinkOwner) }

// render joins an event's argument list the way fmt.Sprintln would, minus
// the trailing newline, so a multi-argument Emit reads as one line.
func render(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s := fmt.Sprint(args[0])
	for _, a := range args[1:] {
		s += " " + fmt.Sprint(a)
	}
	return s
}
