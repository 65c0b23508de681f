package uglc

import "github.com/zoobzio/clockz"

// Clock provides time operations for deterministic testing, aliasing the
// teacher's own clockz.Clock rather than calling time.Now directly.
type Clock = clockz.Clock

// RealClock is the default Clock, backed by the standard library's time
// package.
var RealClock Clock = clockz.RealClock
