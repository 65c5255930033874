package invigilate

import "github.com/nimburion/invigilate/pkg/loggers"

// Tier identifies which logger in the fallback chain served a proxy call.
type Tier int

const (
	// TierInstance is the context's own effective logger.
	TierInstance Tier = iota
	// TierDefault is the registry default logger.
	TierDefault
	// TierSilent is the silent logger.
	TierSilent
)

func (t Tier) String() string {
	switch t {
	case TierInstance:
		return "instance"
	case TierDefault:
		return "default"
	case TierSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// Observer receives notifications about registry activity. Implementations
// must be safe for concurrent use and must not call back into the registry.
type Observer interface {
	// Registered is called once per newly created context.
	Registered(id, parent ID, linked bool)
	// Cascaded is called after a logger assignment with the number of
	// contexts whose logger was rewritten, the assigned one included.
	Cascaded(id ID, updated int)
	// Dispatched is called for every proxy call with the tier that served it.
	Dispatched(method loggers.Method, tier Tier)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) Registered(ID, ID, bool)         {}
func (NopObserver) Cascaded(ID, int)                {}
func (NopObserver) Dispatched(loggers.Method, Tier) {}
