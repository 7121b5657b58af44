package resource

// Handle is a generation-tagged reference to an arena slot.
// The low 32 bits hold the slot number plus one; the high 32 bits hold the
// slot's generation when the handle was issued. Handle 0 is always invalid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

// Index returns the slot the handle refers to.
func (h Handle) Index() uint32 {
	return uint32(h) - 1
}

// Generation returns the generation the handle was issued under.
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// Valid reports whether the handle could ever refer to a slot.
func (h Handle) Valid() bool {
	return uint32(h) != 0
}

// EventType identifies an arena lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	}
	return "unknown"
}

// Event represents an arena lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about arena lifecycle events.
// Observers run after the arena lock is released.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by values that need cleanup when the
// arena is closed with the value still present.
type Dropper interface {
	Drop()
}
