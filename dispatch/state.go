package dispatch

import (
	"go.uber.org/zap"

	"github.com/wippyai/mci-runtime/mmsys"
)

// State is a step in the life of one dispatched call.
type State uint8

const (
	StateIdle State = iota
	StateResolving
	StateMarshaling
	StateSent
	StateUnmarshaling
	StateFormatting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateResolving:    "resolving",
	StateMarshaling:   "marshaling",
	StateSent:         "sent",
	StateUnmarshaling: "unmarshaling",
	StateFormatting:   "formatting",
	StateDone:         "done",
	StateFailed:       "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Transition is one state change of a call.
type Transition struct {
	// Err is set on the transition to StateFailed.
	Err     error
	Device  mmsys.DeviceID
	Message mmsys.Message
	From    State
	To      State
}

// Observer receives every state transition. Observers run on the calling
// goroutine and must not block.
type Observer interface {
	OnTransition(Transition)
}

// trace follows one call through its states.
type trace struct {
	obs     Observer
	device  mmsys.DeviceID
	message mmsys.Message
	state   State
}

func (d *Dispatcher) begin(device mmsys.DeviceID, msg mmsys.Message) *trace {
	return &trace{obs: d.observer, device: device, message: msg}
}

func (t *trace) to(s State) {
	t.move(s, nil)
}

// fail moves the call to StateFailed and returns err.
func (t *trace) fail(err error) error {
	t.move(StateFailed, err)
	return err
}

func (t *trace) move(s State, err error) {
	from := t.state
	t.state = s
	if ce := Logger().Check(zap.DebugLevel, "dispatch state"); ce != nil {
		ce.Write(
			zap.Uint32("device", uint32(t.device)),
			zap.Stringer("message", t.message),
			zap.Stringer("from", from),
			zap.Stringer("to", s),
			zap.Error(err))
	}
	if t.obs != nil {
		t.obs.OnTransition(Transition{
			Err:     err,
			Device:  t.device,
			Message: t.message,
			From:    from,
			To:      s,
		})
	}
}
