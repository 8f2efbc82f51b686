package ide

// Command is an action requested by a remote tool call that must execute
// inside the host loop.
type Command interface {
	command()
}

// OpenFileCommand navigates the diff viewer to a file, optionally at a line.
type OpenFileCommand struct {
	Path string
	Line *int
}

func (OpenFileCommand) command() {}

// bridgeCapacity bounds how many commands can be queued before tool calls
// start failing with an enqueue error.
const bridgeCapacity = 32

// DrainBudget caps how many commands the host loop applies per frame so
// network-driven work cannot starve rendering. Remaining commands carry over
// to the next frame.
const DrainBudget = 10

// Bridge is the bounded FIFO channel carrying commands from the network side
// to the single-threaded host loop.
type Bridge struct {
	ch chan Command
}

// NewBridge returns a bridge with the default capacity.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan Command, bridgeCapacity)}
}

// TrySend enqueues a command without blocking. It reports false when the
// queue is full or the host loop has stopped draining.
func (b *Bridge) TrySend(cmd Command) bool {
	select {
	case b.ch <- cmd:
		return true
	default:
		return false
	}
}

// Commands exposes the receive side for the host loop's wakeup listener.
func (b *Bridge) Commands() <-chan Command {
	return b.ch
}

// Drain removes up to max pending commands without blocking, preserving
// enqueue order.
func (b *Bridge) Drain(max int) []Command {
	var out []Command
	for len(out) < max {
		select {
		case cmd := <-b.ch:
			out = append(out, cmd)
		default:
			return out
		}
	}
	return out
}
