// Package device manages platform MIDI input/output connections: port
// enumeration, connect/disconnect, and the input callback chain that
// feeds timestamped messages into a bounded buffer.
package device

// PortDescriptor identifies one available port with a stable id,
// separate from its (possibly non-unique, possibly changing) display
// name, mirroring midir's id()/port_name() split.
type PortDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InPort is a platform MIDI input port. The real implementation wraps
// gitlab.com/gomidi/midi/v2/drivers.In; tests substitute an in-memory port.
type InPort interface {
	Name() string
	Open() error
	Close() error
	// Listen installs cb to run once per received message and returns a
	// function that stops listening.
	Listen(cb func(data []byte)) (stop func(), err error)
}

// OutPort is a platform MIDI output port.
type OutPort interface {
	Name() string
	Open() error
	Close() error
	Send(data []byte) error
}

// Backend enumerates the platform's available ports.
type Backend interface {
	Ins() ([]InPort, error)
	Outs() ([]OutPort, error)
}
