package device

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// GomidiBackend is the real platform backend, built on
// gitlab.com/gomidi/midi/v2/drivers. Callers must blank-import a
// concrete driver package (e.g. drivers/rtmididrv) to register a
// backend driver before use.
type GomidiBackend struct{}

func (GomidiBackend) Ins() ([]InPort, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("device: failed to list input ports: %w", err)
	}
	ports := make([]InPort, len(ins))
	for i, in := range ins {
		ports[i] = gomidiIn{in: in}
	}
	return ports, nil
}

func (GomidiBackend) Outs() ([]OutPort, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("device: failed to list output ports: %w", err)
	}
	ports := make([]OutPort, len(outs))
	for i, out := range outs {
		ports[i] = gomidiOut{out: out}
	}
	return ports, nil
}

type gomidiIn struct {
	in drivers.In
}

func (p gomidiIn) Name() string { return p.in.String() }
func (p gomidiIn) Open() error  { return p.in.Open() }
func (p gomidiIn) Close() error { return p.in.Close() }

func (p gomidiIn) Listen(cb func(data []byte)) (func(), error) {
	return p.in.Listen(func(data []byte, timestampms int32) {
		cb(data)
	}, drivers.ListenConfig{})
}

type gomidiOut struct {
	out drivers.Out
}

func (p gomidiOut) Name() string           { return p.out.String() }
func (p gomidiOut) Open() error            { return p.out.Open() }
func (p gomidiOut) Close() error           { return p.out.Close() }
func (p gomidiOut) Send(data []byte) error { return p.out.Send(data) }
