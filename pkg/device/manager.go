package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/rucub100/midirc/pkg/logger"
	"github.com/rucub100/midirc/pkg/midimsg"
)

// managedInput pairs a stable descriptor with the port it names.
type managedInput struct {
	descriptor PortDescriptor
	port       InPort
}

// managedOutput pairs a stable descriptor with the port it names.
type managedOutput struct {
	descriptor PortDescriptor
	port       OutPort
}

// Manager owns the available port lists and at most one active input
// and output connection. It is safe for concurrent use.
type Manager struct {
	backend Backend
	start   time.Time

	mu               sync.Mutex
	availableInputs  []managedInput
	availableOutputs []managedOutput
	inputMu          sync.Mutex
	inputConn        *managedInput
	stopListening    func()
	outputMu         sync.Mutex
	outputConn       *managedOutput
	frontendChannel  chan<- midimsg.Timestamped
	recordingSink    func(midimsg.Timestamped)
}

// New returns a Manager backed by the given Backend with no active
// connections.
func New(backend Backend) *Manager {
	return &Manager{
		backend: backend,
		start:   time.Now(),
	}
}

// ScanInputs replaces the available input port list without touching
// an active connection; a stale active connection is only reported on
// its next operation. Each port's id is assigned by its position in
// this scan, stable across AvailableInputs/ConnectInput calls until
// the next scan, and distinct from its (possibly duplicated) display name.
func (m *Manager) ScanInputs() error {
	ports, err := m.backend.Ins()
	if err != nil {
		return err
	}
	managed := make([]managedInput, len(ports))
	for i, p := range ports {
		managed[i] = managedInput{
			descriptor: PortDescriptor{ID: fmt.Sprintf("in-%d", i), Name: p.Name()},
			port:       p,
		}
	}
	m.mu.Lock()
	m.availableInputs = managed
	m.mu.Unlock()
	return nil
}

// ScanOutputs replaces the available output port list, assigning ids
// the same way ScanInputs does.
func (m *Manager) ScanOutputs() error {
	ports, err := m.backend.Outs()
	if err != nil {
		return err
	}
	managed := make([]managedOutput, len(ports))
	for i, p := range ports {
		managed[i] = managedOutput{
			descriptor: PortDescriptor{ID: fmt.Sprintf("out-%d", i), Name: p.Name()},
			port:       p,
		}
	}
	m.mu.Lock()
	m.availableOutputs = managed
	m.mu.Unlock()
	return nil
}

// AvailableInputs returns the most recent scan's input port descriptors.
func (m *Manager) AvailableInputs() []PortDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	descriptors := make([]PortDescriptor, len(m.availableInputs))
	for i, e := range m.availableInputs {
		descriptors[i] = e.descriptor
	}
	return descriptors
}

// AvailableOutputs returns the most recent scan's output port descriptors.
func (m *Manager) AvailableOutputs() []PortDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	descriptors := make([]PortDescriptor, len(m.availableOutputs))
	for i, e := range m.availableOutputs {
		descriptors[i] = e.descriptor
	}
	return descriptors
}

// InputConnection reports the descriptor of the active input
// connection, or nil if none is connected.
func (m *Manager) InputConnection() *PortDescriptor {
	m.inputMu.Lock()
	defer m.inputMu.Unlock()
	if m.inputConn == nil {
		return nil
	}
	descriptor := m.inputConn.descriptor
	return &descriptor
}

// OutputConnection reports the descriptor of the active output
// connection, or nil if none is connected.
func (m *Manager) OutputConnection() *PortDescriptor {
	m.outputMu.Lock()
	defer m.outputMu.Unlock()
	if m.outputConn == nil {
		return nil
	}
	descriptor := m.outputConn.descriptor
	return &descriptor
}

// descriptorID is implemented by managedInput and managedOutput so a
// single generic lookup can serve both ConnectInput and ConnectOutput.
type descriptorID interface {
	id() string
}

func (e managedInput) id() string  { return e.descriptor.ID }
func (e managedOutput) id() string { return e.descriptor.ID }

func findPort[T descriptorID](entries []T, id string) *T {
	for i := range entries {
		if entries[i].id() == id {
			return &entries[i]
		}
	}
	return nil
}

// ConnectInput opens the input port named by id and installs the
// callback chain: stamp, decode-or-log-and-drop, forward to the
// recording sink, best-effort forward to the frontend channel. It
// fails if a connection already exists or id is unknown. The lookup
// only briefly holds the scan-list mutex; the existence check, open,
// and listen are atomic under a dedicated input mutex so concurrent
// callers cannot both pass the "no active connection" check, without
// blocking unrelated scans for the duration of the driver calls.
func (m *Manager) ConnectInput(id string) error {
	m.mu.Lock()
	entry := findPort(m.availableInputs, id)
	m.mu.Unlock()
	if entry == nil {
		return fmt.Errorf("device: unknown input port %q", id)
	}

	m.inputMu.Lock()
	defer m.inputMu.Unlock()

	if m.inputConn != nil {
		return fmt.Errorf("device: an input connection is already active")
	}

	if err := entry.port.Open(); err != nil {
		return fmt.Errorf("device: failed to open input port %q: %w", id, err)
	}

	stop, err := entry.port.Listen(func(data []byte) {
		m.handleInput(data)
	})
	if err != nil {
		_ = entry.port.Close()
		return fmt.Errorf("device: failed to listen on input port %q: %w", id, err)
	}

	m.inputConn = entry
	m.stopListening = stop
	return nil
}

// handleInput is the input callback: stamp, decode, forward.
func (m *Manager) handleInput(data []byte) {
	micros := uint64(time.Since(m.start).Microseconds())

	msg, err := midimsg.Decode(data)
	if err != nil {
		logger.GetLogger().Warn("dropping undecodable input message", "error", err)
		return
	}

	timestamped := midimsg.Timestamped{TimestampMicros: micros, Message: msg}

	m.mu.Lock()
	ch := m.frontendChannel
	sink := m.recordingSink
	m.mu.Unlock()

	if sink != nil {
		sink(timestamped)
	}

	if ch == nil {
		return
	}
	select {
	case ch <- timestamped:
	default:
		logger.GetLogger().Warn("dropping message, frontend channel is full")
	}
}

// DisconnectInput closes the active input connection, if any.
func (m *Manager) DisconnectInput() error {
	m.inputMu.Lock()
	entry := m.inputConn
	stop := m.stopListening
	m.inputConn = nil
	m.stopListening = nil
	m.inputMu.Unlock()

	if entry == nil {
		return nil
	}
	if stop != nil {
		stop()
	}
	return entry.port.Close()
}

// ConnectOutput opens the output port named by id and stores it
// behind a dedicated mutex shared with SendMessage and OutputSink so
// that playback and direct sends serialize. It fails if a connection
// already exists or id is unknown.
func (m *Manager) ConnectOutput(id string) error {
	m.mu.Lock()
	entry := findPort(m.availableOutputs, id)
	m.mu.Unlock()
	if entry == nil {
		return fmt.Errorf("device: unknown output port %q", id)
	}

	m.outputMu.Lock()
	defer m.outputMu.Unlock()
	if m.outputConn != nil {
		return fmt.Errorf("device: an output connection is already active")
	}
	if err := entry.port.Open(); err != nil {
		return fmt.Errorf("device: failed to open output port %q: %w", id, err)
	}
	m.outputConn = entry
	return nil
}

// DisconnectOutput closes the active output connection, if any.
func (m *Manager) DisconnectOutput() error {
	m.outputMu.Lock()
	defer m.outputMu.Unlock()

	if m.outputConn == nil {
		return nil
	}
	err := m.outputConn.port.Close()
	m.outputConn = nil
	return err
}

// SendMessage serializes msg and writes it to the active output
// connection. It fails if no output connection exists, and surfaces
// the driver's error verbatim otherwise.
func (m *Manager) SendMessage(msg midimsg.Message) error {
	wire, err := midimsg.Encode(msg)
	if err != nil {
		return err
	}

	m.outputMu.Lock()
	defer m.outputMu.Unlock()
	if m.outputConn == nil {
		return fmt.Errorf("device: no output connection")
	}
	return m.outputConn.port.Send(wire)
}

// OutputSink returns a closure sending raw wire bytes to the active
// output connection, serialized behind the same mutex as SendMessage.
// Its signature matches playback.PlayerFunc so a caller can wire it
// directly into Engine.SetPlayer.
func (m *Manager) OutputSink() func(data []byte) error {
	return func(data []byte) error {
		m.outputMu.Lock()
		defer m.outputMu.Unlock()
		if m.outputConn == nil {
			return fmt.Errorf("device: no output connection")
		}
		return m.outputConn.port.Send(data)
	}
}

// SetFrontendChannel installs the push channel used to forward
// incoming messages, replacing any previous one. A nil channel
// disables forwarding.
func (m *Manager) SetFrontendChannel(ch chan<- midimsg.Timestamped) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frontendChannel = ch
}

// SetRecordingSink installs the callback the input handler feeds every
// decoded message to, independent of and alongside the frontend
// channel. A nil sink disables recording. The callback runs on the
// driver's input thread, so it must not block or take locks that
// could deadlock against it.
func (m *Manager) SetRecordingSink(sink func(midimsg.Timestamped)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordingSink = sink
}
