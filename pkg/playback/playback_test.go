package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rucub100/midirc/pkg/midimsg"
	"github.com/rucub100/midirc/pkg/recorder"
	"github.com/rucub100/midirc/pkg/smf"
)

func noteOn(t uint64, note uint8) midimsg.Timestamped {
	msg, _ := midimsg.NewNoteOn(midimsg.Channel1, note, 100)
	return midimsg.Timestamped{TimestampMicros: t, Message: msg}
}

type capturingPlayer struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *capturingPlayer) play(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := append([]byte{}, data...)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *capturingPlayer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestEngine_SetPlayerFailsWhilePlaying(t *testing.T) {
	e := New()
	p := &capturingPlayer{}
	if err := e.SetPlayer(p.play); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}

	rec := recorder.Take{Messages: []midimsg.Timestamped{noteOn(0, 60), noteOn(200_000, 62)}}
	if err := e.Play(rec, TrackInfo{Kind: TrackFromRecording, Index: 0}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	defer e.Stop()

	if err := e.SetPlayer(p.play); err == nil {
		t.Error("expected error setting player while playing")
	}
}

func TestEngine_PlayEmptyRecordingFails(t *testing.T) {
	e := New()
	if err := e.SetPlayer(func([]byte) error { return nil }); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}
	if err := e.Play(recorder.Take{}, TrackInfo{}); err == nil {
		t.Error("expected error playing empty recording")
	}
}

func TestEngine_PlayWithoutPlayerFails(t *testing.T) {
	e := New()
	rec := recorder.Take{Messages: []midimsg.Timestamped{noteOn(0, 60)}}
	if err := e.Play(rec, TrackInfo{}); err == nil {
		t.Error("expected error playing without a player set")
	}
}

func TestEngine_PlayRunsToCompletion(t *testing.T) {
	e := New()
	p := &capturingPlayer{}
	if err := e.SetPlayer(p.play); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}

	rec := recorder.Take{Messages: []midimsg.Timestamped{
		noteOn(0, 60),
		noteOn(1_000, 62),
		noteOn(2_000, 64),
	}}
	if err := e.Play(rec, TrackInfo{Kind: TrackFromRecording, Index: 2}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.State() != Stopped && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if e.State() != Stopped {
		t.Fatalf("engine did not return to Stopped")
	}
	if p.count() != 3 {
		t.Errorf("player received %d messages, want 3", p.count())
	}
	if e.Position() != 0 {
		t.Errorf("position after natural stop = %d, want 0", e.Position())
	}
}

func TestEngine_PauseResume(t *testing.T) {
	e := New()
	p := &capturingPlayer{}
	if err := e.SetPlayer(p.play); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}

	rec := recorder.Take{Messages: []midimsg.Timestamped{
		noteOn(0, 60),
		noteOn(500_000, 62),
	}}
	if err := e.Play(rec, TrackInfo{}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	defer e.Stop()

	time.Sleep(20 * time.Millisecond)
	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if e.State() != Paused {
		t.Fatalf("state = %v, want Paused", e.State())
	}

	if err := e.Pause(); err == nil {
		t.Error("expected error pausing an already-paused engine")
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if e.State() != Playing {
		t.Fatalf("state = %v, want Playing", e.State())
	}
}

func TestEngine_StopEmitsSilence(t *testing.T) {
	e := New()
	p := &capturingPlayer{}
	if err := e.SetPlayer(p.play); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}

	rec := recorder.Take{Messages: []midimsg.Timestamped{
		noteOn(0, 60),
		noteOn(5_000_000, 62),
	}}
	if err := e.Play(rec, TrackInfo{}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if e.State() != Stopped {
		t.Fatalf("state = %v, want Stopped", e.State())
	}
	if p.count() < 2 {
		t.Fatalf("expected at least the silence pair to be sent, got %d messages", p.count())
	}
}

func TestEngine_PauseFailsWhenStopped(t *testing.T) {
	e := New()
	if err := e.Pause(); err == nil {
		t.Error("expected error pausing a stopped engine")
	}
}

func TestEngine_ResumeFailsWhenNotPaused(t *testing.T) {
	e := New()
	if err := e.Resume(); err == nil {
		t.Error("expected error resuming a non-paused engine")
	}
}

func TestBuildFromFileTrack_CarriesSkippedDelta(t *testing.T) {
	msg, _ := midimsg.NewNoteOn(midimsg.Channel1, 60, 100)
	division := smf.TicksPerQuarterNote{PPQ: 96}
	track := smf.Track{
		{Delta: 100, Event: smf.TimeSignature{Numerator: 4, DenominatorPowerOfTwo: 2}},
		{Delta: 50, Event: smf.MidiEvent{Message: msg}},
	}

	events := buildFromFileTrack(track, division)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	want := smf.DeltaMicroseconds(150, fixedTempo, division)
	if events[0].deltaMicros != want {
		t.Errorf("deltaMicros = %d, want %d (100+50 ticks, not just 50)", events[0].deltaMicros, want)
	}
}

func TestEngine_LoadAndPlayFileTrack(t *testing.T) {
	e := New()
	p := &capturingPlayer{}
	if err := e.SetPlayer(p.play); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}

	msg, _ := midimsg.NewNoteOn(midimsg.Channel1, 60, 100)
	file := smf.File{
		Header: smf.SingleMultiChannelTrackHeader(),
		Tracks: []smf.Track{
			{
				{Delta: 0, Event: smf.MidiEvent{Message: msg}},
				{Delta: 0, Event: smf.EndOfTrack{}},
			},
		},
	}

	if err := e.LoadTrack(file); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := e.PlayTrack(0); err != nil {
		t.Fatalf("PlayTrack: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.State() != Stopped && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.count() != 1 {
		t.Errorf("player received %d messages, want 1 (EndOfTrack is not a MIDI event)", p.count())
	}

	if err := e.PlayTrack(5); err == nil {
		t.Error("expected error playing an out-of-range track index")
	}

	if err := e.EjectTrack(0); err != nil {
		t.Fatalf("EjectTrack: %v", err)
	}
	if err := e.EjectTrack(0); err == nil {
		t.Error("expected error ejecting an already-removed track")
	}
}

func TestEngine_PlayerErrorStopsScheduler(t *testing.T) {
	e := New()
	var calls int
	var mu sync.Mutex
	if err := e.SetPlayer(func([]byte) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("sink closed")
	}); err != nil {
		t.Fatalf("SetPlayer: %v", err)
	}

	rec := recorder.Take{Messages: []midimsg.Timestamped{noteOn(0, 60), noteOn(1_000, 62)}}
	if err := e.Play(rec, TrackInfo{}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.State() != Stopped && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if e.State() != Stopped {
		t.Fatal("engine did not stop after player error")
	}
}
