package voice

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// defaultLatencyGuard is the small offset added ahead of "now" when the
// cursor has fallen behind, absorbing scheduling jitter without audible
// gaps.
const defaultLatencyGuard = 50 * time.Millisecond

// Chunk is one scheduled audio segment.
type Chunk struct {
	// Samples are the decoded PCM samples normalized to [-1, 1].
	Samples []float32

	// StartAt is the wall-clock time the chunk should begin playing.
	StartAt time.Time

	// Duration is the playback length of the chunk.
	Duration time.Duration
}

// Base64 re-encodes the chunk's samples as base64 PCM16LE, the format the
// kiosk UI feeds to its audio element.
func (c Chunk) Base64() string {
	raw := make([]byte, len(c.Samples)*2)
	for i, f := range c.Samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		s := int16(f * 32767)
		raw[2*i] = byte(s)
		raw[2*i+1] = byte(s >> 8)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// Playback schedules decoded audio chunks back-to-back with no gaps.
//
// Chunk N+1 starts at max(now+guard, end of chunk N), so bursts of chunks
// play as one continuous utterance. The set of in-flight chunks is tracked
// so the done callback fires exactly once, after the last-finishing chunk
// completes, rather than once per chunk.
type Playback struct {
	cfg   AudioConfig
	guard time.Duration
	now   func() time.Time

	onChunk func(Chunk)
	onDone  func()

	mu      sync.Mutex
	nextAt  time.Time
	active  map[int]*time.Timer
	nextID  int
	started bool
}

// PlaybackOption configures a Playback.
type PlaybackOption func(*Playback)

// WithChunkSink registers fn to receive each scheduled chunk. The gateway
// relay uses this to forward audio to the browser with its start time.
func WithChunkSink(fn func(Chunk)) PlaybackOption {
	return func(p *Playback) { p.onChunk = fn }
}

// WithDoneFunc registers fn to run when every scheduled chunk has finished
// playing. It also runs when StopAll halts active playback, so a speaking
// indicator driven by it always clears.
func WithDoneFunc(fn func()) PlaybackOption {
	return func(p *Playback) { p.onDone = fn }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) PlaybackOption {
	return func(p *Playback) { p.now = now }
}

// WithLatencyGuard overrides the scheduling guard interval.
func WithLatencyGuard(d time.Duration) PlaybackOption {
	return func(p *Playback) { p.guard = d }
}

// NewPlayback creates a scheduler for the given audio format.
func NewPlayback(cfg AudioConfig, opts ...PlaybackOption) *Playback {
	p := &Playback{
		cfg:    cfg,
		guard:  defaultLatencyGuard,
		now:    time.Now,
		active: make(map[int]*time.Timer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DecodePCM16 decodes base64-encoded little-endian 16-bit PCM into
// float32 samples normalized to [-1, 1]. A trailing odd byte is ignored.
func DecodePCM16(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode audio chunk: %w", err)
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(raw[2*i]) | int16(raw[2*i+1])<<8
		samples[i] = float32(s) / 32768
	}
	return samples, nil
}

// ScheduleChunk decodes a base64 PCM16LE chunk and schedules it at the
// current cursor. The first chunk lazily starts the playback context.
func (p *Playback) ScheduleChunk(b64 string) (Chunk, error) {
	samples, err := DecodePCM16(b64)
	if err != nil {
		return Chunk{}, err
	}

	p.mu.Lock()
	if !p.started {
		// Lazily (re)open the output context; the cursor starts fresh.
		p.started = true
		p.nextAt = time.Time{}
	}

	dur := p.cfg.Duration(len(samples) * 2)
	startAt := p.now().Add(p.guard)
	if p.nextAt.After(startAt) {
		startAt = p.nextAt
	}
	p.nextAt = startAt.Add(dur)

	chunk := Chunk{Samples: samples, StartAt: startAt, Duration: dur}

	id := p.nextID
	p.nextID++
	p.active[id] = time.AfterFunc(p.nextAt.Sub(p.now()), func() {
		p.finish(id)
	})
	onChunk := p.onChunk
	p.mu.Unlock()

	if onChunk != nil {
		onChunk(chunk)
	}
	return chunk, nil
}

// finish removes a completed chunk and fires done when it was the last one.
func (p *Playback) finish(id int) {
	p.mu.Lock()
	if _, ok := p.active[id]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, id)
	fireDone := len(p.active) == 0
	onDone := p.onDone
	p.mu.Unlock()

	if fireDone && onDone != nil {
		onDone()
	}
}

// StopAll forcibly halts every active chunk and resets the scheduling
// cursor, so the next chunk starts at approximately the current time.
// Already-finished chunks are tolerated. Used for barge-in.
func (p *Playback) StopAll() {
	p.mu.Lock()
	hadActive := len(p.active) > 0
	for id, t := range p.active {
		t.Stop()
		delete(p.active, id)
	}
	p.nextAt = time.Time{}
	onDone := p.onDone
	p.mu.Unlock()

	if hadActive && onDone != nil {
		onDone()
	}
}

// Playing reports whether any scheduled chunk has not yet finished.
func (p *Playback) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active) > 0
}

// Close stops all playback and releases the output context. A later
// ScheduleChunk reopens it lazily, so a reconnected session starts clean.
func (p *Playback) Close() error {
	p.StopAll()
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
	return nil
}
