// Package reconciler applies server-pushed playback state to a local
// playback device without echoing the device's own reactions back to the
// server as if they were user gestures.
package reconciler

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DriftThreshold is the largest local/remote position gap, in seconds,
	// left uncorrected. Re-seeking below it trades accuracy nobody notices
	// for jitter everybody does.
	DriftThreshold = 0.5

	// SyncSettleDelay is how long device events stay suppressed after a
	// remote state was applied, long enough for the device to emit the
	// play/pause/seeked events the applied commands cause.
	SyncSettleDelay = 50 * time.Millisecond
)

// Device is the opaque playback surface.
type Device interface {
	Play()
	Pause()
	SeekTo(seconds float64)
	CurrentTime() float64
	SetFullscreen(on bool) error
}

// Controls forwards genuine host gestures to the server.
type Controls interface {
	SendPlay(currentTime float64)
	SendPause(currentTime float64)
	SendSeek(currentTime float64)
}

type Config struct {
	// ConnId is this participant's connection id, compared against
	// host-changed broadcasts to recompute host status.
	ConnId string
	IsHost bool
	// FullscreenPrompt is invoked for viewers when the host toggles
	// fullscreen; platforms demand a direct user gesture, so the consumer
	// shows a one-tap affordance instead of entering programmatically.
	FullscreenPrompt func(on bool)
	// OnClosed is invoked once when the room is gone for good.
	OnClosed func(reason string)
}

type Reconciler struct {
	device   Device
	controls Controls
	clock    clockwork.Clock
	logger   *slog.Logger

	mu               sync.Mutex
	connId           string
	isHost           bool
	syncing          bool
	settleGen        uint64
	settleTimer      clockwork.Timer
	closed           bool
	fullscreenPrompt func(on bool)
	onClosed         func(reason string)
}

func New(device Device, controls Controls, clock clockwork.Clock, logger *slog.Logger, cfg *Config) *Reconciler {
	return &Reconciler{
		device:           device,
		controls:         controls,
		clock:            clock,
		logger:           logger,
		connId:           cfg.ConnId,
		isHost:           cfg.IsHost,
		fullscreenPrompt: cfg.FullscreenPrompt,
		onClosed:         cfg.OnClosed,
	}
}

// beginSync raises suppression and (re)arms the settle timer. The previous
// timer is stopped and a fresh one armed with the current generation, so a
// stale fire racing a new remote event can never clear suppression early.
// Callers hold r.mu.
func (r *Reconciler) beginSync() {
	r.syncing = true
	r.settleGen++
	gen := r.settleGen

	if r.settleTimer != nil {
		r.settleTimer.Stop()
	}

	r.settleTimer = r.clock.AfterFunc(SyncSettleDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.settleGen == gen {
			r.syncing = false
		}
	})
}

// seekIfDrifted corrects the device position only when it has drifted past
// DriftThreshold. Callers hold r.mu.
func (r *Reconciler) seekIfDrifted(remoteTime float64) {
	if math.Abs(r.device.CurrentTime()-remoteTime) > DriftThreshold {
		r.device.SeekTo(remoteTime)
	}
}

func (r *Reconciler) ApplyPlay(remoteTime float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.beginSync()
	r.seekIfDrifted(remoteTime)
	r.device.Play()
}

func (r *Reconciler) ApplyPause(remoteTime float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.beginSync()
	r.seekIfDrifted(remoteTime)
	r.device.Pause()
}

func (r *Reconciler) ApplySeek(remoteTime float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.beginSync()
	r.seekIfDrifted(remoteTime)
}

// ApplyFullscreen is best-effort on both sides of the host split: a denied
// fullscreen request reflects platform gesture policy, not an error worth
// surfacing.
func (r *Reconciler) ApplyFullscreen(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if r.isHost {
		if err := r.device.SetFullscreen(on); err != nil {
			r.logger.Debug("fullscreen request denied", "error", err)
		}
		return
	}

	if r.fullscreenPrompt != nil {
		r.fullscreenPrompt(on)
	}
}

func (r *Reconciler) ApplyHostChanged(newHostId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.isHost = newHostId == r.connId
}

// ApplyRoomClosed puts the reconciler in its terminal state: every later
// server event and device event is ignored.
func (r *Reconciler) ApplyRoomClosed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	if r.settleTimer != nil {
		r.settleTimer.Stop()
	}

	if r.onClosed != nil {
		r.onClosed(reason)
	}
}

// suppressed reports whether a device event must not reach the server:
// either it is the echo of a sync just applied, or this participant is a
// viewer and has no authority to assert.
func (r *Reconciler) suppressed() bool {
	return r.closed || r.syncing || !r.isHost
}

func (r *Reconciler) OnDevicePlay() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed() {
		return
	}

	r.controls.SendPlay(r.device.CurrentTime())
}

func (r *Reconciler) OnDevicePause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed() {
		return
	}

	r.controls.SendPause(r.device.CurrentTime())
}

func (r *Reconciler) OnDeviceSeeked() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed() {
		return
	}

	r.controls.SendSeek(r.device.CurrentTime())
}

// IsHost reports whether this participant currently holds control.
func (r *Reconciler) IsHost() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.isHost
}
