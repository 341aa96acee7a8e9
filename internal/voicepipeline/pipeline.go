// Package voicepipeline defines the VoicePipeline collaborator (spec.md
// §6): real-time voice I/O (microphone capture, STT, TTS synthesis, echo
// cancellation), out of scope for this repo. The Controller Adapter only
// needs a narrow Pipeline capability to enqueue TTS speech for
// say_to_caller and to know whether one is attached at all.
package voicepipeline

import "context"

// Pipeline is the capability required to speak text to the caller.
type Pipeline interface {
	// Speak enqueues text for synthesis and playback. The call is expected
	// to return once playback has been requested, not once it has
	// finished; callers that want completion should wait on the returned
	// channel.
	Speak(ctx context.Context, text string) <-chan error
}

// none is the sentinel "no VoicePipeline attached" value. The Controller
// Adapter compares against it (or a nil Pipeline) to produce say_to_caller's
// ToolError when no speech backend is configured.
type none struct{}

func (none) Speak(ctx context.Context, text string) <-chan error {
	ch := make(chan error, 1)
	ch <- errNotConfigured
	return ch
}

var errNotConfigured = errNotConfiguredErr("voice pipeline not configured")

type errNotConfiguredErr string

func (e errNotConfiguredErr) Error() string { return string(e) }

// None is a Pipeline that always fails, used as the explicit "nothing
// attached" value so callers can hold a non-nil Pipeline uniformly.
var None Pipeline = none{}
