package tts

import (
	"context"
	"log"
)

// StreamClient produces synthesized PCM audio for a piece of text.
type StreamClient interface {
	StreamPCM(ctx context.Context, text string) (<-chan []byte, <-chan error)
}

// PCMSink consumes PCM bytes and performs delivery to the playback device.
// Implementations buffer internally and serialize device writes.
type PCMSink interface {
	WritePCM(pcm []byte)
	FlushTail()
}

// Speaker is the speech output path: it normalizes text for pronunciation,
// requests audio from the synthesis provider and plays it on the sink.
// Serialization across utterances is the session's job; the sink's internal
// queue guards against overlapping device writes if calls do overlap.
type Speaker struct {
	Client StreamClient
	Sink   PCMSink
	// Muted is consulted at call time; when it reports true the whole
	// operation is a no-op.
	Muted func() bool
}

// Speak synthesizes and plays one utterance.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if s.Client == nil || text == "" {
		return nil
	}
	if s.Muted != nil && s.Muted() {
		log.Printf("tts: muted, suppressing speech: %q", text)
		return nil
	}

	text = ExpandAbbreviations(text)
	pcmCh, errCh := s.Client.StreamPCM(ctx, text)

	var streamErr error
	openPCM, openErr := true, true
	for openPCM || openErr {
		select {
		case b, ok := <-pcmCh:
			if !ok {
				openPCM = false
				continue
			}
			if len(b) > 0 && s.Sink != nil {
				s.Sink.WritePCM(b)
			}
		case e, ok := <-errCh:
			if !ok {
				openErr = false
				continue
			}
			if e != nil {
				streamErr = e
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if streamErr != nil {
		return streamErr
	}
	if s.Sink != nil {
		s.Sink.FlushTail()
	}
	return nil
}
