package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
)

// Playback writes s16le mono PCM to a named playback device via a pacat
// subprocess. A single writer goroutine drains the frame queue, so device
// writes never overlap even if producers do.
type Playback struct {
	device string
	rate   int

	frames chan []byte
	stopCh chan struct{}

	mu      sync.Mutex
	stdin   io.WriteCloser
	cmd     *exec.Cmd
	stopped bool
}

func NewPlayback(device string, rate int) *Playback {
	return &Playback{
		device: device,
		rate:   rate,
		frames: make(chan []byte, 512),
		stopCh: make(chan struct{}),
	}
}

// Start launches the playback subprocess and the writer loop.
func (p *Playback) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "pacat",
		"--device="+p.device,
		fmt.Sprintf("--rate=%d", p.rate),
		"--channels=1",
		"--format=s16le",
		"--raw",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start playback on %s: %w", p.device, err)
	}
	p.mu.Lock()
	p.cmd = cmd
	p.stdin = stdin
	p.mu.Unlock()
	log.Printf("audio: playing to %s at %d Hz", p.device, p.rate)

	go p.writer()
	return nil
}

// WritePCM queues PCM for playback. When the queue is full the chunk is
// dropped; blocking the producer would stall the session loop.
func (p *Playback) WritePCM(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	out := make([]byte, len(pcm))
	copy(out, pcm)
	select {
	case p.frames <- out:
	default:
		log.Println("audio: playback backlog full, dropping chunk")
	}
}

// FlushTail appends a short silence tail so the device does not clip the
// end of an utterance.
func (p *Playback) FlushTail() {
	silence := make([]byte, p.rate/5*2) // 200ms
	select {
	case p.frames <- silence:
	default:
	}
}

// Reset drops any queued frames immediately.
func (p *Playback) Reset() {
	for {
		select {
		case <-p.frames:
		default:
			return
		}
	}
}

// Close stops the writer and the playback subprocess.
func (p *Playback) Close() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	stdin, cmd := p.stdin, p.cmd
	p.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		return cmd.Wait()
	}
	return nil
}

func (p *Playback) writer() {
	for {
		select {
		case <-p.stopCh:
			return
		case frame := <-p.frames:
			p.mu.Lock()
			stdin := p.stdin
			p.mu.Unlock()
			if stdin == nil {
				return
			}
			if _, err := stdin.Write(frame); err != nil {
				select {
				case <-p.stopCh:
				default:
					log.Printf("audio: playback write: %v", err)
				}
				return
			}
		}
	}
}
