// Package audio drives the virtual PulseAudio devices the meeting browser is
// wired to: capture reads what the meeting participants say, playback feeds
// the bot's voice into the meeting microphone.
package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
)

// Capture reads s16le mono PCM from a named capture device via a parec
// subprocess and forwards it in ~100ms chunks.
type Capture struct {
	device string
	rate   int
	chunks chan []byte
	cmd    *exec.Cmd
}

func NewCapture(device string, rate int) *Capture {
	return &Capture{
		device: device,
		rate:   rate,
		chunks: make(chan []byte, 100),
	}
}

// Chunks returns the channel carrying captured PCM. It is closed when the
// capture subprocess exits.
func (c *Capture) Chunks() <-chan []byte { return c.chunks }

// Start launches the capture subprocess and begins forwarding audio.
func (c *Capture) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "parec",
		"--device="+c.device,
		fmt.Sprintf("--rate=%d", c.rate),
		"--channels=1",
		"--format=s16le",
		"--raw",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start capture on %s: %w", c.device, err)
	}
	c.cmd = cmd
	log.Printf("audio: capturing from %s at %d Hz", c.device, c.rate)

	chunkBytes := c.rate / 10 * 2 // 100ms of s16le mono
	go func() {
		defer close(c.chunks)
		buf := make([]byte, chunkBytes)
		for {
			n, rerr := io.ReadFull(stdout, buf)
			if n > 0 {
				out := make([]byte, n)
				copy(out, buf[:n])
				select {
				case c.chunks <- out:
				default:
					log.Println("audio: capture backlog full, dropping chunk")
				}
			}
			if rerr != nil {
				if rerr != io.EOF && rerr != io.ErrUnexpectedEOF && ctx.Err() == nil {
					log.Printf("audio: capture read: %v", rerr)
				}
				return
			}
		}
	}()
	return nil
}

// Close stops the capture subprocess.
func (c *Capture) Close() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	_ = c.cmd.Process.Kill()
	return c.cmd.Wait()
}
