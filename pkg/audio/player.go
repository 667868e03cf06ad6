package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/borgmon/nudge/pkg/models"
)

// Process-wide audio context. oto allows only one per process.
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	globalAudioReady   chan struct{}
	globalAudioErr     error
)

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// initAudioContext creates the global audio context on first use and waits
// for the device to become ready, or for ctx to end.
func initAudioContext(ctx context.Context, format *wavFormat) error {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		c, ready, err := oto.NewContext(op)
		if err != nil {
			globalAudioErr = fmt.Errorf("initializing audio context: %w", err)
			return
		}
		globalAudioCtx = c
		globalAudioReady = ready
	})

	if globalAudioErr != nil {
		return globalAudioErr
	}

	select {
	case <-globalAudioReady:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for audio device: %w", ctx.Err())
	}
}

// Cue plays the alarm sound. Only one playback runs at a time; starting a new
// one stops the previous.
type Cue struct {
	wav []byte
	cfg models.SoundConfig
	now func() time.Time

	mu      sync.Mutex
	current *player
}

// NewCue creates a Cue for the given WAV data.
func NewCue(wav []byte, cfg models.SoundConfig) *Cue {
	return &Cue{wav: wav, cfg: cfg, now: time.Now}
}

// Play starts the sound and returns once it is playing. Errors cover bad WAV
// data and audio devices that fail to come up. A disabled cue, or one inside
// quiet hours, returns nil without playing.
func (c *Cue) Play(ctx context.Context) error {
	if !c.cfg.Enabled {
		log.Println("[AUDIO] Sound disabled, skipping")
		return nil
	}
	if c.cfg.IsTimeInQuietTime(c.now()) {
		log.Println("[AUDIO] Quiet hours, skipping sound")
		return nil
	}

	format, data, err := parseWAV(c.wav)
	if err != nil {
		return fmt.Errorf("parsing alarm sound: %w", err)
	}
	if err := initAudioContext(ctx, format); err != nil {
		return err
	}

	p := &player{stopChan: make(chan struct{})}

	c.mu.Lock()
	prev := c.current
	c.current = p
	c.mu.Unlock()
	prev.stop()

	go p.playLoop(data, c.cfg.Repeat)
	return nil
}

// Stop stops the current playback, if any.
func (c *Cue) Stop() {
	c.mu.Lock()
	p := c.current
	c.current = nil
	c.mu.Unlock()
	p.stop()
}

// player is one playback run with cancellation support
type player struct {
	stopChan chan struct{}
	once     sync.Once
}

// playLoop plays the sound repeat times, or until stopped when repeat is 0.
func (p *player) playLoop(audioData []byte, repeat int) {
	for i := 0; repeat <= 0 || i < repeat; i++ {
		op := globalAudioCtx.NewPlayer(bytes.NewReader(audioData))
		op.Play()

		for op.IsPlaying() {
			select {
			case <-p.stopChan:
				op.Pause()
				op.Close()
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := op.Close(); err != nil {
			log.Printf("[AUDIO] Failed to close audio player: %v", err)
		}

		select {
		case <-p.stopChan:
			return
		default:
		}
	}
}

func (p *player) stop() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		close(p.stopChan)
		log.Println("[AUDIO] Playback stopped")
	})
}

var (
	errNotWAV      = errors.New("not a RIFF/WAVE file")
	errNoFormat    = errors.New("missing fmt chunk")
	errNoData      = errors.New("missing data chunk")
	errUnsupported = errors.New("only 16-bit PCM is supported")
)

// parseWAV parses a WAV file and returns the format and audio data
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, nil, errNotWAV
	}

	reader := bytes.NewReader(data[12:])
	var format *wavFormat

	for {
		var header struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, errNoData
			}
			return nil, nil, fmt.Errorf("reading chunk header: %w", err)
		}

		switch string(header.ID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if header.Size < 16 {
				return nil, nil, fmt.Errorf("fmt chunk too short: %d bytes", header.Size)
			}
			if err := binary.Read(reader, binary.LittleEndian, &fmtChunk); err != nil {
				return nil, nil, fmt.Errorf("reading fmt chunk: %w", err)
			}
			if fmtChunk.AudioFormat != 1 || fmtChunk.BitsPerSample != 16 {
				return nil, nil, errUnsupported
			}
			format = &wavFormat{
				SampleRate: int(fmtChunk.SampleRate),
				Channels:   int(fmtChunk.Channels),
				BitDepth:   int(fmtChunk.BitsPerSample),
			}
			// Skip any extra format bytes
			if extra := int64(header.Size) - 16; extra > 0 {
				if _, err := reader.Seek(extra+int64(header.Size%2), io.SeekCurrent); err != nil {
					return nil, nil, err
				}
			}
		case "data":
			if format == nil {
				return nil, nil, errNoFormat
			}
			size := int(header.Size)
			if size > reader.Len() {
				size = reader.Len()
			}
			audio := make([]byte, size)
			if _, err := io.ReadFull(reader, audio); err != nil {
				return nil, nil, fmt.Errorf("reading data chunk: %w", err)
			}
			return format, audio, nil
		default:
			// Chunks are word aligned
			skip := int64(header.Size) + int64(header.Size%2)
			if _, err := reader.Seek(skip, io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		}
	}
}
