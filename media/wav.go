package media

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid wav file")

// Waveform is interleaved integer PCM.
type Waveform struct {
	Data       []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frames is the number of samples per channel.
func (w Waveform) Frames() int {
	if w.Channels <= 0 {
		return 0
	}
	return len(w.Data) / w.Channels
}

func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(w.Frames()) / float64(w.SampleRate)
}

// Segment is a window of a Waveform with its start offset in seconds.
type Segment struct {
	Start float64
	Wave  Waveform
}

func ReadWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Waveform{}, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("wav decode %s: %w", path, err)
	}
	return Waveform{
		Data:       buf.Data,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}, nil
}

func WriteWAV(path string, w Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, w.SampleRate, w.BitDepth, w.Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate},
		Data:           w.Data,
		SourceBitDepth: w.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("wav encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("wav encode %s: %w", path, err)
	}
	return f.Close()
}

// Segments cuts segmentSeconds-long windows every stepSeconds, dropping a
// trailing partial window. A clip shorter than one window is returned whole.
func Segments(w Waveform, segmentSeconds, stepSeconds int) []Segment {
	total := w.Frames()
	if total == 0 || segmentSeconds <= 0 || stepSeconds <= 0 {
		return nil
	}
	segLen := segmentSeconds * w.SampleRate
	stepLen := stepSeconds * w.SampleRate

	if total < segLen {
		return []Segment{{Start: 0, Wave: w}}
	}

	var out []Segment
	for start := 0; start+segLen <= total; start += stepLen {
		lo, hi := start*w.Channels, (start+segLen)*w.Channels
		out = append(out, Segment{
			Start: float64(start) / float64(w.SampleRate),
			Wave: Waveform{
				Data:       w.Data[lo:hi],
				SampleRate: w.SampleRate,
				Channels:   w.Channels,
				BitDepth:   w.BitDepth,
			},
		})
	}
	return out
}
