package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// AudioExtractor decodes the audio track of a media file into a PCM WAV.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, in, out string) error
}

// FrameExtractor writes every interval-th frame of a video as a jpeg.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, outputDir string, interval int) ([]string, error)
}

// Executor runs the ffmpeg binary.
type Executor struct {
	Binary     string
	SampleRate int
	Channels   int
	Codec      string
}

func NewExecutor(binary string, sampleRate, channels int, codec string) *Executor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Executor{Binary: binary, SampleRate: sampleRate, Channels: channels, Codec: codec}
}

func (e *Executor) AudioArgs(in, out string) []string {
	return []string{
		"-i", in,
		"-ac", strconv.Itoa(e.Channels),
		"-ar", strconv.Itoa(e.SampleRate),
		"-acodec", e.Codec,
		"-vn",
		"-y",
		out,
	}
}

// FrameArgs keeps frames interval, 2*interval, ... counting from one.
func (e *Executor) FrameArgs(in, outputDir string, interval int) []string {
	return []string{
		"-i", in,
		"-vf", fmt.Sprintf(`select=eq(mod(n+1\,%d)\,0)`, interval),
		"-vsync", "vfr",
		"-q:v", "2",
		"-y",
		filepath.Join(outputDir, "frame_%06d.jpg"),
	}
}

func (e *Executor) ExtractAudio(ctx context.Context, in, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create audio directory: %w", err)
	}
	return e.run(ctx, e.AudioArgs(in, out))
}

func (e *Executor) ExtractFrames(ctx context.Context, videoPath, outputDir string, interval int) ([]string, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("frame interval must be positive, got %d", interval)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory '%s': %w", outputDir, err)
	}
	if err := e.run(ctx, e.FrameArgs(videoPath, outputDir, interval)); err != nil {
		return nil, err
	}
	return ListFrames(outputDir)
}

// ListFrames returns the jpeg files of dir in name order.
func ListFrames(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory '%s': %w", dir, err)
	}
	var frames []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(strings.ToLower(f.Name()), ".jpg") {
			frames = append(frames, filepath.Join(dir, f.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

func (e *Executor) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
