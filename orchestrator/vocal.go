package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/interview-coach/behavior-pipeline/media"
	"github.com/interview-coach/behavior-pipeline/scoring"
)

// RunVocal scores vocal tone: the audio track is cut into windows and each
// window is classified by the speech emotion model.
func (p *Pipeline) RunVocal(ctx context.Context, path string) (*Result, error) {
	if err := checkInput(path); err != nil {
		return nil, err
	}
	res, err := p.runVocal(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.finish(res)
}

func (p *Pipeline) runVocal(ctx context.Context, path string) (*Result, error) {
	res := p.newResult(ModalityVocal, path)
	log := p.entry(res)

	dir, err := p.workDir("vocal-*")
	if err != nil {
		return nil, fmt.Errorf("work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "extracted.wav")
	if err := p.audio.ExtractAudio(ctx, path, wavPath); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	wave, err := media.ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}

	segs := media.Segments(wave, p.cfg.Audio.SegmentSeconds, p.cfg.Audio.StepSeconds)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSegments, path)
	}
	log.WithField("duration", wave.Duration()).WithField("segments", len(segs)).Debug("audio segmented")

	svc := p.cfg.Services.SpeechEmotion
	scores := map[string][]float64{}
	for i, seg := range segs {
		segPath := filepath.Join(dir, fmt.Sprintf("segment_%03d.wav", i))
		if err := media.WriteWAV(segPath, seg.Wave); err != nil {
			return nil, err
		}

		sctx, cancel := serviceCtx(ctx, svc)
		out, err := p.http.SpeechEmotion(sctx, svc.URL, segPath)
		cancel()
		_ = os.Remove(segPath)
		if err != nil {
			return nil, fmt.Errorf("segment at %.0fs: %w", seg.Start, err)
		}
		for _, ls := range out {
			scores[ls.Label] = append(scores[ls.Label], ls.Score)
		}
		log.WithField("start", seg.Start).WithField("scores", out).Debug("segment classified")
	}

	v, err := p.aggregateVocal(scores, len(segs))
	if err != nil {
		return nil, err
	}
	res.Vocal = &v
	res.Verdict = scoring.VocalVerdict(v, p.locale)
	return res, nil
}
