package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/interview-coach/behavior-pipeline/scoring"
)

// RunPosture scores body language from shoulder sway and wrist movement on
// a sub-sample of the video frames.
func (p *Pipeline) RunPosture(ctx context.Context, path string) (*Result, error) {
	if err := checkInput(path); err != nil {
		return nil, err
	}
	res, err := p.runPosture(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.finish(res)
}

func (p *Pipeline) runPosture(ctx context.Context, path string) (*Result, error) {
	res := p.newResult(ModalityPosture, path)
	log := p.entry(res)

	dir, err := p.workDir("posture-*")
	if err != nil {
		return nil, fmt.Errorf("work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	frames, err := p.frames.ExtractFrames(ctx, path, dir, p.cfg.Video.FrameInterval)
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}
	log.WithField("frames", len(frames)).Debug("frames extracted")

	svc := p.cfg.Services.Pose
	var shoulders, wrists []Point
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sctx, cancel := serviceCtx(ctx, svc)
		resp, err := p.http.PoseLandmarks(sctx, svc.URL, frame)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("frame %s: %w", frame, err)
		}
		s, w, ok := track(resp.Landmarks)
		if !ok {
			continue
		}
		shoulders = append(shoulders, s)
		wrists = append(wrists, w)
	}

	posture, err := p.aggregatePosture(shoulders, wrists)
	if err != nil {
		return nil, err
	}
	log.WithField("shoulder_var", posture.ShoulderVariance).WithField("wrist_movement", posture.WristMovement).Debug("posture aggregates")

	res.Posture = &posture
	res.Verdict = scoring.PostureVerdict(posture, p.locale)
	return res, nil
}
