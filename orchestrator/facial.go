package orchestrator

import (
	"context"

	"github.com/interview-coach/behavior-pipeline/clients"
	"github.com/interview-coach/behavior-pipeline/scoring"
)

// RunFacial scores facial action units. Detector failures and videos with
// no usable face yield the fixed low-score verdict rather than an error.
// Cancellation of ctx is returned as an error.
func (p *Pipeline) RunFacial(ctx context.Context, path string) (*Result, error) {
	if err := checkInput(path); err != nil {
		return nil, err
	}
	res, err := p.runFacial(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.finish(res)
}

func (p *Pipeline) runFacial(ctx context.Context, path string) (*Result, error) {
	res := p.newResult(ModalityFacial, path)
	log := p.entry(res)
	lowPitch := p.cfg.Video.LowPitchDegree

	svc := p.cfg.Services.FaceAU
	sctx, cancel := serviceCtx(ctx, svc)
	defer cancel()
	resp, err := p.http.FaceAU(sctx, svc.URL, path, clients.FaceOptions{
		SkipFrames:    p.cfg.Video.SkipFrames,
		FaceThreshold: p.cfg.Video.FaceThreshold,
		BatchSize:     p.cfg.Video.BatchSize,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("face detector failed, using fallback scores")
		return p.facialFallback(res), nil
	}

	f, ok := p.aggregateFacial(resp.Frames)
	if !ok {
		log.WithField("frames", len(resp.Frames)).Warn("no face detected, using fallback scores")
		return p.facialFallback(res), nil
	}
	log.WithField("pitch", f.Pitch).WithField("frames", f.Frames).Debug("facial aggregates")

	res.Facial = &f
	res.Verdict = scoring.FacialVerdict(f, lowPitch, p.locale)
	return res, nil
}

func (p *Pipeline) facialFallback(res *Result) *Result {
	f := scoring.FallbackFacial()
	res.Facial = &f
	res.Verdict = scoring.FacialFallbackVerdict(p.locale)
	return res
}
