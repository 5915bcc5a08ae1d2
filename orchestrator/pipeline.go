package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/interview-coach/behavior-pipeline/clients"
	cfg "github.com/interview-coach/behavior-pipeline/config"
	"github.com/interview-coach/behavior-pipeline/logger"
	"github.com/interview-coach/behavior-pipeline/media"
	"github.com/interview-coach/behavior-pipeline/scoring"
)

type Pipeline struct {
	cfg    *cfg.Root
	http   *clients.HTTP
	audio  media.AudioExtractor
	frames media.FrameExtractor
	log    *logrus.Logger
	locale scoring.Locale
	now    func() time.Time
}

type Option func(*Pipeline)

func WithHTTP(h *clients.HTTP) Option { return func(p *Pipeline) { p.http = h } }

func WithAudioExtractor(a media.AudioExtractor) Option { return func(p *Pipeline) { p.audio = a } }

func WithFrameExtractor(f media.FrameExtractor) Option { return func(p *Pipeline) { p.frames = f } }

func WithLogger(l *logrus.Logger) Option { return func(p *Pipeline) { p.log = l } }

func NewPipeline(c *cfg.Root, opts ...Option) *Pipeline {
	ff := media.NewExecutor(c.FFmpeg.Binary, c.Audio.SampleRate, c.Audio.Channels, c.Audio.Codec)
	locale, err := scoring.ParseLocale(c.Output.Locale)
	if err != nil {
		locale = scoring.Chinese
	}
	p := &Pipeline{
		cfg:    c,
		http:   clients.NewHTTP(),
		audio:  ff,
		frames: ff,
		log:    logger.Discard(),
		locale: locale,
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run dispatches to the pipeline of the given modality.
func (p *Pipeline) Run(ctx context.Context, m Modality, path string) (*Result, error) {
	switch m {
	case ModalityVocal:
		return p.RunVocal(ctx, path)
	case ModalityFacial:
		return p.RunFacial(ctx, path)
	case ModalityPosture:
		return p.RunPosture(ctx, path)
	case ModalityAll:
		return p.RunAll(ctx, path)
	default:
		return nil, fmt.Errorf("unknown modality %q", m)
	}
}

// RunAll runs vocal, facial and posture in that order and joins the verdicts.
func (p *Pipeline) RunAll(ctx context.Context, path string) (*Result, error) {
	if err := checkInput(path); err != nil {
		return nil, err
	}
	res := p.newResult(ModalityAll, path)

	for _, run := range []func(context.Context, string) (*Result, error){p.runVocal, p.runFacial, p.runPosture} {
		r, err := run(ctx, path)
		if err != nil {
			return nil, err
		}
		res.Verdict += r.Verdict
		if r.Vocal != nil {
			res.Vocal = r.Vocal
		}
		if r.Facial != nil {
			res.Facial = r.Facial
		}
		if r.Posture != nil {
			res.Posture = r.Posture
		}
	}
	return p.finish(res)
}

func (p *Pipeline) newResult(m Modality, path string) *Result {
	return &Result{
		RunID:     uuid.NewString(),
		Modality:  m,
		Input:     path,
		StartedAt: p.now(),
	}
}

func (p *Pipeline) entry(res *Result) *logrus.Entry {
	return p.log.WithFields(logrus.Fields{"run_id": res.RunID, "modality": res.Modality})
}

func (p *Pipeline) finish(res *Result) (*Result, error) {
	res.FinishedAt = p.now()
	p.entry(res).WithField("elapsed", res.FinishedAt.Sub(res.StartedAt).String()).Info("verdict ready")
	if p.cfg.Output.Report {
		path, err := persist(p.cfg.Paths.Outputs, res)
		if err != nil {
			return nil, fmt.Errorf("persist report: %w", err)
		}
		p.entry(res).WithField("report", path).Info("report written")
	}
	return res, nil
}

// serviceCtx bounds one model call by the service's configured timeout.
func serviceCtx(ctx context.Context, s cfg.Service) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.DurSeconds(s.Timeout))
}

func checkInput(path string) error {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return nil
}

// workDir creates a scratch directory under paths.work.
func (p *Pipeline) workDir(pattern string) (string, error) {
	root := p.cfg.Paths.Work
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(root, pattern)
}
