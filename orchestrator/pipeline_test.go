package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/smartystreets/goconvey/convey"

	"github.com/interview-coach/behavior-pipeline/clients"
	cfg "github.com/interview-coach/behavior-pipeline/config"
	"github.com/interview-coach/behavior-pipeline/media"
)

type stubAudio struct{ wave media.Waveform }

func (s stubAudio) ExtractAudio(_ context.Context, _, out string) error {
	return media.WriteWAV(out, s.wave)
}

type stubFrames struct{ n int }

func (s stubFrames) ExtractFrames(_ context.Context, _, dir string, _ int) ([]string, error) {
	for i := 1; i <= s.n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("frame_%06d.jpg", i))
		if err := os.WriteFile(p, []byte{0xff, 0xd8}, 0o644); err != nil {
			return nil, err
		}
	}
	return media.ListFrames(dir)
}

func testConfig(t *testing.T, url string) *cfg.Root {
	c := &cfg.Root{}
	c.FFmpeg.Binary = "ffmpeg"
	c.Audio = cfg.Audio{SampleRate: 100, Channels: 1, Codec: "pcm_s16le", SegmentSeconds: 10, StepSeconds: 60}
	c.Video = cfg.Video{FrameInterval: 5, SkipFrames: 40, FaceThreshold: 0.95, BatchSize: 3, LowPitchDegree: 4}
	c.Services = cfg.Services{
		SpeechEmotion: cfg.Service{URL: url, Timeout: 5},
		FaceAU:        cfg.Service{URL: url, Timeout: 5},
		Pose:          cfg.Service{URL: url, Timeout: 5},
	}
	c.Output.Locale = "zh"
	c.Paths.Work = t.TempDir()
	c.Paths.Outputs = t.TempDir()
	return c
}

func inputFile(t *testing.T) string {
	p := filepath.Join(t.TempDir(), "interview.mp4")
	if err := os.WriteFile(p, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func silence(seconds, rate int) media.Waveform {
	return media.Waveform{Data: make([]int, seconds*rate), SampleRate: rate, Channels: 1, BitDepth: 16}
}

func body(shoulder, wrist clients.Landmark) []clients.Landmark {
	lms := make([]clients.Landmark, 33)
	lms[leftShoulder], lms[rightShoulder] = shoulder, shoulder
	lms[leftWrist], lms[rightWrist] = wrist, wrist
	return lms
}

// modelServer fakes the three model services.
type modelServer struct {
	mu       sync.Mutex
	speech   [][]clients.LabelScore
	calls    int
	face     clients.FaceResp
	faceRaw  string
	faceCode int
	poses    map[string][]clients.Landmark
}

func (m *modelServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch r.URL.Path {
	case "/classify":
		out := m.speech[m.calls%len(m.speech)]
		m.calls++
		_ = jsoniter.NewEncoder(w).Encode(out)
	case "/detect-video":
		if m.faceCode != 0 {
			http.Error(w, "cuda out of memory", m.faceCode)
			return
		}
		if m.faceRaw != "" {
			_, _ = w.Write([]byte(m.faceRaw))
			return
		}
		_ = jsoniter.NewEncoder(w).Encode(m.face)
	case "/pose":
		_, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = jsoniter.NewEncoder(w).Encode(clients.PoseResp{Landmarks: m.poses[hdr.Filename]})
	default:
		http.NotFound(w, r)
	}
}

func (m *modelServer) classified() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func vocalScores(a, v, d float64) []clients.LabelScore {
	return []clients.LabelScore{{Label: "arousal", Score: a}, {Label: "valence", Score: v}, {Label: "dominance", Score: d}}
}

func TestRunVocal(t *testing.T) {
	convey.Convey("vocal pipeline", t, func() {
		ms := &modelServer{speech: [][]clients.LabelScore{
			vocalScores(0.2, 0.5, 0.45),
			vocalScores(0.25, 0.5, 0.45),
			vocalScores(0.3, 0.5, 0.45),
		}}
		srv := httptest.NewServer(ms)
		defer srv.Close()
		c := testConfig(t, srv.URL)

		convey.Convey("classifies each window and averages", func() {
			p := NewPipeline(c, WithAudioExtractor(stubAudio{wave: silence(130, 100)}))
			res, err := p.RunVocal(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(ms.classified(), convey.ShouldEqual, 3)
			convey.So(res.Vocal.Segments, convey.ShouldEqual, 3)
			convey.So(res.Vocal.Arousal, convey.ShouldEqual, 0.25)
			convey.So(res.Vocal.Dominance, convey.ShouldEqual, 0.45)
			convey.So(res.Verdict, convey.ShouldEqual, "语音语调分析：语调较负面;")

			left, _ := os.ReadDir(c.Paths.Work)
			convey.So(left, convey.ShouldBeEmpty)
		})

		convey.Convey("missing input", func() {
			p := NewPipeline(c, WithAudioExtractor(stubAudio{wave: silence(130, 100)}))
			_, err := p.RunVocal(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"))
			convey.So(errors.Is(err, ErrFileNotFound), convey.ShouldBeTrue)
			convey.So(ms.classified(), convey.ShouldEqual, 0)
		})

		convey.Convey("empty audio track", func() {
			p := NewPipeline(c, WithAudioExtractor(stubAudio{wave: silence(0, 100)}))
			_, err := p.RunVocal(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("model errors propagate", func() {
			c.Services.SpeechEmotion.URL = srv.URL + "/broken"
			p := NewPipeline(c, WithAudioExtractor(stubAudio{wave: silence(30, 100)}))
			_, err := p.RunVocal(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "speech emotion 404")
		})
	})
}

func facialFrames() clients.FaceResp {
	return clients.FaceResp{Frames: []clients.FaceFrame{
		{
			Frame:    0,
			AUs:      map[string]float64{"AU06": 0.9, "AU12": 0.9, "AU04": 0.05, "AU07": 0.05},
			Poses:    map[string]float64{"Pitch": 2, "Roll": 0, "Yaw": 1},
			Emotions: map[string]float64{"happiness": 0.6, "neutral": 0.3},
		},
		{
			Frame:    40,
			AUs:      map[string]float64{"AU06": 0.5, "AU12": 0.5, "AU04": 0.05, "AU07": 0.05},
			Poses:    map[string]float64{"Pitch": 3, "Roll": 0, "Yaw": 1},
			Emotions: map[string]float64{"happiness": 0.4, "neutral": 0.5},
		},
		{Frame: 80},
	}}
}

func TestRunFacial(t *testing.T) {
	convey.Convey("facial pipeline", t, func() {
		ms := &modelServer{face: facialFrames()}
		srv := httptest.NewServer(ms)
		defer srv.Close()
		c := testConfig(t, srv.URL)

		convey.Convey("scores detected faces", func() {
			res, err := NewPipeline(c).RunFacial(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Facial.Frames, convey.ShouldEqual, 2)
			convey.So(res.Facial.Pitch, convey.ShouldEqual, 2.5)
			convey.So(res.Verdict, convey.ShouldEqual,
				"面部分析：头部角度偏低;亲和度得分（满分5分）:4;抗压得分（满分5分）:4;情绪控制（满分5分）:2;面部情绪为happiness")
		})

		convey.Convey("null detector values are skipped", func() {
			ms.faceRaw = `{"frames":[` +
				`{"frame":0,"aus":{"AU06":0.9,"AU12":0.9},"poses":{"Pitch":5}},` +
				`{"frame":40,"aus":{"AU06":null,"AU12":null},"poses":{"Pitch":null}}]}`
			res, err := NewPipeline(c).RunFacial(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Facial.Fallback, convey.ShouldBeFalse)
			convey.So(res.Facial.Frames, convey.ShouldEqual, 1)
			convey.So(res.Facial.Pitch, convey.ShouldEqual, 5.0)
			convey.So(res.Facial.Affinity, convey.ShouldEqual, 5)
			convey.So(res.Verdict, convey.ShouldNotContainSubstring, "头部角度偏低")
		})

		convey.Convey("cancellation is an error, not a fallback", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := NewPipeline(c).RunFacial(ctx, inputFile(t))
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			convey.So(res, convey.ShouldBeNil)
		})

		convey.Convey("detector failure falls back", func() {
			ms.faceCode = http.StatusInternalServerError
			res, err := NewPipeline(c).RunFacial(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Facial.Fallback, convey.ShouldBeTrue)
			convey.So(res.Verdict, convey.ShouldEqual,
				"面部分析：未检测到有效人脸;亲和度得分（满分5分）:1;抗压得分（满分5分）:1;情绪控制（满分5分）:1;面部情绪为未知")
		})

		convey.Convey("no face falls back", func() {
			ms.face = clients.FaceResp{Frames: []clients.FaceFrame{{Frame: 0}, {Frame: 40}}}
			res, err := NewPipeline(c).RunFacial(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Facial.Fallback, convey.ShouldBeTrue)
		})

		convey.Convey("missing input is still an error", func() {
			_, err := NewPipeline(c).RunFacial(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"))
			convey.So(errors.Is(err, ErrFileNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestRunPosture(t *testing.T) {
	convey.Convey("posture pipeline", t, func() {
		ms := &modelServer{poses: map[string][]clients.Landmark{
			"frame_000001.jpg": body(clients.Landmark{X: 0.5, Y: 0.5}, clients.Landmark{X: 0.25, Y: 0.75}),
			"frame_000002.jpg": body(clients.Landmark{X: 0.5, Y: 0.5}, clients.Landmark{X: 0.25, Y: 0.25}),
			"frame_000004.jpg": body(clients.Landmark{X: 0.5, Y: 0.5}, clients.Landmark{X: 0.25, Y: 0.75}),
		}}
		srv := httptest.NewServer(ms)
		defer srv.Close()
		c := testConfig(t, srv.URL)

		convey.Convey("frames without a body are skipped", func() {
			res, err := NewPipeline(c, WithFrameExtractor(stubFrames{n: 4})).RunPosture(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Posture.Frames, convey.ShouldEqual, 3)
			convey.So(res.Posture.ShoulderVariance, convey.ShouldEqual, 0.0)
			convey.So(res.Posture.WristMovement, convey.ShouldEqual, 0.5)
			convey.So(res.Verdict, convey.ShouldEqual, "肢体语言分析：肢体规范正常;")

			left, _ := os.ReadDir(c.Paths.Work)
			convey.So(left, convey.ShouldBeEmpty)
		})

		convey.Convey("still wrists are flagged", func() {
			ms.poses["frame_000002.jpg"] = body(clients.Landmark{X: 0.5, Y: 0.5}, clients.Landmark{X: 0.25, Y: 0.75})
			res, err := NewPipeline(c, WithFrameExtractor(stubFrames{n: 4})).RunPosture(context.Background(), inputFile(t))
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Posture.WristMovement, convey.ShouldEqual, 0.0)
			convey.So(res.Verdict, convey.ShouldEqual, "肢体语言分析：肢体语言较少;")
		})

		convey.Convey("a single tracked frame is not enough", func() {
			_, err := NewPipeline(c, WithFrameExtractor(stubFrames{n: 1})).RunPosture(context.Background(), inputFile(t))
			convey.So(errors.Is(err, ErrNoPose), convey.ShouldBeTrue)
		})
	})
}

func TestRunAll(t *testing.T) {
	convey.Convey("all modalities in order with a report", t, func() {
		ms := &modelServer{
			speech: [][]clients.LabelScore{vocalScores(0.6, 0.6, 0.6)},
			face:   facialFrames(),
			poses: map[string][]clients.Landmark{
				"frame_000001.jpg": body(clients.Landmark{X: 0.5, Y: 0.5}, clients.Landmark{X: 0.25, Y: 0.75}),
				"frame_000002.jpg": body(clients.Landmark{X: 0.5, Y: 0.5}, clients.Landmark{X: 0.25, Y: 0.25}),
			},
		}
		srv := httptest.NewServer(ms)
		defer srv.Close()
		c := testConfig(t, srv.URL)
		c.Output.Report = true

		p := NewPipeline(c,
			WithAudioExtractor(stubAudio{wave: silence(20, 100)}),
			WithFrameExtractor(stubFrames{n: 2}),
		)
		res, err := p.Run(context.Background(), ModalityAll, inputFile(t))
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Verdict, convey.ShouldEqual,
			"语音语调分析：语音语调无问题;"+
				"面部分析：头部角度偏低;亲和度得分（满分5分）:4;抗压得分（满分5分）:4;情绪控制（满分5分）:2;面部情绪为happiness"+
				"肢体语言分析：肢体规范正常;")
		convey.So(res.Vocal, convey.ShouldNotBeNil)
		convey.So(res.Facial, convey.ShouldNotBeNil)
		convey.So(res.Posture, convey.ShouldNotBeNil)

		raw, err := os.ReadFile(filepath.Join(c.Paths.Outputs, res.RunID, "report.json"))
		convey.So(err, convey.ShouldBeNil)
		var saved Result
		convey.So(jsoniter.Unmarshal(raw, &saved), convey.ShouldBeNil)
		convey.So(saved.Verdict, convey.ShouldEqual, res.Verdict)
		convey.So(saved.Modality, convey.ShouldEqual, ModalityAll)
	})

	convey.Convey("unknown modality", t, func() {
		_, err := NewPipeline(testConfig(t, "http://127.0.0.1:0")).Run(context.Background(), Modality("smell"), "x")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
