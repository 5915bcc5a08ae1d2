package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Service struct {
	URL     string `yaml:"url" mapstructure:"url" validate:"required,url"`
	Timeout int    `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds, 0 = client default
}
type Services struct {
	SpeechEmotion Service `yaml:"speech_emotion" mapstructure:"speech_emotion"`
	FaceAU        Service `yaml:"face_au" mapstructure:"face_au"`
	Pose          Service `yaml:"pose" mapstructure:"pose"`
}
type Audio struct {
	SampleRate     int    `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gt=0"`
	Channels       int    `yaml:"channels" mapstructure:"channels" validate:"gt=0"`
	Codec          string `yaml:"codec" mapstructure:"codec" validate:"required"`
	SegmentSeconds int    `yaml:"segment_seconds" mapstructure:"segment_seconds" validate:"gt=0"`
	StepSeconds    int    `yaml:"step_seconds" mapstructure:"step_seconds" validate:"gt=0"`
}
type Video struct {
	FrameInterval  int     `yaml:"frame_interval" mapstructure:"frame_interval" validate:"gt=0"`
	SkipFrames     int     `yaml:"skip_frames" mapstructure:"skip_frames" validate:"gt=0"`
	FaceThreshold  float64 `yaml:"face_detection_threshold" mapstructure:"face_detection_threshold" validate:"gt=0,lte=1"`
	BatchSize      int     `yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
	LowPitchDegree float64 `yaml:"low_pitch_degree" mapstructure:"low_pitch_degree"`
}
type Output struct {
	Locale string `yaml:"locale" mapstructure:"locale" validate:"oneof=zh en"`
	Report bool   `yaml:"report" mapstructure:"report"`
}
type Root struct {
	Pipeline struct {
		Name    string `yaml:"name" mapstructure:"name"`
		Version string `yaml:"version" mapstructure:"version"`
		LogLvl  string `yaml:"log_level" mapstructure:"log_level" validate:"oneof=trace debug info warn warning error"`
		LogFile string `yaml:"log_file" mapstructure:"log_file"`
	} `yaml:"pipeline" mapstructure:"pipeline"`
	FFmpeg struct {
		Binary string `yaml:"binary" mapstructure:"binary" validate:"required"`
	} `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	Audio    Audio    `yaml:"audio" mapstructure:"audio"`
	Video    Video    `yaml:"video" mapstructure:"video"`
	Services Services `yaml:"services" mapstructure:"services"`
	Output   Output   `yaml:"output" mapstructure:"output"`
	Paths    struct {
		Work    string `yaml:"work" mapstructure:"work"`
		Outputs string `yaml:"outputs" mapstructure:"outputs"`
	} `yaml:"paths" mapstructure:"paths"`
}

// EnvPrefix namespaces environment overrides, e.g. BEHAVIOR_SERVICES_POSE_URL.
const EnvPrefix = "BEHAVIOR"

func defaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "behavior-pipeline")
	v.SetDefault("pipeline.version", "0.1.0")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_file", "")
	v.SetDefault("ffmpeg.binary", "ffmpeg")

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.codec", "pcm_s16le")
	v.SetDefault("audio.segment_seconds", 10)
	v.SetDefault("audio.step_seconds", 60)

	v.SetDefault("video.frame_interval", 5)
	v.SetDefault("video.skip_frames", 40)
	v.SetDefault("video.face_detection_threshold", 0.95)
	v.SetDefault("video.batch_size", 3)
	v.SetDefault("video.low_pitch_degree", 4.0)

	v.SetDefault("services.speech_emotion.url", "http://localhost:8101")
	v.SetDefault("services.speech_emotion.timeout", 120)
	v.SetDefault("services.face_au.url", "http://localhost:8102")
	v.SetDefault("services.face_au.timeout", 600)
	v.SetDefault("services.pose.url", "http://localhost:8103")
	v.SetDefault("services.pose.timeout", 30)

	v.SetDefault("output.locale", "zh")
	v.SetDefault("output.report", false)

	v.SetDefault("paths.work", os.TempDir())
	v.SetDefault("paths.outputs", "outputs")
}

// Candidates lists the files Load tries when no explicit path is given.
func Candidates() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("src", "shared", "config.yaml"),
	}
}

// Load reads the configuration. An explicit path must exist; otherwise the
// first existing candidate is used, and with none the defaults apply.
func Load(path string) (*Root, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		for _, p := range Candidates() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config %s: %w", p, err)
			}
			break
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize canonicalizes free-form values before validation.
func Normalize(cfg *Root) {
	cfg.Output.Locale = strings.ToLower(strings.TrimSpace(cfg.Output.Locale))
	cfg.Pipeline.LogLvl = strings.ToLower(strings.TrimSpace(cfg.Pipeline.LogLvl))
}

var validate = validator.New()

// Validate checks field constraints and reports the first failing keys.
func Validate(cfg *Root) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validate: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("config invalid: %s", strings.Join(msgs, ", "))
}

// Dump renders the effective configuration as YAML.
func Dump(cfg *Root) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
