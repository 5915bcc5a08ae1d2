package scoring

import (
	"fmt"
	"strings"
)

// Locale selects the verdict language.
type Locale string

const (
	Chinese Locale = "zh"
	English Locale = "en"
)

type messages struct {
	vocalPrefix    string
	lowArousal     string
	lowValence     string
	lowDominance   string
	vocalOK        string
	posturePrefix  string
	tooMuchSway    string
	fewGestures    string
	postureOK      string
	facialPrefix   string
	lowHead        string
	facialScores   string // affinity, tension, stability, emotion
	noFace         string
	unknownEmotion string
}

var catalog = map[Locale]messages{
	Chinese: {
		vocalPrefix:    "语音语调分析：",
		lowArousal:     "语调较负面;",
		lowValence:     "声音较小;",
		lowDominance:   "语调较不自信;",
		vocalOK:        "语音语调无问题;",
		posturePrefix:  "肢体语言分析：",
		tooMuchSway:    "身体晃动太多;",
		fewGestures:    "肢体语言较少;",
		postureOK:      "肢体规范正常;",
		facialPrefix:   "面部分析：",
		lowHead:        "头部角度偏低;",
		facialScores:   "亲和度得分（满分5分）:%d;抗压得分（满分5分）:%d;情绪控制（满分5分）:%d;面部情绪为%s",
		noFace:         "未检测到有效人脸;",
		unknownEmotion: "未知",
	},
	English: {
		vocalPrefix:    "Vocal tone: ",
		lowArousal:     "tone is rather negative;",
		lowValence:     "voice is rather quiet;",
		lowDominance:   "tone lacks confidence;",
		vocalOK:        "no vocal issues;",
		posturePrefix:  "Body language: ",
		tooMuchSway:    "too much body sway;",
		fewGestures:    "few gestures;",
		postureOK:      "posture is normal;",
		facialPrefix:   "Facial: ",
		lowHead:        "head tilted low;",
		facialScores:   "affinity (out of 5):%d;composure (out of 5):%d;emotional control (out of 5):%d;facial emotion is %s",
		noFace:         "no usable face detected;",
		unknownEmotion: "unknown",
	},
}

// ParseLocale accepts "zh" or "en" (case-insensitive); anything else is an error.
func ParseLocale(s string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[l]; !ok {
		return "", fmt.Errorf("unsupported locale %q", s)
	}
	return l, nil
}

func (l Locale) msgs() messages {
	if m, ok := catalog[l]; ok {
		return m
	}
	return catalog[Chinese]
}

// VocalVerdict flags low arousal, valence and dominance.
func VocalVerdict(v Vocal, l Locale) string {
	m := l.msgs()
	var b strings.Builder
	if v.Arousal < LowArousal {
		b.WriteString(m.lowArousal)
	}
	if v.Valence < LowValence {
		b.WriteString(m.lowValence)
	}
	if v.Dominance < LowDominance {
		b.WriteString(m.lowDominance)
	}
	if b.Len() == 0 {
		b.WriteString(m.vocalOK)
	}
	return m.vocalPrefix + b.String()
}

// PostureVerdict flags excess shoulder sway and too little wrist movement.
func PostureVerdict(p Posture, l Locale) string {
	m := l.msgs()
	var b strings.Builder
	if p.ShoulderVariance > MaxShoulderVariance {
		b.WriteString(m.tooMuchSway)
	}
	if p.WristMovement < MinWristMovement {
		b.WriteString(m.fewGestures)
	}
	if b.Len() == 0 {
		b.WriteString(m.postureOK)
	}
	return m.posturePrefix + b.String()
}

// FacialVerdict renders the three facial scores and the dominant emotion,
// prefixed by a lowered-head note when pitch is under lowPitch.
func FacialVerdict(f Facial, lowPitch float64, l Locale) string {
	m := l.msgs()
	if f.Fallback {
		return FacialFallbackVerdict(l)
	}
	out := m.facialPrefix
	if f.Pitch < lowPitch {
		out += m.lowHead
	}
	emotion := f.Emotion
	if emotion == "" {
		emotion = m.unknownEmotion
	}
	return out + fmt.Sprintf(m.facialScores, f.Affinity, f.Tension, f.Stability, emotion)
}

// FallbackFacial is the lowest-score result used when the detector produced
// nothing usable.
func FallbackFacial() Facial {
	return Facial{Affinity: 1, Tension: 1, Stability: 1, Fallback: true}
}

// FacialFallbackVerdict is the verdict line for FallbackFacial: the no-face
// note followed by every score at 1 and an unknown emotion.
func FacialFallbackVerdict(l Locale) string {
	m := l.msgs()
	return m.facialPrefix + m.noFace + fmt.Sprintf(m.facialScores, 1, 1, 1, m.unknownEmotion)
}
