package clients

import "context"

// --- Speech emotion (/classify) ---
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SpeechEmotion classifies one wav segment. The dimensional model answers
// with arousal, valence and dominance labels.
func (h *HTTP) SpeechEmotion(ctx context.Context, url, wavPath string) ([]LabelScore, error) {
	var out []LabelScore
	if err := h.postFile(ctx, "speech emotion", url+"/classify", wavPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
