package clients

import (
	"context"
	"strconv"
)

// --- Facial action units (/detect-video) ---
type FaceOptions struct {
	SkipFrames    int
	FaceThreshold float64
	BatchSize     int
}

// Values maps a detector column to its value in one frame. JSON nulls (NaN
// on the detector side) are dropped on decode, so a missing key means no value.
type Values map[string]float64

func (v *Values) UnmarshalJSON(b []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = nil
		return nil
	}
	out := make(Values, len(raw))
	for k, p := range raw {
		if p != nil {
			out[k] = *p
		}
	}
	*v = out
	return nil
}

// FaceFrame is one processed frame. A key absent from a map had no value in
// that frame (no face, or the detector skipped it).
type FaceFrame struct {
	Frame    int    `json:"frame"`
	AUs      Values `json:"aus"`
	Poses    Values `json:"poses"`
	Emotions Values `json:"emotions"`
}

type FaceResp struct {
	Frames []FaceFrame `json:"frames"`
}

func (h *HTTP) FaceAU(ctx context.Context, url, videoPath string, opts FaceOptions) (*FaceResp, error) {
	fields := map[string]string{
		"skip_frames":              strconv.Itoa(opts.SkipFrames),
		"face_detection_threshold": strconv.FormatFloat(opts.FaceThreshold, 'f', -1, 64),
		"batch_size":               strconv.Itoa(opts.BatchSize),
	}
	var out FaceResp
	if err := h.postFile(ctx, "face au", url+"/detect-video", videoPath, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
