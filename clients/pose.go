package clients

import "context"

// --- Pose landmarks (/pose) ---
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// PoseResp carries the 33 body landmarks, or none when no person was found.
type PoseResp struct {
	Landmarks []Landmark `json:"landmarks"`
}

func (h *HTTP) PoseLandmarks(ctx context.Context, url, framePath string) (*PoseResp, error) {
	var out PoseResp
	if err := h.postFile(ctx, "pose", url+"/pose", framePath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
