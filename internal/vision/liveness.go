package vision

import "image"

// LivenessThresholds configures the anti-spoofing heuristic.
type LivenessThresholds struct {
	SharpnessCeiling float64 // Laplacian variance above this is suspicious
	ColorStdFloor    float64 // mean channel stddev below this is suspicious
}

// CheckLiveness applies two independent heuristics against replayed or
// photographed captures: unnaturally crisp images (screen photographs)
// and flat colour distributions. Both must pass. This is a usability
// heuristic, not a cryptographic liveness proof.
func CheckLiveness(region image.Image, t LivenessThresholds) (bool, string) {
	gray := grayscale(region)
	if laplacianVariance(gray) > t.SharpnessCeiling {
		return false, "Image quality suspicious. Please use direct camera capture"
	}

	std := channelStdDev(region)
	if (std[0]+std[1]+std[2])/3 < t.ColorStdFloor {
		return false, "Color distribution suspicious"
	}

	return true, ""
}
