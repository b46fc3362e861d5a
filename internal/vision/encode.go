package vision

import (
	"image"
	"math"
)

// Signature layout. The blocks are concatenated in this exact order and
// the total length is fixed; changing either invalidates every stored
// signature (a schema migration, not handled here).
const (
	canonicalSize = 128 // faces are resampled to canonicalSize x canonicalSize

	colorBins = 32 // per LAB channel
	hogCols   = 4  // HOG cell grid
	hogRows   = 4
	hogBins   = 8 // orientation bins per cell
	lbpBins   = 32
	edgeBins  = 16

	// SignatureDim is the fixed signature length:
	// L + a + b histograms, HOG, LBP histogram, edge histogram.
	SignatureDim = 3*colorBins + hogRows*hogCols*hogBins + lbpBins + edgeBins
)

// Encode turns a face region into a fixed-length signature combining
// colour, shape, texture and contour statistics. Deterministic for
// identical pixel input.
func Encode(region image.Image) []float32 {
	face := resizeImage(region, canonicalSize, canonicalSize)
	gray := grayscale(face)

	l, a, b := labChannels(face)

	sig := make([]float32, 0, SignatureDim)
	sig = append(sig, histogram(l, colorBins)...)
	sig = append(sig, histogram(a, colorBins)...)
	sig = append(sig, histogram(b, colorBins)...)
	sig = append(sig, hogFeatures(gray)...)
	sig = append(sig, histogram(flatten(lbpTransform(gray)), lbpBins)...)
	sig = append(sig, histogram(flatten(cannyEdges(gray)), edgeBins)...)

	return sig
}

// labChannels converts to CIELAB (D65) and rescales each channel to
// 0..255: L*255/100, a and b offset by 128. LAB separates luma from
// chroma, which keeps the colour histograms stable under small
// lighting shifts.
func labChannels(img *image.RGBA) (l, a, b []float64) {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	l = make([]float64, 0, n)
	a = make([]float64, 0, n)
	b = make([]float64, 0, n)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			lv, av, bv := rgbToLab(float64(pr>>8)/255, float64(pg>>8)/255, float64(pb>>8)/255)
			l = append(l, clamp255(lv*255/100))
			a = append(a, clamp255(av+128))
			b = append(b, clamp255(bv+128))
		}
	}
	return l, a, b
}

// rgbToLab converts sRGB in [0,1] to CIELAB under the D65 illuminant.
func rgbToLab(r, g, b float64) (float64, float64, float64) {
	lin := func(c float64) float64 {
		if c > 0.04045 {
			return math.Pow((c+0.055)/1.055, 2.4)
		}
		return c / 12.92
	}
	r, g, b = lin(r), lin(g), lin(b)

	x := 0.4124564*r + 0.3575761*g + 0.1804375*b
	y := 0.2126729*r + 0.7151522*g + 0.0721750*b
	z := 0.0193339*r + 0.1191920*g + 0.9503041*b

	// D65 reference white
	x /= 0.95047
	z /= 1.08883

	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}
	fx, fy, fz := f(x), f(y), f(z)

	return 116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)
}

// histogram bins values from [0,256) and L2-normalises the result.
func histogram(values []float64, bins int) []float32 {
	counts := make([]float64, bins)
	for _, v := range values {
		idx := int(v * float64(bins) / 256)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return l2Normalize(counts)
}

func l2Normalize(values []float64) []float32 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(values))
	if norm == 0 {
		return out
	}
	for i, v := range values {
		out[i] = float32(v / norm)
	}
	return out
}

// hogFeatures computes a gradient-orientation histogram: the canonical
// face is divided into a hogRows x hogCols cell grid, each cell
// accumulating gradient magnitude into hogBins unsigned-orientation
// bins (0..180 degrees). Each cell histogram is L2-normalised.
func hogFeatures(gray [][]float64) []float32 {
	h := len(gray)
	w := len(gray[0])
	cellH := h / hogRows
	cellW := w / hogCols

	features := make([]float32, 0, hogRows*hogCols*hogBins)

	for cy := 0; cy < hogRows; cy++ {
		for cx := 0; cx < hogCols; cx++ {
			hist := make([]float64, hogBins)

			for y := cy * cellH; y < (cy+1)*cellH; y++ {
				for x := cx * cellW; x < (cx+1)*cellW; x++ {
					gx := gray[y][min(x+1, w-1)] - gray[y][max(x-1, 0)]
					gy := gray[min(y+1, h-1)][x] - gray[max(y-1, 0)][x]

					mag := math.Hypot(gx, gy)
					angle := math.Atan2(gy, gx) * 180 / math.Pi
					if angle < 0 {
						angle += 180
					}

					bin := int(angle * hogBins / 180)
					if bin >= hogBins {
						bin = hogBins - 1
					}
					hist[bin] += mag
				}
			}

			features = append(features, l2Normalize(hist)...)
		}
	}
	return features
}

// lbpTransform computes the 8-neighbour local binary pattern of a
// grayscale image. Border pixels stay zero.
func lbpTransform(gray [][]float64) [][]float64 {
	h := len(gray)
	w := len(gray[0])

	lbp := make([][]float64, h)
	for y := range lbp {
		lbp[y] = make([]float64, w)
	}

	// neighbour offsets, clockwise from top-left
	offsets := [8][2]int{
		{-1, -1}, {-1, 0}, {-1, 1}, {0, 1},
		{1, 1}, {1, 0}, {1, -1}, {0, -1},
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := gray[y][x]
			var code int
			for bit, off := range offsets {
				if gray[y+off[0]][x+off[1]] >= center {
					code |= 1 << bit
				}
			}
			lbp[y][x] = float64(code)
		}
	}
	return lbp
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func flatten(m [][]float64) []float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([]float64, 0, len(m)*len(m[0]))
	for _, row := range m {
		out = append(out, row...)
	}
	return out
}
