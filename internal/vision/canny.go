package vision

import "math"

// Canny hysteresis thresholds on Sobel gradient magnitude.
const (
	cannyLowThreshold  = 100
	cannyHighThreshold = 200
)

// cannyEdges computes a binary edge map (0 or 255 per pixel):
// Gaussian smoothing, Sobel gradients, non-maximum suppression along
// the gradient direction, then double-threshold hysteresis.
func cannyEdges(gray [][]float64) [][]float64 {
	smoothed := gaussianBlur(gray)
	mag, dir := sobel(smoothed)
	thin := nonMaxSuppress(mag, dir)
	return hysteresis(thin)
}

// gaussianBlur applies a 5x5 Gaussian kernel (sigma ~1.4) with
// replicated borders.
func gaussianBlur(gray [][]float64) [][]float64 {
	kernel := [5][5]float64{
		{2, 4, 5, 4, 2},
		{4, 9, 12, 9, 4},
		{5, 12, 15, 12, 5},
		{4, 9, 12, 9, 4},
		{2, 4, 5, 4, 2},
	}
	const kernelSum = 159

	h := len(gray)
	w := len(gray[0])
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sy := clampI(y+ky, 0, h-1)
					sx := clampI(x+kx, 0, w-1)
					sum += gray[sy][sx] * kernel[ky+2][kx+2]
				}
			}
			out[y][x] = sum / kernelSum
		}
	}
	return out
}

// sobel returns gradient magnitude and direction (radians).
func sobel(gray [][]float64) (mag, dir [][]float64) {
	h := len(gray)
	w := len(gray[0])

	mag = make([][]float64, h)
	dir = make([][]float64, h)
	for y := 0; y < h; y++ {
		mag[y] = make([]float64, w)
		dir[y] = make([]float64, w)
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -gray[y-1][x-1] + gray[y-1][x+1] +
				-2*gray[y][x-1] + 2*gray[y][x+1] +
				-gray[y+1][x-1] + gray[y+1][x+1]
			gy := -gray[y-1][x-1] - 2*gray[y-1][x] - gray[y-1][x+1] +
				gray[y+1][x-1] + 2*gray[y+1][x] + gray[y+1][x+1]

			mag[y][x] = math.Hypot(gx, gy)
			dir[y][x] = math.Atan2(gy, gx)
		}
	}
	return mag, dir
}

// nonMaxSuppress keeps only pixels that are local maxima along their
// gradient direction, quantised to 4 orientations.
func nonMaxSuppress(mag, dir [][]float64) [][]float64 {
	h := len(mag)
	w := len(mag[0])

	out := make([][]float64, h)
	for y := range out {
		out[y] = make([]float64, w)
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			angle := dir[y][x] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}

			var a, b float64
			switch {
			case angle < 22.5 || angle >= 157.5: // horizontal gradient
				a, b = mag[y][x-1], mag[y][x+1]
			case angle < 67.5: // diagonal /
				a, b = mag[y-1][x+1], mag[y+1][x-1]
			case angle < 112.5: // vertical gradient
				a, b = mag[y-1][x], mag[y+1][x]
			default: // diagonal \
				a, b = mag[y-1][x-1], mag[y+1][x+1]
			}

			if mag[y][x] >= a && mag[y][x] >= b {
				out[y][x] = mag[y][x]
			}
		}
	}
	return out
}

// hysteresis marks strong edges and weak edges connected to strong ones.
func hysteresis(mag [][]float64) [][]float64 {
	h := len(mag)
	w := len(mag[0])

	out := make([][]float64, h)
	for y := range out {
		out[y] = make([]float64, w)
	}

	// Seed with strong edges.
	var stack [][2]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mag[y][x] >= cannyHighThreshold {
				out[y][x] = 255
				stack = append(stack, [2]int{y, x})
			}
		}
	}

	// Grow into connected weak edges.
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				ny, nx := p[0]+dy, p[1]+dx
				if ny < 0 || ny >= h || nx < 0 || nx >= w {
					continue
				}
				if out[ny][nx] == 0 && mag[ny][nx] >= cannyLowThreshold {
					out[ny][nx] = 255
					stack = append(stack, [2]int{ny, nx})
				}
			}
		}
	}
	return out
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
