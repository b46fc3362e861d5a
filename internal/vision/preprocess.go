package vision

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// decodeImage decodes JPEG/PNG/GIF/BMP bytes into an image.
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// resizeImage scales an image to exactly targetW x targetH using
// Catmull-Rom interpolation. The canonical face size must be resampled
// consistently or stored signatures drift between deployments.
func resizeImage(img image.Image, targetW, targetH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// cropRegion extracts a rectangular region, clamped to image bounds.
// Returns nil for degenerate regions.
func cropRegion(img image.Image, x1, y1, x2, y2 int) *image.RGBA {
	bounds := img.Bounds()

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2-x1 <= 0 || y2-y1 <= 0 {
		return nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	for cy := y1; cy < y2; cy++ {
		for cx := x1; cx < x2; cx++ {
			crop.Set(cx-x1, cy-y1, img.At(cx, cy))
		}
	}
	return crop
}

// grayscale converts an image to a [h][w] luma matrix (BT.601 weights,
// 0..255 range).
func grayscale(img image.Image) [][]float64 {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	gray := make([][]float64, h)
	for y := 0; y < h; y++ {
		gray[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(b >> 8)
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}
	return gray
}

// meanLuma returns the average luma of a grayscale matrix.
func meanLuma(gray [][]float64) float64 {
	if len(gray) == 0 || len(gray[0]) == 0 {
		return 0
	}
	var sum float64
	for _, row := range gray {
		for _, v := range row {
			sum += v
		}
	}
	return sum / float64(len(gray)*len(gray[0]))
}

// laplacianVariance measures sharpness as the variance of the 4-neighbour
// Laplacian response over interior pixels. Low values mean blur; very
// high values suggest a re-photographed screen.
func laplacianVariance(gray [][]float64) float64 {
	h := len(gray)
	if h < 3 {
		return 0
	}
	w := len(gray[0])
	if w < 3 {
		return 0
	}

	n := (h - 2) * (w - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := gray[y-1][x] + gray[y+1][x] + gray[y][x-1] + gray[y][x+1] - 4*gray[y][x]
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

// channelStdDev returns the standard deviation of each RGB channel
// over the whole image.
func channelStdDev(img image.Image) [3]float64 {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return [3]float64{}
	}

	var sum, sumSq [3]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			px := [3]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
			for c := 0; c < 3; c++ {
				sum[c] += px[c]
				sumSq[c] += px[c] * px[c]
			}
		}
	}

	var std [3]float64
	for c := 0; c < 3; c++ {
		mean := sum[c] / n
		variance := sumSq[c]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		std[c] = math.Sqrt(variance)
	}
	return std
}

// imageToDetectorInput converts an image to the CHW float32 layout the
// SSD detector expects: BGR channel order with per-channel mean
// subtraction, resized to the model input size.
func imageToDetectorInput(img image.Image, targetW, targetH int, mean [3]float32) []float32 {
	resized := resizeImage(img, targetW, targetH)
	bounds := resized.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			rf := float32(r >> 8)
			gf := float32(g >> 8)
			bf := float32(b >> 8)

			idx := y*w + x
			data[0*h*w+idx] = bf - mean[0] // B
			data[1*h*w+idx] = gf - mean[1] // G
			data[2*h*w+idx] = rf - mean[2] // R
		}
	}
	return data
}

// encodeJPEG encodes an image as JPEG with the given quality.
func encodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	return buf.Bytes()
}
