package inference

import (
	"image"
)

// Model input geometry and ImageNet normalization constants. These match the
// training pipeline of the region models and must not change.
const (
	inputWidth  = 224
	inputHeight = 224
)

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Tensor is a CHW float32 input blob of shape [1,3,224,224].
type Tensor struct {
	Data  []float32
	Shape [4]int
}

// Preprocess converts an RGB image into the network input: bilinear resize
// to 224x224, scale to [0,1], then channel-wise ImageNet normalization.
func Preprocess(img image.Image) Tensor {
	resized := resizeBilinear(img, inputWidth, inputHeight)

	data := make([]float32, 3*inputHeight*inputWidth)
	plane := inputHeight * inputWidth

	for y := 0; y < inputHeight; y++ {
		for x := 0; x < inputWidth; x++ {
			r, g, b := resized[y][x][0], resized[y][x][1], resized[y][x][2]
			idx := y*inputWidth + x
			data[idx] = (r/255 - imagenetMean[0]) / imagenetStd[0]
			data[plane+idx] = (g/255 - imagenetMean[1]) / imagenetStd[1]
			data[2*plane+idx] = (b/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}

	return Tensor{Data: data, Shape: [4]int{1, 3, inputHeight, inputWidth}}
}

// resizeBilinear samples the source image on a regular grid with bilinear
// interpolation, returning HxWx3 values on the 0-255 scale.
func resizeBilinear(img image.Image, width, height int) [][][3]float32 {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	out := make([][][3]float32, height)
	if srcW == 0 || srcH == 0 {
		for y := range out {
			out[y] = make([][3]float32, width)
		}
		return out
	}

	xRatio := float32(srcW) / float32(width)
	yRatio := float32(srcH) / float32(height)

	for y := 0; y < height; y++ {
		out[y] = make([][3]float32, width)
		sy := (float32(y)+0.5)*yRatio - 0.5
		if sy < 0 {
			sy = 0
		}
		y0 := int(sy)
		y1 := y0 + 1
		if y1 >= srcH {
			y1 = srcH - 1
		}
		fy := sy - float32(y0)

		for x := 0; x < width; x++ {
			sx := (float32(x)+0.5)*xRatio - 0.5
			if sx < 0 {
				sx = 0
			}
			x0 := int(sx)
			x1 := x0 + 1
			if x1 >= srcW {
				x1 = srcW - 1
			}
			fx := sx - float32(x0)

			p00 := rgbAt(img, bounds.Min.X+x0, bounds.Min.Y+y0)
			p10 := rgbAt(img, bounds.Min.X+x1, bounds.Min.Y+y0)
			p01 := rgbAt(img, bounds.Min.X+x0, bounds.Min.Y+y1)
			p11 := rgbAt(img, bounds.Min.X+x1, bounds.Min.Y+y1)

			for c := 0; c < 3; c++ {
				top := p00[c]*(1-fx) + p10[c]*fx
				bottom := p01[c]*(1-fx) + p11[c]*fx
				out[y][x][c] = top*(1-fy) + bottom*fy
			}
		}
	}

	return out
}

func rgbAt(img image.Image, x, y int) [3]float32 {
	r, g, b, _ := img.At(x, y).RGBA()
	return [3]float32{float32(r >> 8), float32(g >> 8), float32(b >> 8)}
}
