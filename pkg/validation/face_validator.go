package validation

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"go-skin-analyzer/internal/logger"
)

// Detection is one detected face bounding box with the detector's confidence.
type Detection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
	Confidence float64 `json:"confidence"`
}

// FaceDetector finds faces in an RGB image. Implementations must be safe for
// concurrent use or serialize internally.
type FaceDetector interface {
	DetectFaces(img image.Image) ([]Detection, error)
	Close() error
}

// Thresholds defines the configurable bounds for face-photo validation.
// The three checks are individually toggleable: skipping face detection does
// not skip the size or brightness checks.
type Thresholds struct {
	MinWidth  int
	MinHeight int

	// Mean of all channel values across the image, 0-255 scale.
	MinBrightness float64
	MaxBrightness float64

	// Detections below this confidence are ignored.
	MinFaceConfidence float64

	SkipSizeCheck       bool
	SkipBrightnessCheck bool
	SkipFaceDetection   bool
}

// DefaultThresholds returns the default validation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWidth:          100,
		MinHeight:         100,
		MinBrightness:     20,
		MaxBrightness:     235,
		MinFaceConfidence: 0.5,
	}
}

// FaceValidator rejects unusable input before any model inference runs.
type FaceValidator struct {
	thresholds Thresholds
	detector   FaceDetector
	log        *logrus.Entry
}

// NewFaceValidator creates a validator with default thresholds.
func NewFaceValidator(detector FaceDetector) *FaceValidator {
	return NewFaceValidatorWithThresholds(detector, DefaultThresholds())
}

// NewFaceValidatorWithThresholds creates a validator with custom thresholds.
func NewFaceValidatorWithThresholds(detector FaceDetector, thresholds Thresholds) *FaceValidator {
	return &FaceValidator{
		thresholds: thresholds,
		detector:   detector,
		log:        logger.ForComponent("validator"),
	}
}

// Validate runs the checks in order, short-circuiting on the first failure:
// minimum dimensions, mean brightness, face presence. It never mutates the
// image. Multiple detected faces pass with a warning; the whole image is
// analyzed as-is.
func (v *FaceValidator) Validate(img image.Image) (bool, string) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	v.log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("Validating image")

	if !v.thresholds.SkipSizeCheck {
		if width < v.thresholds.MinWidth || height < v.thresholds.MinHeight {
			return false, fmt.Sprintf("image too small (minimum %dx%d)",
				v.thresholds.MinWidth, v.thresholds.MinHeight)
		}
	}

	if !v.thresholds.SkipBrightnessCheck {
		brightness := MeanBrightness(img)
		v.log.WithField("brightness", brightness).Debug("Mean brightness computed")
		if brightness < v.thresholds.MinBrightness {
			return false, "image too dark"
		}
		if brightness > v.thresholds.MaxBrightness {
			return false, "image too bright"
		}
	}

	if !v.thresholds.SkipFaceDetection {
		if v.detector == nil {
			v.log.Error("Face detector unavailable")
			return false, "face detection unavailable"
		}

		detections, err := v.detector.DetectFaces(img)
		if err != nil {
			v.log.WithError(err).Error("Face detection failed")
			return false, "face detection unavailable"
		}

		faces := 0
		for _, d := range detections {
			if d.Confidence >= v.thresholds.MinFaceConfidence {
				faces++
			}
		}

		if faces == 0 {
			return false, "no face detected"
		}
		if faces > 1 {
			// Known, preserved behavior: no primary-face selection happens,
			// the caller analyzes the whole image unconditionally.
			v.log.WithField("faces", faces).Warn("Multiple faces detected, analyzing whole image")
		}
	}

	return true, "OK"
}

// MeanBrightness computes the average of all channel values across the image
// on a 0-255 scale. Large images are processed in horizontal strips across
// the available CPUs.
func MeanBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	sums := make(chan float64, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		startY := bounds.Min.Y + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		go func(startY, endY int) {
			defer wg.Done()

			var sum float64
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					// 16-bit channels back to the 0-255 scale.
					sum += float64(r>>8) + float64(g>>8) + float64(b>>8)
				}
			}
			sums <- sum
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(sums)
	}()

	var total float64
	for s := range sums {
		total += s
	}

	return total / float64(width*height*3)
}
