package validation

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

type stubDetector struct {
	detections []Detection
	err        error
}

func (s *stubDetector) DetectFaces(img image.Image) ([]Detection, error) {
	return s.detections, s.err
}

func (s *stubDetector) Close() error { return nil }

func createTestImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func oneFace(confidence float64) *stubDetector {
	return &stubDetector{detections: []Detection{{X: 10, Y: 10, W: 50, H: 50, Confidence: confidence}}}
}

func TestValidate_Passes(t *testing.T) {
	v := NewFaceValidator(oneFace(0.9))
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	ok, reason := v.Validate(img)
	if !ok {
		t.Errorf("Expected valid image, got rejection: %s", reason)
	}
	if reason != "OK" {
		t.Errorf("Expected reason OK, got %s", reason)
	}
}

func TestValidate_TooSmall(t *testing.T) {
	v := NewFaceValidator(oneFace(0.9))
	img := createTestImage(50, 50, color.RGBA{128, 128, 128, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection for undersized image")
	}
	if reason != "image too small (minimum 100x100)" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_TooDark(t *testing.T) {
	v := NewFaceValidator(oneFace(0.9))
	img := createTestImage(200, 200, color.RGBA{5, 5, 5, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection for dark image")
	}
	if reason != "image too dark" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_TooBright(t *testing.T) {
	v := NewFaceValidator(oneFace(0.9))
	img := createTestImage(200, 200, color.RGBA{250, 250, 250, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection for bright image")
	}
	if reason != "image too bright" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_NoFace(t *testing.T) {
	v := NewFaceValidator(&stubDetector{})
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection when no face is detected")
	}
	if reason != "no face detected" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_LowConfidenceFaceIgnored(t *testing.T) {
	v := NewFaceValidator(oneFace(0.3))
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection when only a low-confidence detection exists")
	}
	if reason != "no face detected" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_MultipleFacesPass(t *testing.T) {
	detector := &stubDetector{detections: []Detection{
		{Confidence: 0.9},
		{Confidence: 0.8},
	}}
	v := NewFaceValidator(detector)
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	ok, _ := v.Validate(img)
	if !ok {
		t.Error("Expected multiple faces to pass validation")
	}
}

func TestValidate_DetectorError(t *testing.T) {
	v := NewFaceValidator(&stubDetector{err: errors.New("model crashed")})
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection when the detector fails")
	}
	if reason != "face detection unavailable" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_NilDetector(t *testing.T) {
	v := NewFaceValidator(nil)
	img := createTestImage(200, 200, color.RGBA{128, 128, 128, 255})

	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected rejection with nil detector")
	}
	if reason != "face detection unavailable" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestValidate_SkipToggles(t *testing.T) {
	thresholds := DefaultThresholds()
	thresholds.SkipSizeCheck = true
	thresholds.SkipBrightnessCheck = true
	thresholds.SkipFaceDetection = true
	v := NewFaceValidatorWithThresholds(nil, thresholds)

	// Tiny and pitch black, but every check is disabled.
	img := createTestImage(10, 10, color.RGBA{0, 0, 0, 255})
	ok, reason := v.Validate(img)
	if !ok {
		t.Errorf("Expected all-skipped validation to pass, got: %s", reason)
	}
}

func TestValidate_SkipFaceDetectionKeepsOtherChecks(t *testing.T) {
	thresholds := DefaultThresholds()
	thresholds.SkipFaceDetection = true
	v := NewFaceValidatorWithThresholds(nil, thresholds)

	img := createTestImage(50, 50, color.RGBA{128, 128, 128, 255})
	ok, reason := v.Validate(img)
	if ok {
		t.Fatal("Expected size check to still apply")
	}
	if reason != "image too small (minimum 100x100)" {
		t.Errorf("Unexpected reason: %s", reason)
	}
}

func TestMeanBrightness(t *testing.T) {
	img := createTestImage(100, 100, color.RGBA{128, 128, 128, 255})

	brightness := MeanBrightness(img)
	if math.Abs(brightness-128) > 0.5 {
		t.Errorf("Expected brightness ~128 for uniform gray, got %f", brightness)
	}
}

func TestMeanBrightness_MixedChannels(t *testing.T) {
	// Pure red: mean over all three channels is 255/3.
	img := createTestImage(100, 100, color.RGBA{255, 0, 0, 255})

	brightness := MeanBrightness(img)
	if math.Abs(brightness-85) > 0.5 {
		t.Errorf("Expected brightness ~85 for pure red, got %f", brightness)
	}
}

func TestMeanBrightness_EmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if got := MeanBrightness(img); got != 0 {
		t.Errorf("Expected 0 for empty image, got %f", got)
	}
}
