package validation

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"go-skin-analyzer/internal/logger"
)

// YuNetDetector implements FaceDetector using OpenCV's FaceDetectorYN.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	mu       sync.Mutex // protects inference, the detector is not reentrant
}

// NewYuNetDetector loads the YuNet ONNX model from modelPath. A minimum score
// threshold is applied inside OpenCV; the validator applies its own
// configurable confidence cut on top.
func NewYuNetDetector(modelPath string, scoreThreshold float64) (*YuNetDetector, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("face detection model not found: %s", modelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		modelPath,
		"",
		image.Pt(320, 320), // initial input size, updated per image
		float32(scoreThreshold),
		0.3,  // NMS threshold
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	logger.ForComponent("validator").WithField("model", modelPath).Info("Face detector initialized")
	return &YuNetDetector{detector: detector}, nil
}

// DetectFaces finds faces in the image and returns their pixel bounding
// boxes with detection scores.
func (d *YuNetDetector) DetectFaces(img image.Image) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	d.detector.SetInputSize(image.Pt(mat.Cols(), mat.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(mat, &faces)

	var detections []Detection
	for r := 0; r < faces.Rows(); r++ {
		// FaceDetectorYN row layout: 0-3 bounding box, 4-13 landmarks,
		// 14 detection score.
		detections = append(detections, Detection{
			X:          int(faces.GetFloatAt(r, 0)),
			Y:          int(faces.GetFloatAt(r, 1)),
			W:          int(faces.GetFloatAt(r, 2)),
			H:          int(faces.GetFloatAt(r, 3)),
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}

	return detections, nil
}

// Close releases the underlying OpenCV detector.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
