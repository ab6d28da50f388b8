package inference

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/region"
)

// Output layer names of the exported two-head region networks.
var outputLayers = []string{"classification", "regression"}

// dnnModel wraps one region's ONNX network. OpenCV nets are not reentrant,
// so forwards are serialized per model; different regions still run in
// parallel.
type dnnModel struct {
	net        gocv.Net
	numClasses int
	numTargets int
	mu         sync.Mutex
}

// LoadModels reads every region's ONNX model from modelDir. A missing or
// unloadable file is a load-time warning: the region is excluded from the
// returned set permanently, never retried per request.
func LoadModels(modelDir string) map[region.Name]Model {
	log := logger.ForComponent("inference")
	models := make(map[region.Name]Model)

	for _, name := range region.All() {
		spec, _ := region.Get(name)
		path := filepath.Join(modelDir, spec.ModelFile)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.WithField("region", name).WithField("path", path).
				Warn("Model file missing, region excluded for process lifetime")
			continue
		}

		net := gocv.ReadNetFromONNX(path)
		if net.Empty() {
			log.WithField("region", name).WithField("path", path).
				Warn("Model failed to load, region excluded for process lifetime")
			continue
		}
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)

		models[name] = &dnnModel{
			net:        net,
			numClasses: spec.NumClasses,
			numTargets: spec.NumTargets,
		}
		log.WithField("region", name).Info("Model loaded")
	}

	log.WithField("loaded", len(models)).Info("Model loading finished")
	return models
}

// Forward runs the two-head network and returns the classification logits
// and regression vector as plain float64 slices.
func (m *dnnModel) Forward(t Tensor) (cls []float64, reg []float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, err := gocv.NewMatWithSizesFromBytes(t.Shape[:], gocv.MatTypeCV32F, float32Bytes(t.Data))
	if err != nil {
		return nil, nil, fmt.Errorf("build input blob: %w", err)
	}
	defer blob.Close()

	m.net.SetInput(blob, "")
	outputs := m.net.ForwardLayers(outputLayers)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	if len(outputs) != 2 {
		return nil, nil, fmt.Errorf("expected 2 output heads, got %d", len(outputs))
	}

	cls, err = matVector(outputs[0], m.numClasses)
	if err != nil {
		return nil, nil, fmt.Errorf("classification head: %w", err)
	}
	reg, err = matVector(outputs[1], m.numTargets)
	if err != nil {
		return nil, nil, fmt.Errorf("regression head: %w", err)
	}
	return cls, reg, nil
}

// Close releases the underlying network.
func (m *dnnModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

// matVector flattens a [1,N] output mat into a float64 slice and checks the
// head width against the region's configured shape.
func matVector(mat gocv.Mat, want int) ([]float64, error) {
	data, err := mat.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	if len(data) != want {
		return nil, fmt.Errorf("shape mismatch: got %d values, want %d", len(data), want)
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out, nil
}

func float32Bytes(data []float32) []byte {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
