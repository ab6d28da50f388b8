package inference

import (
	"context"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/region"
)

// LocalEngine runs region models in-process. Models are loaded once at
// construction and shared, read-only, across concurrent requests; a region
// whose model failed to load stays excluded for the process lifetime.
type LocalEngine struct {
	models map[region.Name]Model
	pool   *workerPool
	log    *logrus.Entry
}

// NewLocalEngine wraps an already-loaded model set. Use LoadModels to build
// the set from a model directory.
func NewLocalEngine(models map[region.Name]Model) *LocalEngine {
	pool := newWorkerPool(len(models))
	pool.start()

	e := &LocalEngine{
		models: models,
		pool:   pool,
		log:    logger.ForComponent("inference"),
	}
	e.log.WithField("models", len(models)).Info("Local inference engine ready")
	return e
}

// LoadedRegions returns the regions whose models loaded successfully.
func (e *LocalEngine) LoadedRegions() []region.Name {
	var names []region.Name
	for _, n := range region.All() {
		if _, ok := e.models[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// PredictAllRegions preprocesses the image once and runs every loaded region
// model. A single region's failure is logged and that region is omitted; it
// never aborts the batch.
func (e *LocalEngine) PredictAllRegions(ctx context.Context, img image.Image) (map[region.Name]RawPrediction, error) {
	tensor := Preprocess(img)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[region.Name]RawPrediction, len(e.models))
	)

	for _, name := range region.All() {
		model, ok := e.models[name]
		if !ok {
			continue
		}

		name := name
		wg.Add(1)
		e.pool.submit(func() {
			defer wg.Done()

			cls, reg, err := model.Forward(tensor)
			if err != nil {
				e.log.WithError(err).WithField("region", name).Error("Region inference failed")
				return
			}

			mu.Lock()
			results[name] = RawPrediction{Classification: cls, Regression: reg}
			mu.Unlock()
		})
	}

	wg.Wait()
	return results, nil
}

// Close releases the worker pool and every loaded model.
func (e *LocalEngine) Close() error {
	e.pool.close()
	var firstErr error
	for _, m := range e.models {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
