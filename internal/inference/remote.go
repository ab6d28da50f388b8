package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/region"
)

// RemoteEngine calls a GPU inference server that exposes the same per-region
// model set over HTTP. Its failures are request-fatal but process-transient:
// timeout, connection and bad-status cases are classified separately for
// observability, and all three terminate the current analysis.
type RemoteEngine struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logrus.Entry
}

// NewRemoteEngine creates a remote engine for the given server base URL.
func NewRemoteEngine(baseURL, apiKey string, timeout time.Duration) *RemoteEngine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteEngine{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
		log: logger.ForComponent("inference").WithField("engine", "remote"),
	}
}

// wirePrediction is one region's payload as the GPU server emits it. Vectors
// may arrive batched ([[...]]) or flat ([...]) depending on the server build;
// both decode to the same RawPrediction.
type wirePrediction struct {
	ClsOutput json.RawMessage `json:"cls_output"`
	RegOutput json.RawMessage `json:"reg_output"`
}

type inferenceResponse struct {
	Success     bool                      `json:"success"`
	Predictions map[string]wirePrediction `json:"predictions"`
	Device      string                    `json:"device"`
	Message     string                    `json:"message"`
}

// PredictAllRegions posts the image as JPEG to the inference endpoint and
// normalizes the response into plain per-region vectors.
func (e *RemoteEngine) PredictAllRegions(ctx context.Context, img image.Image) (map[region.Name]RawPrediction, error) {
	body, contentType, err := encodeMultipartJPEG(img)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode image", err)
	}

	endpoint := e.baseURL + "/api/v1/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build inference request", err)
	}
	req.Header.Set("Content-Type", contentType)
	if e.apiKey != "" {
		req.Header.Set("X-API-Key", e.apiKey)
	}

	e.log.WithField("endpoint", endpoint).Debug("Calling inference server")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, apperrors.NewAdapterConnectionError("failed to read inference response", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := serverMessage(payload)
		return nil, apperrors.NewAdapterBadStatusError(
			fmt.Sprintf("inference server returned status %d: %s", resp.StatusCode, msg), nil)
	}

	var decoded inferenceResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, apperrors.NewAdapterBadStatusError("inference server returned malformed response", err)
	}

	results := make(map[region.Name]RawPrediction, len(decoded.Predictions))
	for zone, pred := range decoded.Predictions {
		name := region.Name(zone)
		if !region.IsValid(name) {
			e.log.WithField("region", zone).Warn("Unknown region in inference response, skipped")
			continue
		}

		cls, err := flattenVector(pred.ClsOutput)
		if err != nil {
			e.log.WithError(err).WithField("region", zone).Error("Bad classification vector, region skipped")
			continue
		}
		reg, err := flattenVector(pred.RegOutput)
		if err != nil {
			e.log.WithError(err).WithField("region", zone).Error("Bad regression vector, region skipped")
			continue
		}
		results[name] = RawPrediction{Classification: cls, Regression: reg}
	}

	e.log.WithFields(logrus.Fields{"regions": len(results), "device": decoded.Device}).
		Info("Remote inference completed")
	return results, nil
}

// HealthCheck probes the inference server with a short deadline.
func (e *RemoteEngine) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/v1/health", nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build health request", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewAdapterBadStatusError(
			fmt.Sprintf("inference server health returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// Close is a no-op; the engine holds no per-process resources.
func (e *RemoteEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewAdapterTimeoutError("inference server timed out", err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return apperrors.NewAdapterTimeoutError("inference server timed out", err)
	}
	return apperrors.NewAdapterConnectionError("failed to connect to inference server", err)
}

func serverMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return "unknown error"
}

// flattenVector accepts [x,y,...] or [[x,y,...]] and returns the flat form.
func flattenVector(raw json.RawMessage) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty nested vector")
		}
		return nested[0], nil
	}
	return nil, fmt.Errorf("vector is neither flat nor batched")
}

func encodeMultipartJPEG(img image.Image) (*bytes.Buffer, string, error) {
	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(jpegBuf.Bytes()); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
