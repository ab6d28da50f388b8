package transport

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-skin-analyzer/internal/analysis"
	"go-skin-analyzer/internal/config"
	"go-skin-analyzer/internal/device"
	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/history"
	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/observer"
	"go-skin-analyzer/internal/recommend"
	"go-skin-analyzer/internal/storage"
)

// HealthChecker probes a remote dependency. Nil when the deployment has none.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Analysis analysis.Service
	Fetcher  storage.ImageFetcher
	History  *history.Service
	Device   device.Controller
	Metrics  *observer.MetricsObserver
	Archiver storage.ResultArchiver
	Remote   HealthChecker
	Config   *config.Config
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type therapyStartRequest struct {
	Mode            string `json:"mode" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
}

// NewHandler wires the gin router.
func NewHandler(deps Dependencies) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(deps.Config.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	api.POST("/analysis/face", analyzeFace(deps))
	api.GET("/history/:user_id", listHistory(deps.History))
	api.GET("/stats/:user_id", userStats(deps.History))
	api.GET("/service/stats", serviceStats(deps.Metrics))
	api.GET("/inference/health", inferenceHealth(deps.Remote))

	dev := api.Group("/device")
	dev.GET("/config", deviceConfig)
	dev.GET("/modes", deviceModes)
	dev.GET("/status", deviceStatus(deps.Device))
	dev.POST("/therapy/start", therapyStart(deps.Device))
	dev.POST("/therapy/stop", therapyStop(deps.Device))

	return r
}

// analyzeFace accepts either a multipart file upload ("file") or an
// "image_url" form field, runs the pipeline and records history.
func analyzeFace(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		userID := c.PostForm("user_id")

		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"user_id": userID,
			"ip":      c.ClientIP(),
		}).Info("Processing face analysis request")

		img, err := loadRequestImage(ctx, c, deps.Fetcher, deps.Config.ImageFetchTimeout)
		if err != nil {
			respondAppError(c, err)
			return
		}

		result, err := deps.Analysis.AnalyzeFace(ctx, img, userID)
		if err != nil {
			respondAppError(c, err)
			return
		}

		// History and archiving are best-effort; the analysis result is
		// already computed and must reach the caller.
		if deps.History != nil {
			saveUser := userID
			if saveUser == "" {
				saveUser = "anonymous"
			}
			if _, err := deps.History.Save(ctx, saveUser, result); err != nil {
				logger.WithError(err).WithField("user_id", saveUser).Warn("Failed to record analysis history")
			}
			if deps.Archiver != nil {
				if err := deps.Archiver.Archive(ctx, saveUser, result); err != nil {
					logger.WithError(err).WithField("user_id", saveUser).Warn("Failed to archive analysis snapshot")
				}
			}
		}

		logger.WithFields(logrus.Fields{
			"user_id":            userID,
			"overall_score":      result.OverallScore,
			"regions":            len(result.Regions),
			"led_mode":           result.Recommendation.Mode,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Face analysis completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

func loadRequestImage(ctx context.Context, c *gin.Context, fetcher storage.ImageFetcher, fetchTimeout time.Duration) (image.Image, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, apperrors.NewInvalidImageError("failed to open uploaded file")
		}
		defer file.Close()

		img, _, err := image.Decode(file)
		if err != nil {
			return nil, apperrors.NewInvalidImageError("uploaded file is not a decodable image")
		}
		return img, nil
	}

	imageURL := c.PostForm("image_url")
	if imageURL == "" {
		return nil, apperrors.NewInvalidImageError("request must include a file upload or an image_url field")
	}
	if parsed, err := url.Parse(imageURL); err != nil || parsed.Host == "" {
		return nil, apperrors.NewInvalidImageError("image_url is not a valid URL")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	img, err := fetcher.FetchImage(fetchCtx, imageURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewAdapterTimeoutError("image fetch timeout", err)
		}
		return nil, apperrors.NewAdapterConnectionError("failed to fetch image", err)
	}
	return img, nil
}

func listHistory(h *history.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.List(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			respondAppError(c, apperrors.NewInternalError("failed to load history", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.Param("user_id"),
			"count":   len(records),
			"records": records,
		})
	}
}

func userStats(h *history.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.Stats(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			respondAppError(c, apperrors.NewInternalError("failed to compute statistics", err))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func serviceStats(m *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.GetMetrics())
	}
}

func inferenceHealth(remote HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if remote == nil {
			c.JSON(http.StatusOK, gin.H{"mode": "local", "status": "available"})
			return
		}
		if err := remote.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"mode":   "remote",
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"mode": "remote", "status": "available"})
	}
}

func deviceConfig(c *gin.Context) {
	c.JSON(http.StatusOK, recommend.Device())
}

func deviceModes(c *gin.Context) {
	c.JSON(http.StatusOK, recommend.LEDModes())
}

func deviceStatus(ctrl device.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := ctrl.Status(c.Request.Context())
		if err != nil {
			respondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func therapyStart(ctrl device.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req therapyStartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondAppError(c, apperrors.NewInvalidImageError("invalid therapy start request"))
			return
		}

		resp, err := ctrl.StartTherapy(c.Request.Context(), req.Mode, req.DurationMinutes)
		if err != nil {
			respondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func therapyStop(ctrl device.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.StopTherapy(c.Request.Context()); err != nil {
			respondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "stopped"})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), string(apperrors.GetKind(err)), err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondAppError maps an application error to its machine-readable kind and
// status code.
func respondAppError(c *gin.Context, err error) {
	respondError(c, apperrors.GetStatusCode(err), string(apperrors.GetKind(err)), err)
}

func respondError(c *gin.Context, code int, kind string, err error) {
	message := ""
	if appErr, ok := err.(*apperrors.AppError); ok {
		message = appErr.Message
	} else if err != nil {
		message = err.Error()
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_kind":  kind,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   kind,
		Message: message,
	})
}
