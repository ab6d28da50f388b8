package device

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/recommend"
)

// Controller drives the LED mask over a line-based command protocol.
//
// Commands:  START:<MODE>:<DURATION>  STOP  STATUS
// Responses: OK:STARTED:<mode>:<duration>  OK:STOPPED  ERROR:<kind>
// Status:    IDLE | ACTIVE:<mode>:<remaining_seconds> | COMPLETED
type Controller interface {
	StartTherapy(ctx context.Context, mode string, durationMinutes int) (*TherapyResponse, error)
	StopTherapy(ctx context.Context) error
	Status(ctx context.Context) (*TherapyStatus, error)
	Close() error
}

// TherapyResponse reports an accepted START command.
type TherapyResponse struct {
	Mode            string `json:"mode"`
	DurationMinutes int    `json:"duration_minutes"`
	RawResponse     string `json:"raw_response"`
}

// TherapyStatus reports the device's current session state.
type TherapyStatus struct {
	State            string `json:"state"`
	Mode             string `json:"mode,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

// Session states reported by the firmware.
const (
	StateIdle      = "IDLE"
	StateActive    = "ACTIVE"
	StateCompleted = "COMPLETED"
)

// StartCommand formats a START command line for the firmware. The mode is
// upper-cased on the wire.
func StartCommand(mode string, durationMinutes int) string {
	return fmt.Sprintf("START:%s:%d", strings.ToUpper(mode), durationMinutes)
}

// ValidateStartRequest rejects unsupported modes and out-of-range durations
// before anything reaches the device.
func ValidateStartRequest(mode string, durationMinutes int) error {
	if !recommend.IsSupportedMode(strings.ToLower(mode)) {
		return apperrors.NewInvalidImageError(fmt.Sprintf("unsupported LED mode: %s", mode))
	}
	if durationMinutes < 1 || durationMinutes > 60 {
		return apperrors.NewInvalidImageError(fmt.Sprintf("duration out of range: %d minutes", durationMinutes))
	}
	return nil
}

// parseStartResponse interprets the firmware's reply to a START command.
func parseStartResponse(line string) (*TherapyResponse, error) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) == 4 && parts[0] == "OK" && parts[1] == "STARTED" {
		duration, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, apperrors.NewDeviceError(fmt.Sprintf("malformed device response: %s", line), err)
		}
		return &TherapyResponse{
			Mode:            strings.ToLower(parts[2]),
			DurationMinutes: duration,
			RawResponse:     strings.TrimSpace(line),
		}, nil
	}
	if len(parts) >= 2 && parts[0] == "ERROR" {
		return nil, apperrors.NewDeviceError(fmt.Sprintf("device rejected start: %s", parts[1]), nil)
	}
	return nil, apperrors.NewDeviceError(fmt.Sprintf("unexpected device response: %s", line), nil)
}

// parseStopResponse interprets the firmware's reply to a STOP command.
func parseStopResponse(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "OK:STOPPED" {
		return nil
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) >= 2 && parts[0] == "ERROR" {
		return apperrors.NewDeviceError(fmt.Sprintf("device rejected stop: %s", parts[1]), nil)
	}
	return apperrors.NewDeviceError(fmt.Sprintf("unexpected device response: %s", line), nil)
}

// ParseStatus interprets a STATUS reply line.
func ParseStatus(line string) (*TherapyStatus, error) {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case StateIdle:
		return &TherapyStatus{State: StateIdle}, nil
	case StateCompleted:
		return &TherapyStatus{State: StateCompleted}, nil
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) == 3 && parts[0] == StateActive {
		remaining, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, apperrors.NewDeviceError(fmt.Sprintf("malformed status line: %s", line), err)
		}
		return &TherapyStatus{
			State:            StateActive,
			Mode:             strings.ToLower(parts[1]),
			RemainingSeconds: remaining,
		}, nil
	}
	return nil, apperrors.NewDeviceError(fmt.Sprintf("unexpected status line: %s", line), nil)
}
