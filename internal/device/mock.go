package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/logger"
)

// MockController simulates the LED mask in process. It backs tests and
// deployments without a connected device, counting down a started session in
// real time.
type MockController struct {
	mu        sync.Mutex
	mode      string
	endsAt    time.Time
	completed bool
}

// NewMockController creates an idle simulated device.
func NewMockController() *MockController {
	logger.ForComponent("device").Warn("No serial port configured, using simulated LED device")
	return &MockController{}
}

// StartTherapy begins a simulated session.
func (m *MockController) StartTherapy(ctx context.Context, mode string, durationMinutes int) (*TherapyResponse, error) {
	if err := ValidateStartRequest(mode, durationMinutes); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active() {
		return nil, apperrors.NewDeviceError("device rejected start: BUSY", nil)
	}

	m.mode = mode
	m.endsAt = time.Now().Add(time.Duration(durationMinutes) * time.Minute)
	m.completed = false

	return &TherapyResponse{
		Mode:            mode,
		DurationMinutes: durationMinutes,
		RawResponse:     fmt.Sprintf("OK:STARTED:%s:%d", mode, durationMinutes),
	}, nil
}

// StopTherapy ends the simulated session.
func (m *MockController) StopTherapy(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mode = ""
	m.endsAt = time.Time{}
	m.completed = false
	return nil
}

// Status reports the simulated session state.
func (m *MockController) Status(ctx context.Context) (*TherapyStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.completed {
		return &TherapyStatus{State: StateCompleted}, nil
	}
	if !m.active() {
		if m.mode != "" {
			// Session ran out since the last poll.
			m.completed = true
			m.mode = ""
			return &TherapyStatus{State: StateCompleted}, nil
		}
		return &TherapyStatus{State: StateIdle}, nil
	}

	return &TherapyStatus{
		State:            StateActive,
		Mode:             m.mode,
		RemainingSeconds: int(time.Until(m.endsAt).Seconds()),
	}, nil
}

// Close is a no-op.
func (m *MockController) Close() error {
	return nil
}

func (m *MockController) active() bool {
	return m.mode != "" && time.Now().Before(m.endsAt)
}
