package device

import (
	"context"
	"testing"

	apperrors "go-skin-analyzer/internal/errors"
)

func TestStartCommand(t *testing.T) {
	if got := StartCommand("red", 25); got != "START:RED:25" {
		t.Errorf("Expected START:RED:25, got %s", got)
	}
	if got := StartCommand("blue", 15); got != "START:BLUE:15" {
		t.Errorf("Expected START:BLUE:15, got %s", got)
	}
}

func TestValidateStartRequest(t *testing.T) {
	if err := ValidateStartRequest("red", 20); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}
	if err := ValidateStartRequest("RED", 20); err != nil {
		t.Errorf("Expected case-insensitive mode, got %v", err)
	}
	if err := ValidateStartRequest("ultraviolet", 20); err == nil {
		t.Error("Expected error for unsupported mode")
	}
	if err := ValidateStartRequest("red", 0); err == nil {
		t.Error("Expected error for zero duration")
	}
	if err := ValidateStartRequest("red", 61); err == nil {
		t.Error("Expected error for excessive duration")
	}
}

func TestParseStartResponse(t *testing.T) {
	resp, err := parseStartResponse("OK:STARTED:RED:25\n")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if resp.Mode != "red" {
		t.Errorf("Expected mode red, got %s", resp.Mode)
	}
	if resp.DurationMinutes != 25 {
		t.Errorf("Expected duration 25, got %d", resp.DurationMinutes)
	}
}

func TestParseStartResponse_DeviceError(t *testing.T) {
	_, err := parseStartResponse("ERROR:BUSY")
	if err == nil {
		t.Fatal("Expected error for ERROR response")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeDevice) {
		t.Errorf("Expected device_error, got %v", apperrors.GetKind(err))
	}
}

func TestParseStartResponse_Garbage(t *testing.T) {
	if _, err := parseStartResponse("hello world"); err == nil {
		t.Error("Expected error for unparseable response")
	}
	if _, err := parseStartResponse("OK:STARTED:RED:soon"); err == nil {
		t.Error("Expected error for non-numeric duration")
	}
}

func TestParseStopResponse(t *testing.T) {
	if err := parseStopResponse("OK:STOPPED\n"); err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if err := parseStopResponse("ERROR:NOT_RUNNING"); err == nil {
		t.Error("Expected error for ERROR response")
	}
	if err := parseStopResponse("maybe"); err == nil {
		t.Error("Expected error for unparseable response")
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("IDLE\n")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if status.State != StateIdle {
		t.Errorf("Expected IDLE, got %s", status.State)
	}

	status, err = ParseStatus("ACTIVE:RED:300")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if status.State != StateActive || status.Mode != "red" || status.RemainingSeconds != 300 {
		t.Errorf("Unexpected active status %+v", status)
	}

	status, err = ParseStatus("COMPLETED")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if status.State != StateCompleted {
		t.Errorf("Expected COMPLETED, got %s", status.State)
	}

	if _, err := ParseStatus("ACTIVE:RED:???"); err == nil {
		t.Error("Expected error for malformed remaining seconds")
	}
	if _, err := ParseStatus("REBOOTING"); err == nil {
		t.Error("Expected error for unknown state")
	}
}

func TestMockController_Lifecycle(t *testing.T) {
	ctx := context.Background()
	ctrl := NewMockController()
	defer ctrl.Close()

	status, err := ctrl.Status(ctx)
	if err != nil {
		t.Fatalf("Expected status, got %v", err)
	}
	if status.State != StateIdle {
		t.Errorf("Expected fresh device IDLE, got %s", status.State)
	}

	resp, err := ctrl.StartTherapy(ctx, "blue", 20)
	if err != nil {
		t.Fatalf("Expected start to succeed, got %v", err)
	}
	if resp.Mode != "blue" || resp.DurationMinutes != 20 {
		t.Errorf("Unexpected start response %+v", resp)
	}
	if resp.RawResponse != "OK:STARTED:blue:20" {
		t.Errorf("Unexpected raw response %s", resp.RawResponse)
	}

	status, err = ctrl.Status(ctx)
	if err != nil {
		t.Fatalf("Expected status, got %v", err)
	}
	if status.State != StateActive || status.Mode != "blue" {
		t.Errorf("Expected active blue session, got %+v", status)
	}
	if status.RemainingSeconds <= 0 || status.RemainingSeconds > 20*60 {
		t.Errorf("Unexpected remaining seconds %d", status.RemainingSeconds)
	}

	if _, err := ctrl.StartTherapy(ctx, "red", 15); err == nil {
		t.Error("Expected second start to be rejected while active")
	}

	if err := ctrl.StopTherapy(ctx); err != nil {
		t.Fatalf("Expected stop to succeed, got %v", err)
	}
	status, _ = ctrl.Status(ctx)
	if status.State != StateIdle {
		t.Errorf("Expected IDLE after stop, got %s", status.State)
	}
}

func TestMockController_RejectsInvalidRequests(t *testing.T) {
	ctx := context.Background()
	ctrl := NewMockController()
	defer ctrl.Close()

	if _, err := ctrl.StartTherapy(ctx, "plaid", 20); err == nil {
		t.Error("Expected unsupported mode to be rejected")
	}
	if _, err := ctrl.StartTherapy(ctx, "red", 0); err == nil {
		t.Error("Expected zero duration to be rejected")
	}
}
