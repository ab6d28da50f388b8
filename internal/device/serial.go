package device

import (
	"bufio"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/logger"
)

const (
	serialBaudRate    = 9600
	serialReadTimeout = 3 * time.Second
)

// SerialController talks to the LED mask over a USB serial bridge. The
// firmware answers one line per command.
type SerialController struct {
	mu     sync.Mutex
	port   serial.Port
	reader *bufio.Reader
	log    *logrus.Entry
}

// NewSerialController opens the serial port and verifies the device answers
// a STATUS probe.
func NewSerialController(portName string) (*SerialController, error) {
	mode := &serial.Mode{
		BaudRate: serialBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, apperrors.NewDeviceError(fmt.Sprintf("failed to open serial port %s", portName), err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, apperrors.NewDeviceError("failed to configure serial read timeout", err)
	}

	c := &SerialController{
		port:   port,
		reader: bufio.NewReader(port),
		log:    logger.ForComponent("device").WithField("port", portName),
	}

	if _, err := c.Status(context.Background()); err != nil {
		port.Close()
		return nil, err
	}

	c.log.Info("Serial LED controller connected")
	return c, nil
}

// StartTherapy sends a START command and parses the acknowledgement.
func (c *SerialController) StartTherapy(ctx context.Context, mode string, durationMinutes int) (*TherapyResponse, error) {
	if err := ValidateStartRequest(mode, durationMinutes); err != nil {
		return nil, err
	}

	line, err := c.exchange(ctx, StartCommand(mode, durationMinutes))
	if err != nil {
		return nil, err
	}
	resp, err := parseStartResponse(line)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{"mode": resp.Mode, "duration": resp.DurationMinutes}).Info("Therapy started")
	return resp, nil
}

// StopTherapy sends a STOP command.
func (c *SerialController) StopTherapy(ctx context.Context) error {
	line, err := c.exchange(ctx, "STOP")
	if err != nil {
		return err
	}
	if err := parseStopResponse(line); err != nil {
		return err
	}
	c.log.Info("Therapy stopped")
	return nil
}

// Status queries the device session state.
func (c *SerialController) Status(ctx context.Context) (*TherapyStatus, error) {
	line, err := c.exchange(ctx, "STATUS")
	if err != nil {
		return nil, err
	}
	return ParseStatus(line)
}

// Close releases the serial port.
func (c *SerialController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

// exchange writes one command line and reads one response line. The port is
// a single shared channel, so exchanges are serialized.
func (c *SerialController) exchange(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewDeviceError("device exchange cancelled", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.port.Write([]byte(command + "\n")); err != nil {
		return "", apperrors.NewDeviceError(fmt.Sprintf("failed to send command %s", command), err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", apperrors.NewDeviceError(fmt.Sprintf("no response to command %s", command), err)
	}
	return line, nil
}
