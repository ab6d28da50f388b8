package recommend

// LED therapy modes supported by the mask firmware.
const (
	ModeRed  = "red"
	ModeBlue = "blue"
	ModeGold = "gold"
)

// ModeInfo describes one LED mode's wavelength and the issue categories it
// targets.
type ModeInfo struct {
	Wavelength   int      `json:"wavelength"`
	Benefits     []string `json:"benefits"`
	TargetIssues []string `json:"target_issues"`
}

// DeviceConfig describes the Seeed Xiao BLE LED mask the recommendations are
// issued for.
type DeviceConfig struct {
	DeviceName      string   `json:"device_name"`
	BLEServiceUUID  string   `json:"ble_service_uuid"`
	SupportedModes  []string `json:"supported_modes"`
	PWMRange        [2]int   `json:"pwm_range"`
	FirmwareVersion string   `json:"firmware_version"`
}

var ledModes = map[string]ModeInfo{
	ModeRed: {
		Wavelength:   630,
		Benefits:     []string{"wrinkle reduction", "elasticity boost", "collagen production"},
		TargetIssues: []string{"wrinkle", "elasticity", "sagging"},
	},
	ModeBlue: {
		Wavelength:   415,
		Benefits:     []string{"acne relief", "pore calming", "sebum control"},
		TargetIssues: []string{"acne", "pore", "sebum", "redness"},
	},
	ModeGold: {
		Wavelength:   590,
		Benefits:     []string{"brightening", "pigmentation relief", "tone improvement"},
		TargetIssues: []string{"pigmentation", "tone", "dark_spot"},
	},
}

// LEDModes returns the supported LED mode catalog.
func LEDModes() map[string]ModeInfo {
	return ledModes
}

// Device returns the target device configuration.
func Device() DeviceConfig {
	return DeviceConfig{
		DeviceName:      "MySkin_LED_Mask",
		BLEServiceUUID:  "0000ffe0-0000-1000-8000-00805f9b34fb",
		SupportedModes:  []string{ModeRed, ModeBlue, ModeGold},
		PWMRange:        [2]int{0, 255},
		FirmwareVersion: "1.0.0",
	}
}

// IsSupportedMode reports whether mode is one of the firmware modes.
func IsSupportedMode(mode string) bool {
	_, ok := ledModes[mode]
	return ok
}
