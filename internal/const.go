package internal

const (
	// ActiveDeviceKey holds the JSON-encoded id of the local device.
	ActiveDeviceKey = "identity:active-device"

	StatusChangedSignal = "wallet-status-changed"
	PairedSignal        = "wallet-paired"
)
