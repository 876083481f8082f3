package internal

type State string

const (
	Uninitialized State = "uninitialized"
	Generating    State = "generating"
	Ready         State = "ready"
	Failed        State = "error" // the last derivation or persistence attempt failed
)

// Status is published with every state transition of a device.
type Status struct {
	DeviceID string `json:"deviceId"`
	State    State  `json:"state"`
	Address  string `json:"address,omitempty"`
}

func NewStatus(deviceID string) *Status {
	status := &Status{DeviceID: deviceID}
	status.Reset()
	return status
}

func (s *Status) Reset() {
	s.State = Uninitialized
	s.Address = ""
}
