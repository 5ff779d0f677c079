package hue

type HueDeviceService struct {
	RID   string `json:"rid"`
	RType string `json:"rtype"`
}

type HueDevice struct {
	Id       string `json:"id"`
	Metadata struct {
		Name string `json:"name"`
		Type string `json:"archetype"`
	} `json:"metadata"`
	Services []HueDeviceService `json:"services"`
}

type HueLight struct {
	HueDevice
	On struct {
		On bool `json:"on"`
	} `json:"on"`
	Dimming struct {
		Brightness float64 `json:"brightness"`
	} `json:"dimming"`
}

type HueError struct {
	Description string `json:"description"`
}

type LightResponse struct {
	Errors []HueError `json:"errors"`
	Data   []HueLight `json:"data"`
}

type HueEventResource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// a single message from the bridge event stream
type HueEvent struct {
	Type string             `json:"type"`
	Data []HueEventResource `json:"data"`
}
