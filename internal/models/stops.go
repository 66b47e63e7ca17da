package models

// Stop is a resolved stop record. Suspended stops are currently not served.
type Stop struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Indicator string `json:"indicator,omitempty"`
	Locality  string `json:"locality,omitempty"`
	Suspended bool   `json:"suspended,omitempty"`
}

func NewStop(id, code, name, indicator string) Stop {
	return Stop{
		ID:        id,
		Code:      code,
		Name:      name,
		Indicator: indicator,
	}
}

// DisplayName joins the name and indicator, as in "High Street (stop B)".
func (s Stop) DisplayName() string {
	if s.Indicator == "" {
		return s.Name
	}
	return s.Name + " (" + s.Indicator + ")"
}
