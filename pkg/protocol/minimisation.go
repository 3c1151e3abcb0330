package protocol

// Minimisation relaxes a system to a local energy minimum.
type Minimisation struct {
	// Steps is the maximum number of minimisation iterations.
	Steps int64 `json:"steps" validate:"min=1,max=1000000"`
}

// NewMinimisation returns a minimisation protocol with default parameters.
func NewMinimisation() *Minimisation {
	return &Minimisation{Steps: 10000}
}

func (m *Minimisation) Name() string { return "minimisation" }

func (m *Minimisation) Validate() error {
	return validateStruct(m.Name(), m)
}
