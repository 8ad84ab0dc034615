package settings

// Step is the timing of the current and previous simulation steps.
type Step struct {
	Dt        float64
	InvDt     float64
	PrevDt    float64
	PrevInvDt float64
	// DtRatio is Dt / PrevDt, used to rescale warm start impulses when the
	// step length changes
	DtRatio float64
}

// NewStep creates a step of length dt with no history.
func NewStep(dt float64) Step {
	s := Step{}
	s.Update(dt)
	s.PrevDt = s.Dt
	s.PrevInvDt = s.InvDt
	s.DtRatio = 1.0

	return s
}

// Update shifts the current timing into the previous one and sets the new dt.
func (s *Step) Update(dt float64) {
	s.PrevDt = s.Dt
	s.PrevInvDt = s.InvDt
	s.Dt = dt
	s.InvDt = 0
	if dt > 0 {
		s.InvDt = 1.0 / dt
	}

	s.DtRatio = 1.0
	if s.PrevDt > 0 {
		s.DtRatio = dt * s.PrevInvDt
	}
}
