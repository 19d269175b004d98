package formgate

import "context"

// FormState is the value and error state of one form instance.
//
// A failed Submit only overwrites errors for the fields that failed; errors
// already shown on passing fields stay until Input clears them or a
// successful Submit resets the form.
type FormState struct {
	gate   *Gate
	Values Values
	Errors Errors
}

// NewFormState returns an empty form bound to g.
func NewFormState(g *Gate) *FormState {
	return &FormState{gate: g, Values: Values{}, Errors: Errors{}}
}

// Input records a keystroke on field and clears that field's error without
// validating it.
func (s *FormState) Input(field, value string) {
	if s.Values == nil {
		s.Values = Values{}
	}
	s.Values[field] = value
	delete(s.Errors, field)
}

// Submit validates the current values through the gate.
func (s *FormState) Submit(ctx context.Context) (Result, error) {
	res, err := s.gate.Submit(ctx, s.Values)
	if err != nil {
		return res, err
	}
	if res.Reset {
		s.Values = Values{}
		s.Errors = Errors{}
		return res, nil
	}
	if s.Errors == nil {
		s.Errors = Errors{}
	}
	for field, fe := range res.Errors {
		s.Errors[field] = fe
	}
	return res, nil
}

// Error returns the localized message for field, or "".
func (s *FormState) Error(field string) string {
	return s.Errors[field].Message
}
