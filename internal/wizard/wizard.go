package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStepIncomplete   = errors.New("step is incomplete")
	ErrStepOutOfRange   = errors.New("step out of range")
	ErrAlreadySubmitted = errors.New("wizard already submitted")
	ErrUnknownWizard    = errors.New("unknown wizard")
)

// Values are the raw form fields entered so far, keyed by field name.
type Values map[string]string

// Step is one panel of a wizard.
type Step struct {
	Name     string   `json:"name"`
	Required []string `json:"required"`
	// Accept lists checkboxes that must be ticked ("true").
	Accept []string `json:"accept,omitempty"`
}

// Missing returns the required fields of the step that are empty or unticked.
func (s Step) Missing(values Values) []string {
	var missing []string
	for _, field := range s.Required {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	for _, field := range s.Accept {
		if values[field] != "true" {
			missing = append(missing, field)
		}
	}
	return missing
}

type Definition struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Total is the number of steps.
func (d *Definition) Total() int { return len(d.Steps) }

// Step returns the 1-based step.
func (d *Definition) Step(step int) (Step, error) {
	if step < 1 || step > len(d.Steps) {
		return Step{}, fmt.Errorf("%w: %d not in [1, %d]", ErrStepOutOfRange, step, len(d.Steps))
	}
	return d.Steps[step-1], nil
}

// IsStepValid reports whether every required field of the step is filled in.
// Steps outside the wizard are never valid.
func (d *Definition) IsStepValid(step int, values Values) bool {
	s, err := d.Step(step)
	if err != nil {
		return false
	}
	return len(s.Missing(values)) == 0
}

// StepError tells which step blocked progress and why.
type StepError struct {
	Step    int
	Name    string
	Missing []string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) is missing %s", e.Step, e.Name, strings.Join(e.Missing, ", "))
}

func (e *StepError) Unwrap() error { return ErrStepIncomplete }

// Session walks a definition one step at a time. Its step stays in
// [1, Total]; passing the last step moves it to the terminal result state.
type Session struct {
	def    *Definition
	step   int
	done   bool
	Values Values
}

func (d *Definition) Start(values Values) *Session {
	if values == nil {
		values = Values{}
	}
	return &Session{def: d, step: 1, Values: values}
}

func (s *Session) Step() int { return s.step }

// Done reports whether the session reached its result.
func (s *Session) Done() bool { return s.done }

// Next validates the current step and moves forward by one. On the last step
// it completes the session instead.
func (s *Session) Next() error {
	if s.done {
		return ErrAlreadySubmitted
	}
	step, _ := s.def.Step(s.step)
	if missing := step.Missing(s.Values); len(missing) > 0 {
		return &StepError{Step: s.step, Name: step.Name, Missing: missing}
	}
	if s.step == s.def.Total() {
		s.done = true
		return nil
	}
	s.step++
	return nil
}

// Back moves back by one step, never below the first.
func (s *Session) Back() {
	if s.done {
		return
	}
	if s.step > 1 {
		s.step--
	}
}

// Complete runs the session through every remaining step.
func (s *Session) Complete() error {
	for !s.done {
		if err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}
