package validation

import "sync"

// FormState decides which field errors are shown: errors for touched fields
// while editing, every error once a submit has been attempted.
type FormState struct {
	mu              sync.Mutex
	touched         map[string]bool
	submitAttempted bool
}

func NewFormState() *FormState {
	return &FormState{touched: make(map[string]bool)}
}

func (s *FormState) Touch(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[field] = true
}

func (s *FormState) MarkSubmitAttempted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitAttempted = true
}

func (s *FormState) SubmitAttempted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitAttempted
}

// Reset is called when the step changes.
func (s *FormState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = make(map[string]bool)
	s.submitAttempted = false
}

// Visible filters errs down to what should be displayed.
func (s *FormState) Visible(errs FieldErrors) FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(errs) == 0 {
		return nil
	}
	if s.submitAttempted {
		out := make(FieldErrors, len(errs))
		for k, v := range errs {
			out[k] = v
		}
		return out
	}

	var out FieldErrors
	for field, msg := range errs {
		if s.touched[field] {
			if out == nil {
				out = make(FieldErrors)
			}
			out[field] = msg
		}
	}
	return out
}
