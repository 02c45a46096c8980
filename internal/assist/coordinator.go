// internal/assist/coordinator.go
package assist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "assistance-wizard/internal/common/errors"
	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/metrics"
	"assistance-wizard/internal/common/observability"
	"assistance-wizard/internal/models"
	"assistance-wizard/internal/textgen"
)

var (
	ErrRequestInFlight = errors.New("a generation request for this field is already in flight")
	ErrUnknownField    = errors.New("unknown narrative field")
	ErrNothingToRedo   = errors.New("no completed or failed generation to regenerate")
)

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// Status is the assist dialog's view of one field.
type Status struct {
	Field   models.NarrativeField
	State   State
	Content string
	Err     *apperrors.AppError
	// ConflictsWithManualEdit is set when the textarea was edited while the
	// request that produced Content was in flight.
	ConflictsWithManualEdit bool
}

// Session is the part of the wizard controller the coordinator writes through.
type Session interface {
	Draft() models.ApplicationDraft
	SetAIGeneratedContent(ctx context.Context, field models.NarrativeField, text string) error
	ApplyNarrative(ctx context.Context, field models.NarrativeField, text string) error
	OnRestart(fn func())
}

type fieldState struct {
	state      State
	staged     string
	err        *apperrors.AppError
	generation uint64
	manualEdit bool
	conflict   bool
}

// Coordinator runs the assist request lifecycle for each narrative field.
// Provider calls run outside the lock; a result is applied only if its
// generation still matches the field's current one.
type Coordinator struct {
	mu        sync.Mutex
	config    *Config
	session   Session
	generator textgen.Generator
	obs       *observability.Observability
	errs      *apperrors.ErrorHandler
	logger    logger.Logger
	fields    map[models.NarrativeField]*fieldState
}

func NewCoordinator(config *Config, session Session, generator textgen.Generator, obs *observability.Observability, log logger.Logger) *Coordinator {
	if config.Now == nil {
		config.Now = time.Now
	}
	log = log.Named("assist")
	c := &Coordinator{
		config:    config,
		session:   session,
		generator: generator,
		obs:       obs,
		errs:      apperrors.NewErrorHandler(log),
		logger:    log,
		fields:    make(map[models.NarrativeField]*fieldState, len(models.NarrativeFields)),
	}
	session.OnRestart(c.Reset)
	return c
}

// ==========================
// Generation
// ==========================

// Generate requests text for field. Provider failures are reported through
// the returned Status, never as an error; the error result is reserved for
// misuse such as a second request while one is in flight.
func (c *Coordinator) Generate(ctx context.Context, field models.NarrativeField, draft models.ApplicationDraft, locale string) (Status, error) {
	if _, err := models.ParseNarrativeField(string(field)); err != nil {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	c.mu.Lock()
	fs := c.fieldLocked(field)
	if fs.state == StateRequesting {
		status := c.statusLocked(field, fs)
		c.mu.Unlock()
		metrics.GenerationRequests.WithLabelValues(string(field), "rejected_in_flight").Inc()
		return status, ErrRequestInFlight
	}
	fs.generation++
	generation := fs.generation
	fs.state = StateRequesting
	fs.staged = ""
	fs.err = nil
	fs.manualEdit = false
	fs.conflict = false
	c.mu.Unlock()

	text, appErr := c.call(ctx, field, draft, locale)

	c.mu.Lock()
	defer c.mu.Unlock()

	if fs.generation != generation || fs.state != StateRequesting {
		c.logger.Info("discarding stale generation result", map[string]interface{}{
			"field":      string(field),
			"generation": generation,
		})
		metrics.GenerationRequests.WithLabelValues(string(field), "stale").Inc()
		return c.statusLocked(field, fs), nil
	}

	if appErr != nil {
		fs.state = StateError
		fs.err = appErr
		metrics.GenerationRequests.WithLabelValues(string(field), "error").Inc()
		c.logger.Warn("generation failed", map[string]interface{}{
			"field": string(field),
			"kind":  appErr.Kind.String(),
			"code":  string(appErr.Code),
		})
		return c.statusLocked(field, fs), nil
	}

	fs.state = StateComplete
	fs.staged = text
	fs.conflict = fs.manualEdit
	metrics.GenerationRequests.WithLabelValues(string(field), "success").Inc()

	if err := c.session.SetAIGeneratedContent(ctx, field, text); err != nil {
		c.logger.Warn("could not persist generated content", map[string]interface{}{
			"field": string(field),
			"error": err,
		})
	}
	return c.statusLocked(field, fs), nil
}

// Regenerate re-runs a completed or failed request.
func (c *Coordinator) Regenerate(ctx context.Context, field models.NarrativeField, draft models.ApplicationDraft, locale string) (Status, error) {
	c.mu.Lock()
	fs := c.fieldLocked(field)
	state := fs.state
	c.mu.Unlock()

	switch state {
	case StateComplete, StateError:
		return c.Generate(ctx, field, draft, locale)
	case StateRequesting:
		return c.Status(field), ErrRequestInFlight
	}
	return c.Status(field), ErrNothingToRedo
}

func (c *Coordinator) call(ctx context.Context, field models.NarrativeField, draft models.ApplicationDraft, locale string) (string, *apperrors.AppError) {
	gauge := metrics.GenerationsInFlight.WithLabelValues(string(field))
	gauge.Inc()
	defer gauge.Dec()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	ctx, span := c.obs.StartSpan(ctx, "assist.generate",
		attribute.String("field", string(field)),
		attribute.String("provider", c.generator.Name()),
	)

	req := textgen.Request{
		Field:  field,
		Prompt: textgen.BuildPrompt(field, draft, locale, c.config.Now()),
		Draft:  draft,
		Locale: locale,
	}

	start := time.Now()
	text, err := c.generator.Generate(ctx, req)
	elapsed := time.Since(start)

	appErr := c.errs.Handle(err)

	outcome := "success"
	if appErr != nil {
		outcome = appErr.Kind.String()
	}
	collaborator := "textgen." + c.generator.Name()
	metrics.CollaboratorCallDuration.WithLabelValues(collaborator, outcome).Observe(elapsed.Seconds())
	c.obs.RecordCall(ctx, collaborator, outcome, elapsed)
	if appErr != nil {
		observability.EndSpan(span, appErr)
	} else {
		observability.EndSpan(span, nil)
	}

	return text, appErr
}

// ==========================
// Resolution
// ==========================

// Accept writes text into the narrative field and the cache.
func (c *Coordinator) Accept(ctx context.Context, field models.NarrativeField, text string) error {
	return c.resolve(ctx, field, text, "accept")
}

// EditAndSave is Accept with text the user edited in the dialog.
func (c *Coordinator) EditAndSave(ctx context.Context, field models.NarrativeField, editedText string) error {
	return c.resolve(ctx, field, editedText, "edit")
}

func (c *Coordinator) resolve(ctx context.Context, field models.NarrativeField, text, action string) error {
	if _, err := models.ParseNarrativeField(string(field)); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.fieldLocked(field)
	if fs.state == StateRequesting {
		return ErrRequestInFlight
	}
	if err := c.session.ApplyNarrative(ctx, field, text); err != nil {
		return err
	}
	c.resetFieldLocked(fs)

	c.logger.Info("generated content resolved", map[string]interface{}{
		"field":  string(field),
		"action": action,
	})
	return nil
}

// Disregard drops staged content and leaves the cache alone. A request still
// in flight is invalidated and its result discarded on arrival.
func (c *Coordinator) Disregard(field models.NarrativeField) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.fieldLocked(field)
	if fs.state == StateRequesting {
		fs.generation++
	}
	c.resetFieldLocked(fs)
}

// NoteManualEdit records a textarea edit. An edit made while a request is in
// flight flags the arriving result as conflicting.
func (c *Coordinator) NoteManualEdit(field models.NarrativeField) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.fieldLocked(field)
	if fs.state == StateRequesting {
		fs.manualEdit = true
	}
}

// Status reports the field's state. When idle, Content falls back to the
// cached aiGeneratedContent entry.
func (c *Coordinator) Status(field models.NarrativeField) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(field, c.fieldLocked(field))
}

// Reset forgets all per-field state. In-flight results are discarded.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fs := range c.fields {
		fs.generation++
		c.resetFieldLocked(fs)
	}
	c.logger.Debug("assist state reset", nil)
}

// ==========================
// Internals
// ==========================

func (c *Coordinator) fieldLocked(field models.NarrativeField) *fieldState {
	fs, ok := c.fields[field]
	if !ok {
		fs = &fieldState{state: StateIdle}
		c.fields[field] = fs
	}
	return fs
}

func (c *Coordinator) resetFieldLocked(fs *fieldState) {
	fs.state = StateIdle
	fs.staged = ""
	fs.err = nil
	fs.manualEdit = false
	fs.conflict = false
}

func (c *Coordinator) statusLocked(field models.NarrativeField, fs *fieldState) Status {
	status := Status{
		Field:                   field,
		State:                   fs.state,
		Content:                 fs.staged,
		Err:                     fs.err,
		ConflictsWithManualEdit: fs.conflict,
	}
	if fs.state == StateIdle {
		status.Content = c.session.Draft().AIGeneratedContent.Get(field)
	}
	return status
}
