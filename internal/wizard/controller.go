// internal/wizard/controller.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/metrics"
	"assistance-wizard/internal/common/validation"
	"assistance-wizard/internal/models"
)

var (
	ErrCannotRetreat = errors.New("cannot go back from this step")
	ErrWrongStep     = errors.New("section does not belong to the current step")
	ErrNilSection    = errors.New("section is nil")
	ErrIncomplete    = errors.New("application has missing sections")
	ErrUnknownField  = errors.New("unknown narrative field")
)

// Store persists whole session snapshots.
type Store interface {
	Load(ctx context.Context) models.SessionSnapshot
	Save(ctx context.Context, snap models.SessionSnapshot) error
	Clear(ctx context.Context) error
}

type Validator interface {
	Validate(section models.Section, locale string) validation.FieldErrors
}

// Controller owns the wizard session. All mutation goes through it and every
// mutation is persisted.
type Controller struct {
	mu        sync.Mutex
	store     Store
	validator Validator
	logger    logger.Logger
	now       func() time.Time
	locale    string
	onRestart []func()

	step            models.Step
	draft           models.ApplicationDraft
	dirty           bool
	lastPersistedAt *time.Time
	submitted       bool
}

// New restores the persisted session, or starts an empty one.
func New(ctx context.Context, config *Config, store Store, validator Validator, log logger.Logger) *Controller {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		store:     store,
		validator: validator,
		logger:    log.Named("wizard"),
		now:       now,
		locale:    config.Locale,
	}
	c.restore(store.Load(ctx))
	return c
}

func (c *Controller) restore(snap models.SessionSnapshot) {
	c.draft = snap.FormData.Clone()
	c.submitted = snap.HasSubmittedSuccessfully
	if snap.LastSaved != nil {
		t := *snap.LastSaved
		c.lastPersistedAt = &t
	}

	step := snap.CurrentStep
	switch {
	case step.Index() < 0:
		step = models.StepPersonalInfo
	case step == models.StepSuccess && !c.submitted:
		c.logger.Warn("restored success step without a confirmed submission", nil)
		step = models.StepPersonalInfo
	case step != models.StepSuccess:
		step = c.firstIncompleteUpTo(step)
	}
	c.step = step

	c.logger.Info("session restored", map[string]interface{}{
		"step":      string(c.step),
		"submitted": c.submitted,
	})
}

// firstIncompleteUpTo returns target, or the first earlier step whose section
// is missing or no longer valid.
func (c *Controller) firstIncompleteUpTo(target models.Step) models.Step {
	for _, s := range models.Steps[:target.Index()] {
		if !c.completeLocked(s) {
			return s
		}
	}
	return target
}

// completeLocked reports whether step's section is present and passes
// validation. An accepted narrative alone creates a partial situation section
// that does not count.
func (c *Controller) completeLocked(step models.Step) bool {
	var section models.Section
	switch step {
	case models.StepPersonalInfo:
		if c.draft.PersonalInfo == nil {
			return false
		}
		section = *c.draft.PersonalInfo
	case models.StepFamilyFinancial:
		if c.draft.FamilyFinancial == nil {
			return false
		}
		section = *c.draft.FamilyFinancial
	case models.StepSituationDescription:
		if c.draft.SituationDescription == nil {
			return false
		}
		section = *c.draft.SituationDescription
	default:
		return false
	}
	return len(c.validator.Validate(section, c.locale)) == 0
}

// ==========================
// Navigation
// ==========================

// Advance validates section against the current step. On field errors nothing
// changes. On success the section is stored and the wizard moves on, except on
// situation-description, which only completes through a successful submission.
func (c *Controller) Advance(ctx context.Context, section models.Section) (validation.FieldErrors, error) {
	section, err := normalizeSection(section)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if section.Step() != c.step {
		return nil, fmt.Errorf("%w: got %s on %s", ErrWrongStep, section.Step(), c.step)
	}

	if errs := c.validator.Validate(section, c.locale); len(errs) > 0 {
		c.logger.Debug("step validation failed", map[string]interface{}{
			"step":   string(c.step),
			"fields": len(errs),
		})
		return errs, nil
	}

	c.applySectionLocked(section)

	from := c.step
	if next, ok := from.Next(); ok && next != models.StepSuccess {
		c.step = next
	}
	c.transitionLocked("advance", from)
	c.persistLocked(ctx)
	return nil, nil
}

// Retreat moves one step back without validation.
func (c *Controller) Retreat(ctx context.Context) (models.Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step == models.StepPersonalInfo || c.step == models.StepSuccess {
		return c.step, ErrCannotRetreat
	}

	from := c.step
	c.step, _ = from.Previous()
	c.transitionLocked("retreat", from)
	c.persistLocked(ctx)
	return c.step, nil
}

// GoTo enters step directly. Backward moves are always allowed; forward moves
// stop at the first step whose section is missing. Success is only reachable
// after a confirmed submission and otherwise lands on personal-info.
func (c *Controller) GoTo(ctx context.Context, step models.Step) (models.Step, error) {
	if _, err := models.ParseStep(string(step)); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var target models.Step
	switch {
	case step == models.StepSuccess && c.submitted:
		target = models.StepSuccess
	case step == models.StepSuccess:
		target = models.StepPersonalInfo
	case step.Index() <= c.step.Index():
		target = step
	default:
		target = c.firstIncompleteUpTo(step)
	}

	if target == c.step {
		return c.step, nil
	}

	from := c.step
	c.step = target
	c.transitionLocked("goto", from)
	c.persistLocked(ctx)
	return c.step, nil
}

// CompleteAndAdvanceToSuccess records a confirmed submission. Only the
// submission path calls it.
func (c *Controller) CompleteAndAdvanceToSuccess(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range models.Steps[:models.StepSuccess.Index()] {
		if !c.completeLocked(s) {
			return fmt.Errorf("%w: %s", ErrIncomplete, s)
		}
	}

	from := c.step
	c.submitted = true
	c.step = models.StepSuccess
	c.transitionLocked("complete", from)
	c.persistLocked(ctx)
	return nil
}

// Restart clears the draft and the persisted snapshot and returns to the first step.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	from := c.step
	c.draft = models.ApplicationDraft{}
	c.step = models.StepPersonalInfo
	c.submitted = false
	c.lastPersistedAt = nil

	err := c.store.Clear(ctx)
	c.dirty = err != nil
	c.transitionLocked("restart", from)
	hooks := append([]func(){}, c.onRestart...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return err
}

// OnRestart registers fn to run after every Restart.
func (c *Controller) OnRestart(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRestart = append(c.onRestart, fn)
}

// ==========================
// Narrative Writes
// ==========================

// SetAIGeneratedContent updates the cached generated text for field.
func (c *Controller) SetAIGeneratedContent(ctx context.Context, field models.NarrativeField, text string) error {
	if _, err := models.ParseNarrativeField(string(field)); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft.AIGeneratedContent.Set(field, text)
	c.dirty = true
	c.persistLocked(ctx)
	return nil
}

// ApplyNarrative writes text into the narrative field and the cache.
func (c *Controller) ApplyNarrative(ctx context.Context, field models.NarrativeField, text string) error {
	if _, err := models.ParseNarrativeField(string(field)); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft.SituationDescription == nil {
		c.draft.SituationDescription = &models.SituationDescription{}
	}
	c.draft.SituationDescription.SetNarrative(field, text)
	c.draft.AIGeneratedContent.Set(field, text)
	c.dirty = true

	c.logger.Info("narrative applied", map[string]interface{}{"field": string(field)})
	c.persistLocked(ctx)
	return nil
}

// Persist retries a save when the session is dirty.
func (c *Controller) Persist(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	return c.persistLocked(ctx)
}

// SetLocale switches the validation message language.
func (c *Controller) SetLocale(locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
}

// ==========================
// Read Accessors
// ==========================

func (c *Controller) CurrentStep() models.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() models.ApplicationDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *Controller) LastPersistedAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastPersistedAt == nil {
		return nil
	}
	t := *c.lastPersistedAt
	return &t
}

// IsStepComplete reports whether step's section is present and valid.
func (c *Controller) IsStepComplete(step models.Step) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeLocked(step)
}

func (c *Controller) HasSubmittedSuccessfully() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

func (c *Controller) Locale() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

// Snapshot returns the session as it would be persisted.
func (c *Controller) Snapshot() models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked().Clone()
}

// ==========================
// Internals
// ==========================

func (c *Controller) snapshotLocked() models.SessionSnapshot {
	return models.SessionSnapshot{
		Version:                  models.SnapshotVersion,
		CurrentStep:              c.step,
		FormData:                 c.draft,
		LastSaved:                c.lastPersistedAt,
		HasSubmittedSuccessfully: c.submitted,
	}
}

// persistLocked saves the session. A failed save leaves the session dirty;
// the store has already logged it.
func (c *Controller) persistLocked(ctx context.Context) error {
	c.dirty = true
	now := c.now().UTC()
	snap := c.snapshotLocked()
	snap.LastSaved = &now

	if err := c.store.Save(ctx, snap.Clone()); err != nil {
		return err
	}
	c.dirty = false
	c.lastPersistedAt = &now
	return nil
}

func (c *Controller) applySectionLocked(section models.Section) {
	switch s := section.(type) {
	case models.PersonalInfo:
		c.draft.PersonalInfo = &s
	case models.FamilyFinancial:
		c.draft.FamilyFinancial = &s
	case models.SituationDescription:
		if s.Documents != nil {
			s.Documents = append([]string(nil), s.Documents...)
		}
		c.draft.SituationDescription = &s
	}
	c.dirty = true
}

func (c *Controller) transitionLocked(action string, from models.Step) {
	metrics.StepTransitions.WithLabelValues(action, string(from), string(c.step)).Inc()
	c.logger.Info("wizard transition", map[string]interface{}{
		"action": action,
		"from":   string(from),
		"to":     string(c.step),
	})
}

// normalizeSection dereferences pointer sections so the draft never aliases
// caller memory.
func normalizeSection(section models.Section) (models.Section, error) {
	switch s := section.(type) {
	case nil:
		return nil, ErrNilSection
	case *models.PersonalInfo:
		if s == nil {
			return nil, ErrNilSection
		}
		return *s, nil
	case *models.FamilyFinancial:
		if s == nil {
			return nil, ErrNilSection
		}
		return *s, nil
	case *models.SituationDescription:
		if s == nil {
			return nil, ErrNilSection
		}
		return *s, nil
	case models.PersonalInfo, models.FamilyFinancial, models.SituationDescription:
		return s, nil
	}
	return nil, fmt.Errorf("unsupported section type %T", section)
}
