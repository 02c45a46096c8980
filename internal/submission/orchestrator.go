// internal/submission/orchestrator.go
package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "assistance-wizard/internal/common/errors"
	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/metrics"
	"assistance-wizard/internal/common/observability"
	"assistance-wizard/internal/common/validation"
	"assistance-wizard/internal/models"
	"assistance-wizard/internal/wizard"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrAlreadySubmitted   = errors.New("application was already submitted")
)

const (
	msgFixFields = "Please correct the highlighted fields before submitting."
	msgWrongStep = "Return to the situation description step before submitting."
)

// Session is the part of the wizard controller the orchestrator needs.
type Session interface {
	Draft() models.ApplicationDraft
	Advance(ctx context.Context, section models.Section) (validation.FieldErrors, error)
	CompleteAndAdvanceToSuccess(ctx context.Context) error
	HasSubmittedSuccessfully() bool
}

// Orchestrator sends the assembled draft to the submission backend once per
// call and moves the wizard to success only on a confirmed receipt.
type Orchestrator struct {
	mu       sync.Mutex
	inFlight bool

	config  *Config
	session Session
	client  Client
	obs     *observability.Observability
	errs    *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewOrchestrator(config *Config, session Session, client Client, obs *observability.Observability, log logger.Logger) *Orchestrator {
	log = log.Named("submission")
	return &Orchestrator{
		config:  config,
		session: session,
		client:  client,
		obs:     obs,
		errs:    apperrors.NewErrorHandler(log),
		logger:  log,
	}
}

// Submit stores situation through the wizard and submits the full draft.
// On failure the wizard stays where it is with the draft intact.
func (o *Orchestrator) Submit(ctx context.Context, situation models.SituationDescription) (*Receipt, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		metrics.Submissions.WithLabelValues("rejected_in_flight").Inc()
		return nil, ErrSubmissionInFlight
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if o.session.HasSubmittedSuccessfully() {
		return nil, ErrAlreadySubmitted
	}

	draft, err := o.prepare(ctx, situation)
	if err != nil {
		metrics.Submissions.WithLabelValues(apperrors.KindOf(err).String()).Inc()
		return nil, err
	}

	receipt, err := o.send(ctx, draft)
	if err != nil {
		return nil, err
	}

	if err := o.session.CompleteAndAdvanceToSuccess(ctx); err != nil {
		return nil, err
	}

	o.logger.Info("application submitted", map[string]interface{}{
		"applicationId": receipt.ApplicationID,
	})
	return receipt, nil
}

// prepare checks the earlier sections, then validates and stores situation.
func (o *Orchestrator) prepare(ctx context.Context, situation models.SituationDescription) (models.ApplicationDraft, error) {
	draft := o.session.Draft()
	if draft.PersonalInfo == nil {
		return draft, apperrors.NewSectionMissingError("personalInfo")
	}
	if draft.FamilyFinancial == nil {
		return draft, apperrors.NewSectionMissingError("familyFinancial")
	}

	fieldErrs, err := o.session.Advance(ctx, situation)
	if errors.Is(err, wizard.ErrWrongStep) {
		appErr := apperrors.NewValidationError(msgWrongStep, nil)
		appErr.Details = "situationDescription"
		return draft, appErr
	}
	if err != nil {
		return draft, apperrors.NewUnknownError(err)
	}
	if len(fieldErrs) > 0 {
		appErr := apperrors.NewValidationError(msgFixFields, fieldErrs)
		appErr.Details = "situationDescription"
		return draft, appErr
	}

	return o.session.Draft(), nil
}

func (o *Orchestrator) send(ctx context.Context, draft models.ApplicationDraft) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	ctx, span := o.obs.StartSpan(ctx, "submission.submit",
		attribute.Bool("has_additional_income", draft.FamilyFinancial.AdditionalIncome != ""),
	)

	start := time.Now()
	receipt, err := o.client.Submit(ctx, draft)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		appErr := o.errs.Handle(err)
		err = appErr
		outcome = appErr.Kind.String()
		o.logger.Warn("submission failed", map[string]interface{}{
			"kind": outcome,
			"code": string(appErr.Code),
		})
	}

	metrics.Submissions.WithLabelValues(outcome).Inc()
	metrics.CollaboratorCallDuration.WithLabelValues("submission", outcome).Observe(elapsed.Seconds())
	o.obs.RecordCall(ctx, "submission", outcome, elapsed)
	observability.EndSpan(span, err)

	if err != nil {
		return nil, err
	}
	return receipt, nil
}
