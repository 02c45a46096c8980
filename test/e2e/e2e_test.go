// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistance-wizard/internal/assist"
	"assistance-wizard/internal/common/config"
	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/validation"
	"assistance-wizard/internal/models"
	"assistance-wizard/internal/persistence"
	"assistance-wizard/internal/stubserver"
	"assistance-wizard/internal/submission"
	"assistance-wizard/internal/textgen"
	"assistance-wizard/internal/wizard"
	"assistance-wizard/internal/wizard/wizardtest"
)

// stack is everything one wizard process would hold.
type stack struct {
	controller   *wizard.Controller
	coordinator  *assist.Coordinator
	orchestrator *submission.Orchestrator
	closeSlot    func() error
}

func buildConfig(t *testing.T, redisAddr, backendURL string) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Name: "assistance-wizard-e2e", Environment: "test"},
		Persistence: config.PersistenceConfig{
			Backend: config.BackendRedis,
			Key:     "e2e-device",
			Redis:   config.RedisConfig{Address: redisAddr},
		},
		Validation: config.ValidationConfig{NarrativeMinLength: 50, DefaultLocale: "en"},
		TextGen: config.TextGenConfig{
			Provider: config.ProviderHTTP,
			BaseURL:  backendURL,
			Timeout:  5000,
		},
		Submission: config.SubmissionConfig{BaseURL: backendURL, Timeout: 5000},
	}
}

// startProcess wires a fresh session the way cmd/wizard does.
func startProcess(t *testing.T, cfg *config.Config) *stack {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	slot, closeSlot, err := persistence.Open(ctx, cfg.Persistence)
	require.NoError(t, err, "❌ persistence open failed")

	validator, err := validation.NewValidator(cfg.Validation.NarrativeMinLength, cfg.Validation.DefaultLocale)
	require.NoError(t, err)

	wizardConfig := wizard.LoadConfig(cfg)
	wizardConfig.Now = func() time.Time { return wizardtest.FixedNow }
	controller := wizard.New(ctx, wizardConfig, persistence.NewAdapter(slot, cfg.Persistence.Key, log), validator, log)

	generator, err := textgen.New(ctx, textgen.LoadConfig(cfg), log)
	require.NoError(t, err)

	submissionConfig := submission.LoadConfig(cfg)
	return &stack{
		controller:   controller,
		coordinator:  assist.NewCoordinator(assist.LoadConfig(cfg), controller, generator, nil, log),
		orchestrator: submission.NewOrchestrator(submissionConfig, controller, submission.NewHTTPClient(submissionConfig), nil, log),
		closeSlot:    closeSlot,
	}
}

func (s *stack) stop(t *testing.T) {
	t.Helper()
	require.NoError(t, s.closeSlot())
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mr := miniredis.RunT(t)
	backend := httptest.NewServer(stubserver.New(&stubserver.Config{}, logger.NewTestLogger(t)).Handler())
	defer backend.Close()

	cfg := buildConfig(t, mr.Addr(), backend.URL+"/api")

	t.Log("🚀 Starting full application flow...")

	// 1. Personal info, with a failed attempt first
	proc := startProcess(t, cfg)
	errs, err := proc.controller.Advance(ctx, models.PersonalInfo{})
	require.NoError(t, err)
	assert.Contains(t, errs, "firstName")
	assert.Contains(t, errs, "lastName")
	assert.Equal(t, models.StepPersonalInfo, proc.controller.CurrentStep())

	errs, err = proc.controller.Advance(ctx, wizardtest.PersonalInfo())
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, models.StepFamilyFinancial, proc.controller.CurrentStep())
	t.Log("✅ Personal info saved")

	// 2. Restart the process; the session comes back from redis
	proc.stop(t)
	proc = startProcess(t, cfg)
	assert.Equal(t, models.StepFamilyFinancial, proc.controller.CurrentStep())
	assert.Equal(t, "John", proc.controller.Draft().PersonalInfo.FirstName)
	t.Log("✅ Session restored after restart")

	errs, err = proc.controller.Advance(ctx, wizardtest.FamilyFinancial())
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, models.StepSituationDescription, proc.controller.CurrentStep())

	// 3. Ask for a suggestion and accept it
	status, err := proc.coordinator.Generate(ctx, models.FieldReasonForApplying, proc.controller.Draft(), "en")
	require.NoError(t, err)
	require.Equal(t, assist.StateComplete, status.State, "generation failed: %v", status.Err)
	require.NoError(t, proc.coordinator.Accept(ctx, models.FieldReasonForApplying, status.Content))
	t.Log("✅ Suggestion accepted")

	situation := wizardtest.SituationDescription()
	situation.ReasonForApplying = proc.controller.Draft().SituationDescription.ReasonForApplying

	// 4. Submit
	receipt, err := proc.orchestrator.Submit(ctx, situation)
	require.NoError(t, err, "❌ submission failed")
	assert.Regexp(t, `^APP-\d+-[0-9a-f]{9}$`, receipt.ApplicationID)
	assert.Equal(t, models.StepSuccess, proc.controller.CurrentStep())
	assert.True(t, proc.controller.HasSubmittedSuccessfully())
	t.Logf("✅ Submitted as %s", receipt.ApplicationID)

	// 5. The success screen survives a restart
	proc.stop(t)
	proc = startProcess(t, cfg)
	assert.Equal(t, models.StepSuccess, proc.controller.CurrentStep())
	assert.True(t, proc.controller.HasSubmittedSuccessfully())
	assert.Equal(t, status.Content, proc.controller.Draft().AIGeneratedContent.ReasonForApplying)

	// 6. Start over
	require.NoError(t, proc.controller.Restart(ctx))
	assert.Equal(t, models.StepPersonalInfo, proc.controller.CurrentStep())
	assert.True(t, proc.controller.Draft().IsEmpty())
	assert.False(t, mr.Exists("wizard:snapshot:e2e-device"), "snapshot should be deleted")
	proc.stop(t)

	t.Log("✅ ALL STEPS PASSED")
}

func TestE2E_BackendUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	backend := httptest.NewServer(stubserver.New(&stubserver.Config{}, logger.NewTestLogger(t)).Handler())

	cfg := buildConfig(t, mr.Addr(), backend.URL+"/api")
	proc := startProcess(t, cfg)
	wizardtest.FillController(t, proc.controller)

	t.Log("🔌 Taking the backend down before submitting...")
	backend.Close()

	_, err := proc.orchestrator.Submit(ctx, wizardtest.SituationDescription())
	require.Error(t, err)
	assert.Equal(t, models.StepSituationDescription, proc.controller.CurrentStep())
	assert.False(t, proc.controller.HasSubmittedSuccessfully())
	proc.stop(t)

	// the draft is still there for a retry after restart
	proc = startProcess(t, cfg)
	assert.NotNil(t, proc.controller.Draft().SituationDescription)
	assert.Equal(t, models.StepSituationDescription, proc.controller.CurrentStep())
	proc.stop(t)
}
