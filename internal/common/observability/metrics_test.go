package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_SpansAndCalls(t *testing.T) {
	reg := promclient.NewRegistry()
	recorder := tracetest.NewSpanRecorder()

	obs, err := New("wizard-test", WithRegisterer(reg), WithSpanProcessor(recorder))
	require.NoError(t, err)

	ctx, span := obs.StartSpan(context.Background(), "submission.submit", attribute.String("step", "situation-description"))
	obs.RecordCall(ctx, "submission", "success", 120*time.Millisecond)
	EndSpan(span, errors.New("server rejected"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "submission.submit", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.True(t, containsPrefix(names, "collaborator_calls"), "got %v", names)
	assert.True(t, containsPrefix(names, "collaborator_duration"), "got %v", names)

	require.NoError(t, obs.Shutdown(context.Background()))
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability

	ctx, span := obs.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	obs.RecordCall(ctx, "textgen", "error", time.Second)
	EndSpan(span, nil)
	assert.NoError(t, obs.Shutdown(context.Background()))
}

func containsPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}
