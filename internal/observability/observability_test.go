package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementKind(t *testing.T) {
	assert.Equal(t, "select", statementKind(`SELECT * FROM "posts"`))
	assert.Equal(t, "insert", statementKind("  insert into follows"))
	assert.Equal(t, "other", statementKind("PRAGMA foreign_keys = ON"))
	assert.Equal(t, "unknown", statementKind(""))
}

func TestObserveQuery(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	ObserveQuery("DELETE FROM posts", time.Now())
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), before)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "inkwell-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, finish := StartServiceSpan(context.Background(), "PostService", "Create")
	finish(errors.New("boom"))
	assert.Equal(t, "", TraceIDFromContext(ctx))
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "inkwell-test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1.0,
	})
	require.NoError(t, err)
	defer func() {
		_ = shutdown(context.Background())
		_, _ = InitTracing(TracingConfig{ServiceName: "inkwell"})
	}()

	ctx, finish := StartServiceSpan(context.Background(), "FollowService", "Follow")
	defer finish(nil)
	assert.Len(t, TraceIDFromContext(ctx), 32)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", newSampler(1.5).Description())
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartClientSpan(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: true, Exporter: "stdout", SamplerRatio: 1})
	require.NoError(t, err)
	defer func() {
		_ = shutdown(context.Background())
		_, _ = InitTracing(TracingConfig{ServiceName: "inkwell"})
	}()

	ctx, finish := StartClientSpan(context.Background(), "redis", "get")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	finish(errors.New("connection refused"))
}
