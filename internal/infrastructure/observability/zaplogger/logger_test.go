package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core), observability.F("service", "svc"))

	l.With(observability.F("use_case", "order.checkout")).
		Info("use_case_done", observability.F("outcome", "success"), observability.F("cause", errors.New("boom")))
	l.Debug("stock_changed")

	entries := logs.All()
	require.Len(t, entries, 2)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "use_case_done", entries[0].Message)
	assert.Equal(t, "svc", ctx["service"])
	assert.Equal(t, "order.checkout", ctx["use_case"])
	assert.Equal(t, "success", ctx["outcome"])
	assert.Equal(t, "boom", ctx["cause"])

	assert.NotContains(t, entries[1].ContextMap(), "use_case")
}
