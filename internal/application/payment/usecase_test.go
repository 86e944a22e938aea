package payment_test

import (
	"context"
	"errors"
	"testing"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	outcome dompay.Outcome
	err     error
	calls   int
}

func (p *stubProcessor) Decide(context.Context, string) (dompay.Outcome, error) {
	p.calls++
	return p.outcome, p.err
}

type settlerFunc func(ctx context.Context, orderID string, outcome dompay.Outcome) (*apporder.SettleResult, error)

func (f settlerFunc) ApplyPaymentOutcome(ctx context.Context, orderID string, outcome dompay.Outcome) (*apporder.SettleResult, error) {
	return f(ctx, orderID, outcome)
}

func recordingSettler(applied *[]dompay.Outcome) settlerFunc {
	return func(_ context.Context, orderID string, outcome dompay.Outcome) (*apporder.SettleResult, error) {
		*applied = append(*applied, outcome)
		status := domorder.StatusCompleted
		if outcome == dompay.OutcomeFailure {
			status = domorder.StatusCancelled
		}
		return &apporder.SettleResult{OrderID: orderID, Status: status, Outcome: outcome}, nil
	}
}

func TestExecuteAppliesDecidedOutcome(t *testing.T) {
	var applied []dompay.Outcome
	proc := &stubProcessor{outcome: dompay.OutcomeFailure}
	uc := apppayment.NewSettleUseCase(proc, recordingSettler(&applied), nil)

	res, err := uc.Execute(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, res.Status)
	assert.Equal(t, []dompay.Outcome{dompay.OutcomeFailure}, applied)
}

func TestExecuteStopsOnProcessorError(t *testing.T) {
	var applied []dompay.Outcome
	proc := &stubProcessor{err: errors.New("gateway timeout")}
	uc := apppayment.NewSettleUseCase(proc, recordingSettler(&applied), nil)

	_, err := uc.Execute(context.Background(), "o-1")
	require.Error(t, err)
	assert.Empty(t, applied)

	proc.err, proc.outcome = nil, dompay.Outcome("Pending")
	_, err = uc.Execute(context.Background(), "o-1")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Empty(t, applied)
}

func TestExecuteRequiresOrderID(t *testing.T) {
	proc := &stubProcessor{outcome: dompay.OutcomeSuccess}
	uc := apppayment.NewSettleUseCase(proc, recordingSettler(new([]dompay.Outcome)), nil)

	_, err := uc.Execute(context.Background(), " ")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, proc.calls)
}

func TestSimulatedBypassesProcessor(t *testing.T) {
	var applied []dompay.Outcome
	proc := &stubProcessor{outcome: dompay.OutcomeFailure}
	uc := apppayment.NewSettleUseCase(proc, recordingSettler(&applied), nil)

	res, err := uc.Simulated(context.Background(), "o-1", dompay.OutcomeSuccess)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCompleted, res.Status)
	assert.Zero(t, proc.calls)
	assert.Equal(t, []dompay.Outcome{dompay.OutcomeSuccess}, applied)
}
