package test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	metrics "github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
)

// MockMetricRecorder is a testify mock of metrics.MetricRecorder.
// Tests usually stub every method with mock.Anything and assert the calls they care about.
type MockMetricRecorder struct {
	mock.Mock
}

func (m *MockMetricRecorder) RecordRunStart(ctx context.Context, runID string) {
	m.Called(ctx, runID)
}

func (m *MockMetricRecorder) RecordRunEnd(ctx context.Context, runID string, duration time.Duration, err error) {
	m.Called(ctx, runID, duration, err)
}

func (m *MockMetricRecorder) RecordStage(ctx context.Context, stage string, duration time.Duration, rows int) {
	m.Called(ctx, stage, duration, rows)
}

func (m *MockMetricRecorder) RecordEligibility(ctx context.Context, status string, count int) {
	m.Called(ctx, status, count)
}

func (m *MockMetricRecorder) RecordHourVerdict(ctx context.Context, profile string, pass bool) {
	m.Called(ctx, profile, pass)
}

func (m *MockMetricRecorder) RecordSinkWrite(ctx context.Context, sink string, err error) {
	m.Called(ctx, sink, err)
}

// NewPermissiveMetricRecorder returns a mock accepting every call.
func NewPermissiveMetricRecorder() *MockMetricRecorder {
	m := &MockMetricRecorder{}
	m.On("RecordRunStart", mock.Anything, mock.Anything).Maybe()
	m.On("RecordRunEnd", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordStage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordEligibility", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordHourVerdict", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordSinkWrite", mock.Anything, mock.Anything, mock.Anything).Maybe()
	return m
}

var _ metrics.MetricRecorder = (*MockMetricRecorder)(nil)
