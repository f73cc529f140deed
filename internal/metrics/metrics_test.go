package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	if m == nil {
		t.Fatal("NewMetricsWithRegistry returned nil")
	}
	if m.OperationsTotal == nil {
		t.Error("OperationsTotal metric is nil")
	}
	if m.BytesProcessed == nil {
		t.Error("BytesProcessed metric is nil")
	}
	if m.OperationDuration == nil {
		t.Error("OperationDuration metric is nil")
	}
	if m.ErrorsTotal == nil {
		t.Error("ErrorsTotal metric is nil")
	}
}

func TestRecordOperationSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordOperation("encrypt", true, 0.01, 1024)

	got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("encrypt", "ok"))
	if got != 1 {
		t.Errorf("OperationsTotal{op=encrypt,result=ok} = %v, want 1", got)
	}
	gotBytes := testutil.ToFloat64(m.BytesProcessed.WithLabelValues("encrypt"))
	if gotBytes != 1024 {
		t.Errorf("BytesProcessed{op=encrypt} = %v, want 1024", gotBytes)
	}
}

func TestRecordOperationFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordOperation("decrypt", false, 0.002, 0)

	got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("decrypt", "error"))
	if got != 1 {
		t.Errorf("OperationsTotal{op=decrypt,result=error} = %v, want 1", got)
	}
}

func TestRecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordError("saltpack: hmac verification failed")
	m.RecordError("saltpack: hmac verification failed")

	got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("saltpack: hmac verification failed"))
	if got != 2 {
		t.Errorf("ErrorsTotal = %v, want 2", got)
	}
}

func TestDefaultReturnsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() returned different instances across calls")
	}
}
