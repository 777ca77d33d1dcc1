package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexEncoder returns [i] for a text "t<i>" and tracks call concurrency.
type indexEncoder struct {
	mu       sync.Mutex
	calls    [][]string
	inFlight atomic.Int32
	peak     atomic.Int32
	failOn   string
}

func (e *indexEncoder) Model() string { return "index" }

func (e *indexEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	e.mu.Lock()
	e.calls = append(e.calls, texts)
	e.mu.Unlock()

	out := make([][]float64, len(texts))
	for i, t := range texts {
		if t == e.failOn {
			return nil, errors.New("backend down")
		}
		v, err := strconv.Atoi(t[1:])
		if err != nil {
			return nil, err
		}
		out[i] = []float64{float64(v)}
	}
	return out, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}

func TestBatchEncoderPreservesOrder(t *testing.T) {
	inner := &indexEncoder{}
	enc := NewBatchEncoder(inner, 3, 2)

	got, err := enc.Encode(context.Background(), texts(10))
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, v := range got {
		assert.Equal(t, []float64{float64(i)}, v)
	}

	assert.Len(t, inner.calls, 4)
	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
	assert.Equal(t, "index", enc.Model())
}

func TestBatchEncoderSmallInputSingleCall(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		n         int
	}{
		{"fits in one batch", 8, 5},
		{"batching disabled", 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &indexEncoder{}
			_, err := NewBatchEncoder(inner, tt.batchSize, 4).Encode(context.Background(), texts(tt.n))
			require.NoError(t, err)
			assert.Len(t, inner.calls, 1)
		})
	}
}

func TestBatchEncoderFailure(t *testing.T) {
	inner := &indexEncoder{failOn: "t7"}
	_, err := NewBatchEncoder(inner, 2, 3).Encode(context.Background(), texts(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch [6:8]")
	assert.Contains(t, err.Error(), "backend down")
}

func TestBatchEncoderShortBatch(t *testing.T) {
	inner := &stubEncoder{vectors: [][]float64{{1}}}
	_, err := NewBatchEncoder(inner, 2, 1).Encode(context.Background(), texts(4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 vectors")
}
