package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesAllJobs(t *testing.T) {
	srv := inferenceStub(t, `{"type":"other","confidence":0.7}`, `{}`, `{}`)
	defer srv.Close()

	q := NewQueue(newTestProcessor(srv.URL), discardLogger(),
		WithWorkers(2),
		WithQueueSize(8),
		WithProcessTimeout(time.Minute),
	)

	const jobs = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*Result
	)
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		err := q.Enqueue(context.Background(), Job{
			Request: LoadDocumentRequest{Content: []byte("some document text"), MIMEType: "text/plain"},
			Done: func(res *Result, err error) {
				defer wg.Done()
				require.NoError(t, err)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			},
		})
		require.NoError(t, err)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Len(t, results, jobs)
	for _, res := range results {
		require.NotNil(t, res.Classification)
		assert.Nil(t, res.Invoice)
		assert.Nil(t, res.Receipt)
	}
}

func TestQueueShutdownIsIdempotent(t *testing.T) {
	srv := inferenceStub(t, `{"type":"other","confidence":0.7}`, `{}`, `{}`)
	defer srv.Close()

	q := NewQueue(newTestProcessor(srv.URL), discardLogger(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}

func TestQueueDropsJobsAfterShutdown(t *testing.T) {
	srv := inferenceStub(t, `{"type":"other","confidence":0.7}`, `{}`, `{}`)
	defer srv.Close()

	q := NewQueue(newTestProcessor(srv.URL), discardLogger(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	called := false
	err := q.Enqueue(context.Background(), Job{
		Request: LoadDocumentRequest{Content: []byte("x"), MIMEType: "text/plain"},
		Done:    func(*Result, error) { called = true },
	})
	require.NoError(t, err)
	assert.False(t, called)
}
