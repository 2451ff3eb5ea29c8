package mirror

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

type capturingMirror struct {
	mu        sync.Mutex
	published []string
	block     chan struct{}
	fail      bool
}

func (m *capturingMirror) record(s string) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.published = append(m.published, s)
	m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("mirror unavailable")
	}
	return nil
}

func (m *capturingMirror) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.published...)
}

func (m *capturingMirror) PublishProposal(_ context.Context, p *types.Proposal) error {
	return m.record(fmt.Sprintf("proposal:%d", p.ID))
}

func (m *capturingMirror) PublishVote(_ context.Context, proposalID uint64, voterID, choice string, _ float64) error {
	return m.record(fmt.Sprintf("vote:%d:%s:%s", proposalID, voterID, choice))
}

func (m *capturingMirror) PublishExecution(_ context.Context, proposalID uint64) error {
	return m.record(fmt.Sprintf("execution:%d", proposalID))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPublisherDeliversInOrder(t *testing.T) {
	m := &capturingMirror{}
	p := NewPublisher(m, 16)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	p.EnqueueProposal(&types.Proposal{ID: 1})
	p.EnqueueVote(1, "alice", types.ChoiceYes, 3)
	p.EnqueueExecution(1)

	waitFor(t, func() bool { return len(m.snapshot()) == 3 })
	assert.Equal(t, []string{"proposal:1", "vote:1:alice:yes", "execution:1"}, m.snapshot())

	cancel()
	p.Wait()
}

func TestPublisherDropsWhenQueueFull(t *testing.T) {
	m := &capturingMirror{block: make(chan struct{})}
	p := NewPublisher(m, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	// First event occupies the worker, second fills the queue; everything
	// after that must drop without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			p.EnqueueExecution(uint64(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(m.block)
	cancel()
	p.Wait()
	assert.LessOrEqual(t, len(m.snapshot()), 3)
}

func TestPublisherFlushesOnShutdown(t *testing.T) {
	m := &capturingMirror{}
	p := NewPublisher(m, 16)

	for i := 1; i <= 5; i++ {
		p.EnqueueExecution(uint64(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go p.Run(ctx)
	p.Wait()

	assert.Len(t, m.snapshot(), 5)
}

func TestPublisherLogsAndContinuesOnFailure(t *testing.T) {
	m := &capturingMirror{fail: true}
	p := NewPublisher(m, 16)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	p.EnqueueExecution(1)
	p.EnqueueExecution(2)
	waitFor(t, func() bool { return len(m.snapshot()) == 2 })

	cancel()
	p.Wait()
}

func TestNoopMirror(t *testing.T) {
	var n Noop
	require.NoError(t, n.PublishProposal(context.Background(), &types.Proposal{}))
	require.NoError(t, n.PublishVote(context.Background(), 1, "a", types.ChoiceYes, 1))
	require.NoError(t, n.PublishExecution(context.Background(), 1))
}
