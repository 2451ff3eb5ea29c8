package mirror

import (
	"context"
	"log"
	"time"

	"github.com/vortex-market/vortex-dao/src/gov/types"
)

const publishTimeout = 10 * time.Second

type eventKind int

const (
	kindProposal eventKind = iota
	kindVote
	kindExecution
)

type event struct {
	kind       eventKind
	proposal   *types.Proposal
	proposalID uint64
	voterID    string
	choice     string
	power      float64
}

// Publisher decouples governance operations from the external ledger with a
// bounded queue and one background worker. Enqueue calls never block: when
// the queue is full the event is dropped with a dead-letter log line, since
// a slow mirror must not stall voting.
type Publisher struct {
	mirror Mirror
	queue  chan event
	done   chan struct{}
}

func NewPublisher(m Mirror, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Publisher{
		mirror: m,
		queue:  make(chan event, queueSize),
		done:   make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case ev := <-p.queue:
			p.publish(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-p.queue:
					p.publish(ev)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (p *Publisher) Wait() {
	<-p.done
}

func (p *Publisher) publish(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var err error
	switch ev.kind {
	case kindProposal:
		err = p.mirror.PublishProposal(ctx, ev.proposal)
	case kindVote:
		err = p.mirror.PublishVote(ctx, ev.proposalID, ev.voterID, ev.choice, ev.power)
	case kindExecution:
		err = p.mirror.PublishExecution(ctx, ev.proposalID)
	}
	if err != nil {
		log.Printf("mirror: publish failed (proposal %d): %v", ev.proposalID, err)
	}
}

func (p *Publisher) enqueue(ev event) {
	select {
	case p.queue <- ev:
	default:
		log.Printf("mirror: queue full, dropping event for proposal %d", ev.proposalID)
	}
}

func (p *Publisher) EnqueueProposal(prop *types.Proposal) {
	cp := *prop
	p.enqueue(event{kind: kindProposal, proposal: &cp, proposalID: prop.ID})
}

func (p *Publisher) EnqueueVote(proposalID uint64, voterID, choice string, power float64) {
	p.enqueue(event{kind: kindVote, proposalID: proposalID, voterID: voterID, choice: choice, power: power})
}

func (p *Publisher) EnqueueExecution(proposalID uint64) {
	p.enqueue(event{kind: kindExecution, proposalID: proposalID})
}
