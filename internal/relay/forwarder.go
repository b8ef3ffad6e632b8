package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/qwe638853/GasPass-sub000/internal/db"
	"github.com/qwe638853/GasPass-sub000/internal/metrics"
	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// pending is one queued meta-transaction and its completion latch.
type pending struct {
	req      *MetaTxRequest
	done     chan struct{}
	result   *Result
	err      error
	requeued bool // nonce-conflict requeue happens at most once
}

// Forwarder orders and serializes meta-transaction submission.
//
// Requests queue per signer, sorted by the envelope nonce (FIFO among equal
// nonces). A worker drains each queue lowest-nonce first, pausing one
// ordering window before each pop so near-simultaneous submissions from the
// same signer land in nonce order even when they arrive out of order. Nonce
// ordering here is purely a courtesy to the contract's sequential meta-tx
// nonces; the contract remains the validity authority.
//
// Actual submission is serialized globally: the relayer owns a single account
// nonce, so two in-flight transactions would race it.
type Forwarder struct {
	submitter Submitter
	window    time.Duration
	audit     *db.Database // nil disables submission history

	submitMu sync.Mutex // serializes the single relayer key

	mu      sync.Mutex
	queues  map[common.Address][]*pending
	working map[common.Address]bool
	seen    map[string]*pending
	depth   int
}

// NewForwarder creates a forwarder over the given submitter. window is the
// same-signer coalescing delay; audit may be nil.
func NewForwarder(submitter Submitter, window time.Duration, audit *db.Database) *Forwarder {
	if window <= 0 {
		window = 25 * time.Millisecond
	}
	return &Forwarder{
		submitter: submitter,
		window:    window,
		audit:     audit,
		queues:    make(map[common.Address][]*pending),
		working:   make(map[common.Address]bool),
		seen:      make(map[string]*pending),
	}
}

// Forward enqueues the request and blocks until it lands (or fails). A
// request whose ID was seen before is not forwarded again; the original
// outcome is returned.
func (f *Forwarder) Forward(ctx context.Context, req *MetaTxRequest) (*Result, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("meta-tx request requires an id")
	}

	f.mu.Lock()
	if prior, ok := f.seen[req.ID]; ok {
		f.mu.Unlock()
		log.Printf("🔁 [Relay] Duplicate request id=%s, returning original outcome", req.ID)
		return f.wait(ctx, prior)
	}

	p := &pending{req: req, done: make(chan struct{})}
	f.seen[req.ID] = p
	f.enqueueLocked(p)
	if !f.working[req.Signer] {
		f.working[req.Signer] = true
		go f.drain(req.Signer)
	}
	f.mu.Unlock()

	return f.wait(ctx, p)
}

// wait blocks on the pending latch. Context cancellation abandons the wait
// but never the submission: once queued, the request runs to completion.
func (f *Forwarder) wait(ctx context.Context, p *pending) (*Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// enqueueLocked inserts sorted by nonce, after any equal nonce already
// queued. Caller holds f.mu.
func (f *Forwarder) enqueueLocked(p *pending) {
	q := f.queues[p.req.Signer]
	i := len(q)
	for i > 0 && q[i-1].req.Nonce > p.req.Nonce {
		i--
	}
	q = append(q, nil)
	copy(q[i+1:], q[i:])
	q[i] = p
	f.queues[p.req.Signer] = q

	f.depth++
	metrics.RelayQueueDepth.Set(float64(f.depth))
}

// drain pops the signer's queue lowest-nonce first until it is empty. The
// ordering window before each pop lets a lower nonce that is still in flight
// over HTTP overtake a higher one that arrived first.
func (f *Forwarder) drain(signer common.Address) {
	for {
		time.Sleep(f.window)

		f.mu.Lock()
		q := f.queues[signer]
		if len(q) == 0 {
			delete(f.queues, signer)
			f.working[signer] = false
			f.mu.Unlock()
			return
		}
		p := q[0]
		f.queues[signer] = q[1:]
		f.depth--
		metrics.RelayQueueDepth.Set(float64(f.depth))
		f.mu.Unlock()

		f.submit(p)
	}
}

// submit runs one submission under the relayer-key lock. A nonce conflict is
// requeued exactly once; everything else completes the latch.
func (f *Forwarder) submit(p *pending) {
	f.submitMu.Lock()
	result, err := f.submitter.Submit(context.Background(), p.req)
	f.submitMu.Unlock()

	if err != nil && isNonceConflict(err) && !p.requeued {
		log.Printf("⚠️ [Relay] Nonce conflict for id=%s, requeueing once: %v", p.req.ID, err)
		f.mu.Lock()
		p.requeued = true
		f.enqueueLocked(p)
		f.mu.Unlock()
		return
	}

	p.result = result
	p.err = err
	if err != nil {
		metrics.RelaySubmissions.WithLabelValues(string(p.req.Kind), "failed").Inc()
	} else {
		metrics.RelaySubmissions.WithLabelValues(string(p.req.Kind), "confirmed").Inc()
	}
	f.record(p)
	close(p.done)
}

// record writes the audit row for one completed submission. Best effort.
func (f *Forwarder) record(p *pending) {
	if f.audit == nil {
		return
	}

	row := &models.RelaySubmission{
		ID:          p.req.ID,
		Kind:        string(p.req.Kind),
		Signer:      p.req.Signer.Hex(),
		SignerNonce: p.req.Nonce,
		CreatedAt:   time.Now(),
	}
	switch {
	case p.err == nil:
		now := time.Now()
		row.Status = models.RelaySubmissionConfirmed
		row.TxHash = p.result.TxHash.Hex()
		row.ConfirmedAt = &now
		if p.result.TokenID != nil {
			row.TokenID = p.result.TokenID.String()
		}
	case errors.Is(p.err, ErrTxReverted):
		row.Status = models.RelaySubmissionReverted
		row.LastError = p.err.Error()
	default:
		row.Status = models.RelaySubmissionFailed
		row.LastError = p.err.Error()
	}

	if err := f.audit.SaveRelaySubmission(row); err != nil {
		log.Printf("⚠️ [Relay] Failed to persist submission %s: %v", p.req.ID, err)
	}
}

// QueueDepth reports how many requests are waiting across all signers.
func (f *Forwarder) QueueDepth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.depth
}
