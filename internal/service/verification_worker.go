package service

import (
	"context"
	"errors"
	"time"

	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dequeueTimeout = 5 * time.Second

// VerificationWorker drains the proof submission queue, checks each proof
// against the attestation oracle and reports the outcome through the
// lending service under the trusted-reporter identity. It is an optional
// convenience; the admin verification endpoint remains the canonical
// write path.
type VerificationWorker struct {
	queue    ports.SubmissionQueue
	oracle   ports.AttestationOracle
	lending  ports.LendingService
	reporter uuid.UUID
	log      zerolog.Logger
}

// NewVerificationWorker creates a new VerificationWorker. The reporter must
// hold the administrator role or every report will be rejected.
func NewVerificationWorker(
	queue ports.SubmissionQueue,
	oracle ports.AttestationOracle,
	lending ports.LendingService,
	reporter uuid.UUID,
	log zerolog.Logger,
) *VerificationWorker {
	return &VerificationWorker{
		queue:    queue,
		oracle:   oracle,
		lending:  lending,
		reporter: reporter,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, processing submissions one at a time.
func (w *VerificationWorker) Run(ctx context.Context) {
	w.log.Info().Msg("verification worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("verification worker stopped")
			return
		default:
		}

		sub, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			continue
		}
		if sub == nil {
			continue // timed out, poll again
		}

		w.process(ctx, sub)
	}
}

func (w *VerificationWorker) process(ctx context.Context, sub *domain.ProofSubmission) {
	valid, err := w.oracle.Verify(ctx, sub.Proof)
	if err != nil {
		w.log.Error().Err(err).
			Str("proof_hash", string(sub.ProofHash)).
			Msg("oracle verify failed, submission dropped")
		return
	}

	var score int64
	if valid {
		score, err = w.oracle.ExtractScore(ctx, sub.Proof)
		if err != nil {
			w.log.Error().Err(err).
				Str("proof_hash", string(sub.ProofHash)).
				Msg("oracle score extraction failed, submission dropped")
			return
		}
	}

	req := ports.RecordVerificationRequest{
		ProofHash: sub.ProofHash,
		Borrower:  sub.Submitter,
		IsValid:   valid,
		Score:     score,
	}
	if err := w.lending.RecordVerification(ctx, w.reporter, req); err != nil {
		w.log.Error().Err(err).
			Str("proof_hash", string(sub.ProofHash)).
			Msg("recording verification failed")
		return
	}

	w.log.Info().
		Str("proof_hash", string(sub.ProofHash)).
		Bool("valid", valid).
		Int64("score", score).
		Msg("verification recorded")
}
