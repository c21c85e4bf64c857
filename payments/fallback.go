package payments

import (
	"context"
	"time"

	"go.vocdoni.io/dvote/log"
)

// FallbackKind names a soft-failure policy that fired.
type FallbackKind string

const (
	FallbackSyntheticTransfer    FallbackKind = "synthetic_transfer"
	FallbackUnknownAccountStatus FallbackKind = "unknown_account_status"
)

// Fallback is the trace left when an operation answered with a placeholder
// instead of failing. Operators alert on these.
type Fallback struct {
	Kind        FallbackKind `json:"kind" bson:"kind"`
	Subject     string       `json:"subject" bson:"subject"`
	Amount      int64        `json:"amount,omitempty" bson:"amount,omitempty"`
	SyntheticID string       `json:"syntheticId,omitempty" bson:"syntheticId,omitempty"`
	Reason      string       `json:"reason" bson:"reason"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
}

// FallbackRecorder stores fallbacks somewhere an operator can look at them.
type FallbackRecorder interface {
	RecordFallback(ctx context.Context, fallback *Fallback) error
}

// record hands fb to the configured recorder. It runs detached from the
// caller's cancellation, the call that produced it may already have timed out.
func (b *base) record(ctx context.Context, fb *Fallback) {
	if b.conf.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.conf.CallTimeout)
	defer cancel()
	if err := b.conf.Recorder.RecordFallback(ctx, fb); err != nil {
		log.Errorw(err, "could not record payment fallback")
	}
}
