package verifier

import (
	"time"

	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/metrics"
)

// Verifier wraps Verify with logging and metrics.
type Verifier struct {
	sets    GuardianSetGetter
	logger  *zap.Logger
	metrics *metrics.AttestorMetrics
	now     func() time.Time
}

func New(sets GuardianSetGetter, logger *zap.Logger, m *metrics.AttestorMetrics) *Verifier {
	return &Verifier{
		sets:    sets,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for guardian set expiry.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// Verify checks env against the guardian set it references.
func (v *Verifier) Verify(env *envelope.Envelope) (*envelope.Body, error) {
	start := time.Now()
	body, err := Verify(env, v.sets, v.now())
	elapsed := time.Since(start)

	if v.metrics != nil {
		v.metrics.RecordVerification(Reason(err), elapsed)
	}

	if err != nil {
		v.logger.Warn("envelope verification failed",
			zap.String("message_id", env.MessageID()),
			zap.String("digest", env.HexDigest()),
			zap.Uint32("guardian_set_index", env.GuardianSetIndex),
			zap.Int("num_signatures", len(env.Signatures)),
			zap.Error(err),
		)
		return nil, err
	}

	v.logger.Debug("envelope verified",
		zap.String("message_id", env.MessageID()),
		zap.String("digest", env.HexDigest()),
		zap.Uint32("guardian_set_index", env.GuardianSetIndex),
		zap.Int("num_signatures", len(env.Signatures)),
		zap.Duration("elapsed", elapsed),
	)

	return body, nil
}

// VerifyBytes decodes and verifies a wire encoded envelope.
func (v *Verifier) VerifyBytes(data []byte) (*envelope.Envelope, *envelope.Body, error) {
	env, err := envelope.Decode(data)
	if err != nil {
		if v.metrics != nil {
			v.metrics.RecordVerification("malformed", 0)
		}
		v.logger.Debug("failed to decode envelope", zap.Int("length", len(data)), zap.Error(err))
		return nil, nil, err
	}

	body, err := v.Verify(env)
	if err != nil {
		return env, nil, err
	}

	return env, body, nil
}
