package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type AttestorMetrics struct {
	verifications           *prometheus.CounterVec
	verificationDuration    prometheus.Histogram
	currentGuardianSetIndex prometheus.Gauge
	currentGuardianSetSize  prometheus.Gauge
	guardianSetInstalls     prometheus.Counter
	decodedPayloads         *prometheus.CounterVec
	claimsConsumed          *prometheus.CounterVec
	replaysRejected         *prometheus.CounterVec
	secondsSinceLastClaim   *prometheus.GaugeVec

	timeKeeper *TimeKeeper
}

var attestorMetricsRegisterOnce sync.Once

var attestorMetricsInstance *AttestorMetrics

// NewAttestorMetrics returns the process-wide attestor metrics, registering
// them with the default prometheus registry on first use.
func NewAttestorMetrics() *AttestorMetrics {
	attestorMetricsRegisterOnce.Do(func() {
		attestorMetricsInstance = &AttestorMetrics{
			verifications: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "attestor_envelope_verifications_total",
					Help: "Total number of envelope verifications by result",
				},
				[]string{"result"},
			),
			verificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "attestor_envelope_verification_seconds",
				Help:    "Time spent verifying envelope signatures",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
			}),
			currentGuardianSetIndex: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "attestor_current_guardian_set_index",
				Help: "Index of the current guardian set",
			}),
			currentGuardianSetSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "attestor_current_guardian_set_size",
				Help: "Number of guardians in the current guardian set",
			}),
			guardianSetInstalls: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "attestor_guardian_set_installs_total",
				Help: "Total number of guardian sets installed through governance",
			}),
			decodedPayloads: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "attestor_decoded_payloads_total",
					Help: "Total number of payloads decoded by kind",
				},
				[]string{"kind"},
			),
			claimsConsumed: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "attestor_claims_consumed_total",
					Help: "Total number of claims consumed by emitter chain",
				},
				[]string{"emitter_chain"},
			),
			replaysRejected: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "attestor_replays_rejected_total",
					Help: "Total number of submissions of already consumed envelopes by emitter chain",
				},
				[]string{"emitter_chain"},
			),
			secondsSinceLastClaim: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "attestor_seconds_since_last_claim",
					Help: "Seconds since an envelope from the emitter chain was last consumed",
				},
				[]string{"emitter_chain"},
			),
			timeKeeper: NewTimeKeeper(),
		}

		prometheus.MustRegister(attestorMetricsInstance.verifications)
		prometheus.MustRegister(attestorMetricsInstance.verificationDuration)
		prometheus.MustRegister(attestorMetricsInstance.currentGuardianSetIndex)
		prometheus.MustRegister(attestorMetricsInstance.currentGuardianSetSize)
		prometheus.MustRegister(attestorMetricsInstance.guardianSetInstalls)
		prometheus.MustRegister(attestorMetricsInstance.decodedPayloads)
		prometheus.MustRegister(attestorMetricsInstance.claimsConsumed)
		prometheus.MustRegister(attestorMetricsInstance.replaysRejected)
		prometheus.MustRegister(attestorMetricsInstance.secondsSinceLastClaim)
	})

	return attestorMetricsInstance
}

func (am *AttestorMetrics) RecordVerification(result string, elapsed time.Duration) {
	am.verifications.WithLabelValues(result).Inc()
	am.verificationDuration.Observe(elapsed.Seconds())
}

func (am *AttestorMetrics) RecordGuardianSet(index uint32, size int) {
	am.currentGuardianSetIndex.Set(float64(index))
	am.currentGuardianSetSize.Set(float64(size))
}

func (am *AttestorMetrics) IncrementGuardianSetInstalls() {
	am.guardianSetInstalls.Inc()
}

func (am *AttestorMetrics) IncrementDecodedPayloads(kind string) {
	am.decodedPayloads.WithLabelValues(kind).Inc()
}

func (am *AttestorMetrics) RecordClaimConsumed(emitterChain string) {
	am.claimsConsumed.WithLabelValues(emitterChain).Inc()
	am.timeKeeper.RecordClaimTime(emitterChain)
}

func (am *AttestorMetrics) IncrementReplaysRejected(emitterChain string) {
	am.replaysRejected.WithLabelValues(emitterChain).Inc()
}

// UpdateClaimAges refreshes the seconds-since-last-claim gauges.
func (am *AttestorMetrics) UpdateClaimAges() {
	for chain, last := range am.timeKeeper.LastClaimTimes() {
		am.secondsSinceLastClaim.WithLabelValues(chain).Set(time.Since(last).Seconds())
	}
}
