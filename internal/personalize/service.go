package personalize

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/metrics"
	"github.com/phrazzld/pksim-api/internal/platform/logger"
)

// ObservationSource returns a user's lab observations for one hormone class.
type ObservationSource interface {
	Observations(ctx context.Context, userID uuid.UUID, class domain.CompoundClass) ([]pk.Observation, error)
}

// Service fetches observations and runs the estimator. It never returns an
// error: every failure degrades to an estimate with no decay constant.
type Service struct {
	source       ObservationSource
	estimator    *pk.Estimator
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewService creates a Service. A zero fetchTimeout leaves fetches bounded
// only by the caller's context.
func NewService(source ObservationSource, estimator *pk.Estimator, fetchTimeout time.Duration, log *slog.Logger) *Service {
	if source == nil {
		panic("personalize: nil observation source")
	}
	if estimator == nil {
		estimator = pk.NewDefaultEstimator()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		source:       source,
		estimator:    estimator,
		fetchTimeout: fetchTimeout,
		logger:       log.With("component", "personalize_service"),
	}
}

// Estimate fits a decay constant for compound from userID's observations.
func (s *Service) Estimate(ctx context.Context, userID uuid.UUID, compound domain.Compound) pk.Estimate {
	start := time.Now()
	defer func() { metrics.EstimateDuration.Observe(time.Since(start).Seconds()) }()

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"user_id", userID,
		"compound", compound.Name,
	)

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	obs, err := s.source.Observations(fetchCtx, userID, compound.Class)
	if err != nil {
		log.Warn("observation fetch failed, using population model", "error", err)
		metrics.EstimatesTotal.WithLabelValues(metrics.OutcomeFetchError).Inc()
		return pk.Estimate{}
	}

	est := s.estimator.Estimate(compound, obs)
	if est.DecayConstant == nil {
		log.Debug("no usable observations",
			"observation_count", len(obs),
			"records_considered", est.RecordsConsidered)
		metrics.EstimatesTotal.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return est
	}

	log.Debug("decay constant estimated",
		"decay_constant", *est.DecayConstant,
		"records_used", est.RecordsUsed,
		"fallback_to_class", est.FallbackToClass)
	metrics.EstimatesTotal.WithLabelValues(metrics.OutcomeResolved).Inc()
	return est
}
