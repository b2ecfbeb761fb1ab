package zones

import (
	"math/rand/v2"

	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

// trained consults a learned model: context, energy bucket, pattern
// transition, then bigram.
type trained struct {
	m   *model.TrainedModel
	t   tuning.Tuning
	rng *rand.Rand
}

func (s *trained) Name() string { return "trained" }

func (s *trained) Choose(h []int, ctx Context) (int, bool) {
	if ctxZones := tail(h, 4); ctxZones != nil {
		if z, ok := model.Select(s.m.NextInContext(ctxZones[0], ctxZones[1:]), s.rng); ok {
			return z, true
		}
	}

	if s.rng.Float64() < s.t.EnergyBucketChance {
		if z, ok := model.Select(s.m.ZonesForEnergy(model.EnergyBucket(ctx.Energy)), s.rng); ok {
			return z, true
		}
	}

	if gram := tail(h, 3); gram != nil && s.rng.Float64() < s.t.PatternChance {
		if z, ok := nextFromTransition(s.m, gram, s.rng); ok {
			return z, true
		}
	}

	return model.Select(s.m.NextAfter(last(h)), s.rng)
}

func nextFromTransition(m *model.TrainedModel, gram []int, rng *rand.Rand) (int, bool) {
	key, ok := model.Select(m.FollowingPatterns(gram), rng)
	if !ok {
		return 0, false
	}
	next, err := model.ParsePattern(key)
	if err != nil || len(next) == 0 {
		return 0, false
	}
	return next[0], true
}

// expert consults the hand-authored knowledge base: pattern completion,
// energy bucket, then bigram. Each lookup applies with its tuned chance so
// the audio-driven strategies still get a say.
type expert struct {
	m   *model.TrainedModel
	t   tuning.Tuning
	rng *rand.Rand
}

func (s *expert) Name() string { return "expert" }

func (s *expert) Choose(h []int, ctx Context) (int, bool) {
	if pair := tail(h, 2); pair != nil && s.rng.Float64() < s.t.PatternChance {
		if z, ok := model.Select(s.m.Completions(pair[0], pair[1]), s.rng); ok {
			return z, true
		}
	}

	if s.rng.Float64() < s.t.EnergyBucketChance {
		if z, ok := model.Select(s.m.ZonesForEnergy(model.EnergyBucket(ctx.Energy)), s.rng); ok {
			return z, true
		}
	}

	// the bigram table answers for every zone; the gate leaves spectral a share
	if s.rng.Float64() < s.t.ExpertBigramChance {
		return model.Select(s.m.NextAfter(last(h)), s.rng)
	}
	return 0, false
}
