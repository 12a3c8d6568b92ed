package testkit

import (
	"math"
	"math/rand"

	"shelflife/domain/stability"
)

// ParameterProfile describes how one quality attribute drifts at long-term storage
type ParameterProfile struct {
	Name         string  `json:"name"`
	Initial      float64 `json:"initial"`
	RatePerMonth float64 `json:"rate_per_month"` // Negative for assay loss, positive for impurity growth
}

// StabilityGeneratorConfig configures the synthetic stability-study generator
type StabilityGeneratorConfig struct {
	LongTermConditions    []string           `json:"long_term_conditions"`
	AcceleratedConditions []string           `json:"accelerated_conditions"`
	Parameters            []ParameterProfile `json:"parameters"`
	LongTermTimepoints    []float64          `json:"long_term_timepoints"`
	AcceleratedTimepoints []float64          `json:"accelerated_timepoints"`
	AccelerationFactor    float64            `json:"acceleration_factor"` // Rate multiplier at accelerated conditions
	Replicates            int                `json:"replicates"`
	Noise                 float64            `json:"noise"` // Std dev of additive measurement noise
	Seed                  int64              `json:"seed"`
}

// DefaultStabilityConfig returns a small ICH-shaped study: two long-term and one accelerated
// condition, assay plus one impurity, standard pull points
func DefaultStabilityConfig() StabilityGeneratorConfig {
	return StabilityGeneratorConfig{
		LongTermConditions:    []string{"25C_60RH", "30C_65RH"},
		AcceleratedConditions: []string{"40C_75RH"},
		Parameters: []ParameterProfile{
			{Name: "assay", Initial: 100, RatePerMonth: -0.25},
			{Name: "impurity_total", Initial: 0.05, RatePerMonth: 0.02},
		},
		LongTermTimepoints:    []float64{0, 3, 6, 9, 12, 18, 24},
		AcceleratedTimepoints: []float64{0, 1, 3, 6},
		AccelerationFactor:    4,
		Replicates:            1,
		Noise:                 0.05,
		Seed:                  42,
	}
}

// StabilityDataGenerator produces reproducible linear-drift observations
type StabilityDataGenerator struct {
	config StabilityGeneratorConfig
	rng    *rand.Rand
}

// NewStabilityDataGenerator creates a generator seeded from config
func NewStabilityDataGenerator(config StabilityGeneratorConfig) *StabilityDataGenerator {
	return &StabilityDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns every (condition, parameter, timepoint, replicate) observation
func (g *StabilityDataGenerator) Generate() []stability.Observation {
	var out []stability.Observation
	for _, condition := range g.config.LongTermConditions {
		out = append(out, g.series(condition, g.config.LongTermTimepoints, 1)...)
	}
	for _, condition := range g.config.AcceleratedConditions {
		out = append(out, g.series(condition, g.config.AcceleratedTimepoints, g.config.AccelerationFactor)...)
	}
	return out
}

// Store wraps Generate in an observation store
func (g *StabilityDataGenerator) Store() stability.Store {
	return stability.NewStore(g.Generate()...)
}

func (g *StabilityDataGenerator) series(condition string, timepoints []float64, factor float64) []stability.Observation {
	replicates := g.config.Replicates
	if replicates < 1 {
		replicates = 1
	}

	var out []stability.Observation
	for _, p := range g.config.Parameters {
		for _, t := range timepoints {
			for r := 0; r < replicates; r++ {
				value := p.Initial + p.RatePerMonth*factor*t + g.rng.NormFloat64()*g.config.Noise
				out = append(out, stability.Observation{
					Time:      t,
					Condition: condition,
					Parameter: p.Name,
					Value:     round(value, 4),
				})
			}
		}
	}
	return out
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Line returns exact points on value = slope*t + intercept, for fixtures
func Line(condition, parameter string, slope, intercept float64, times ...float64) []stability.Observation {
	out := make([]stability.Observation, len(times))
	for i, t := range times {
		out[i] = stability.Observation{Time: t, Condition: condition, Parameter: parameter, Value: slope*t + intercept}
	}
	return out
}
