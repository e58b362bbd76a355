package rating

// PairwiseOption applies a configuration option to the PairwiseModel.
type PairwiseOption func(*PairwiseModel)

// WithPairwiseKCurve overrides the K-factor curve parameters.
func WithPairwiseKCurve(min, max, decay float64) PairwiseOption {
	return func(m *PairwiseModel) {
		if min > 0 && max >= min && decay > 0 {
			m.k = kCurve{min: min, max: max, decay: decay}
		}
	}
}

// PairwiseModel is the Elo-style model. It decomposes an N-player game into
// C(N,2) two-player virtual matches and sums each player's per-pair deltas.
// Summing (rather than averaging over N-1 opponents) is deliberate: winning
// a larger field yields a strictly larger swing.
type PairwiseModel struct {
	k kCurve
}

// NewPairwiseModel creates the model with default K-curve parameters.
func NewPairwiseModel(opts ...PairwiseOption) *PairwiseModel {
	m := &PairwiseModel{k: defaultKCurve()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Model.
func (m *PairwiseModel) Name() string { return "elo" }

// Deltas returns the unrounded per-player rating changes for one game.
// A strictly lower normalized position counts as a win; an exactly equal
// position scores both sides 0.5, so tied players exchange nothing.
func (m *PairwiseModel) Deltas(standings []Standing) (map[string]float64, error) {
	if err := validateStandings(standings); err != nil {
		return nil, err
	}

	deltas := make(map[string]float64, len(standings))
	for _, s := range standings {
		deltas[s.PlayerID] = 0
	}

	for i := 0; i < len(standings); i++ {
		for j := i + 1; j < len(standings); j++ {
			a, b := standings[i], standings[j]

			expectedA := winProbability(a.Rating, b.Rating)
			var scoreA float64
			switch {
			case a.Position < b.Position:
				scoreA = 1
			case a.Position > b.Position:
				scoreA = 0
			default:
				scoreA = 0.5
			}

			deltas[a.PlayerID] += m.k.factor(a.GamesPlayed) * (scoreA - expectedA)
			deltas[b.PlayerID] += m.k.factor(b.GamesPlayed) * ((1 - scoreA) - (1 - expectedA))
		}
	}

	return deltas, nil
}

// ApplyGame implements Model.
func (m *PairwiseModel) ApplyGame(standings []Standing) (map[string]int, error) {
	deltas, err := m.Deltas(standings)
	if err != nil {
		return nil, err
	}
	return roundDeltas(deltas), nil
}
