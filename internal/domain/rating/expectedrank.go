package rating

// ExpectedRankOption applies a configuration option to the ExpectedRankModel.
type ExpectedRankOption func(*ExpectedRankModel)

// WithExpectedRankKCurve overrides the K-factor curve parameters.
func WithExpectedRankKCurve(min, max, decay float64) ExpectedRankOption {
	return func(m *ExpectedRankModel) {
		if min > 0 && max >= min && decay > 0 {
			m.k = kCurve{min: min, max: max, decay: decay}
		}
	}
}

// ExpectedRankModel treats the whole game as a single multi-way contest:
// each player's expected finishing rank is derived from pairwise win
// probabilities, and the rating moves by how far the actual rank beat or
// missed that expectation. It shares the Elo logistic curve but keeps its
// own rating column and games-played counter.
type ExpectedRankModel struct {
	k kCurve
}

// NewExpectedRankModel creates the model with default K-curve parameters.
func NewExpectedRankModel(opts ...ExpectedRankOption) *ExpectedRankModel {
	m := &ExpectedRankModel{k: defaultKCurve()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Model.
func (m *ExpectedRankModel) Name() string { return "cf" }

// Deltas returns the unrounded per-player rating changes for one game.
//
// E[rank_i] = 1 + sum over opponents of P(opponent beats i). Lower rank is
// better, so finishing above expectation (actual < expected) yields a
// positive delta. Tied opponents contribute the symmetric 0.5 through the
// logistic curve, matching the pairwise model's draw semantics.
func (m *ExpectedRankModel) Deltas(standings []Standing) (map[string]float64, error) {
	if err := validateStandings(standings); err != nil {
		return nil, err
	}

	deltas := make(map[string]float64, len(standings))
	for i, s := range standings {
		expected := 1.0
		for j, o := range standings {
			if j == i {
				continue
			}
			expected += winProbability(o.Rating, s.Rating)
		}
		deltas[s.PlayerID] = m.k.factor(s.GamesPlayed) * (expected - s.Position)
	}

	return deltas, nil
}

// ApplyGame implements Model.
func (m *ExpectedRankModel) ApplyGame(standings []Standing) (map[string]int, error) {
	deltas, err := m.Deltas(standings)
	if err != nil {
		return nil, err
	}
	return roundDeltas(deltas), nil
}
