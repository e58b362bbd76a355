package rating

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Default Whole-History optimizer parameters.
const (
	defaultSweeps        = 100
	defaultDriftVariance = 0.1 // latent variance added per elapsed day
	defaultMinGapDays    = 0.5
	defaultMinCurvature  = 1e-6
	hoursPerDay          = 24
)

// HistoryPlacement is one player's normalized position in a historical game.
type HistoryPlacement struct {
	PlayerID string
	Position float64
}

// HistoryGame is one entry of the chronological record fed to the optimizer.
type HistoryGame struct {
	GameID     string
	PlayedAt   time.Time
	Placements []HistoryPlacement
}

// Trajectory is the fitted output: the latest display rating per player plus
// a per-game snapshot and change for every participant. Changes are relative
// to the participant's immediately preceding snapshot, or BaseRating for
// their first game.
type Trajectory struct {
	Ratings   map[string]int
	Snapshots map[string]map[string]int // gameID -> playerID -> rating after
	Changes   map[string]map[string]int // gameID -> playerID -> change
}

// WholeHistoryOption applies a configuration option to the WholeHistory model.
type WholeHistoryOption func(*WholeHistory)

// WithSweeps sets the fixed number of Newton-Raphson sweeps. Bounding the
// count guarantees termination regardless of convergence.
func WithSweeps(n int) WholeHistoryOption {
	return func(w *WholeHistory) {
		if n > 0 {
			w.sweeps = n
		}
	}
}

// WithDriftVariance sets the Wiener-prior variance added per elapsed day,
// controlling how fast a player's latent strength may drift between games.
func WithDriftVariance(v float64) WholeHistoryOption {
	return func(w *WholeHistory) {
		if v > 0 {
			w.driftVariance = v
		}
	}
}

// WithMinGapDays sets the floor applied to the day gap between a player's
// consecutive games, keeping the prior variance away from zero for
// back-to-back games.
func WithMinGapDays(d float64) WholeHistoryOption {
	return func(w *WholeHistory) {
		if d > 0 {
			w.minGapDays = d
		}
	}
}

// WithMinCurvature sets how negative the Hessian must be before a Newton
// step is applied. Near-zero or positive curvature marks a degenerate
// update, which is skipped rather than risked.
func WithMinCurvature(c float64) WholeHistoryOption {
	return func(w *WholeHistory) {
		if c > 0 {
			w.minCurvature = c
		}
	}
}

// WholeHistory jointly infers a smoothly time-varying latent strength for
// every player from the complete game record. Game outcomes enter through a
// Plackett-Luce decomposition of each finishing order; consecutive latent
// values of the same player are tied together by a Gaussian random walk.
//
// The walk prior couples every latent to its temporal neighbors, so a new
// game can shift the fitted curve of any past game. Fit therefore re-solves
// the whole history from scratch; it is tractable because histories stay
// small.
type WholeHistory struct {
	sweeps        int
	driftVariance float64
	minGapDays    float64
	minCurvature  float64
}

// NewWholeHistory creates the optimizer with default parameters.
func NewWholeHistory(opts ...WholeHistoryOption) *WholeHistory {
	w := &WholeHistory{
		sweeps:        defaultSweeps,
		driftVariance: defaultDriftVariance,
		minGapDays:    defaultMinGapDays,
		minCurvature:  defaultMinCurvature,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name identifies the model's rating column.
func (w *WholeHistory) Name() string { return "whr" }

// whrAppearance is one (player, game) latent value.
type whrAppearance struct {
	game    int     // index into the sorted history
	r       float64 // latent log-strength; 0 is league average
	gapDays float64 // days since the player's previous appearance
}

// whrPlayer is a player's chronological timeline of appearances.
type whrPlayer struct {
	apps []*whrAppearance
}

// whrGame holds a game's participants grouped by tied normalized position,
// in finishing order (best group first).
type whrGame struct {
	id     string
	groups [][]*whrAppearance
}

// Fit runs the batch optimization over the full history and returns the
// fitted trajectory. The history is sorted by timestamp internally, so the
// caller's ordering does not affect the result.
func (w *WholeHistory) Fit(history []HistoryGame) (*Trajectory, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	games, players, err := w.build(history)
	if err != nil {
		return nil, err
	}

	// Deterministic sweep order.
	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for sweep := 0; sweep < w.sweeps; sweep++ {
		for _, id := range ids {
			p := players[id]
			for i, app := range p.apps {
				grad, hess := w.gameDerivatives(games[app.game], app)
				pg, ph := w.priorDerivatives(p, i)
				grad += pg
				hess += ph
				if hess <= -w.minCurvature {
					app.r -= grad / hess
				}
			}
		}
	}

	return w.trajectory(games, players), nil
}

// build sorts the history, groups tied positions, and assembles every
// player's timeline with floored day gaps.
func (w *WholeHistory) build(history []HistoryGame) ([]*whrGame, map[string]*whrPlayer, error) {
	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b HistoryGame) int {
		if c := a.PlayedAt.Compare(b.PlayedAt); c != 0 {
			return c
		}
		// Same-instant games fall back to id order for determinism.
		switch {
		case a.GameID < b.GameID:
			return -1
		case a.GameID > b.GameID:
			return 1
		}
		return 0
	})

	games := make([]*whrGame, len(sorted))
	players := make(map[string]*whrPlayer)

	for gi, hg := range sorted {
		if len(hg.Placements) == 0 {
			return nil, nil, fmt.Errorf("game %s: %w", hg.GameID, ErrNoParticipants)
		}

		placements := slices.Clone(hg.Placements)
		slices.SortStableFunc(placements, func(a, b HistoryPlacement) int {
			switch {
			case a.Position < b.Position:
				return -1
			case a.Position > b.Position:
				return 1
			case a.PlayerID < b.PlayerID:
				return -1
			case a.PlayerID > b.PlayerID:
				return 1
			}
			return 0
		})

		g := &whrGame{id: hg.GameID}
		seen := make(map[string]struct{}, len(placements))
		lastPos := math.Inf(-1)
		for _, pl := range placements {
			if pl.PlayerID == "" {
				return nil, nil, fmt.Errorf("game %s: %w", hg.GameID, ErrMissingPlayer)
			}
			if _, dup := seen[pl.PlayerID]; dup {
				return nil, nil, fmt.Errorf("game %s: player %s: %w", hg.GameID, pl.PlayerID, ErrDuplicatePlayer)
			}
			seen[pl.PlayerID] = struct{}{}
			if math.IsNaN(pl.Position) || pl.Position <= 0 {
				return nil, nil, fmt.Errorf("game %s: player %s: %w", hg.GameID, pl.PlayerID, ErrInvalidPosition)
			}

			p, ok := players[pl.PlayerID]
			if !ok {
				p = &whrPlayer{}
				players[pl.PlayerID] = p
			}

			app := &whrAppearance{game: gi}
			if n := len(p.apps); n > 0 {
				prev := sorted[p.apps[n-1].game].PlayedAt
				gap := hg.PlayedAt.Sub(prev).Hours() / hoursPerDay
				if gap < w.minGapDays {
					gap = w.minGapDays
				}
				app.gapDays = gap
			}
			p.apps = append(p.apps, app)

			// Extend the current tie group or open a new one. Tied
			// positions are exact (averages of the same index multiset),
			// so equality comparison is intended.
			if n := len(g.groups); n > 0 && pl.Position == lastPos {
				g.groups[n-1] = append(g.groups[n-1], app)
			} else {
				g.groups = append(g.groups, []*whrAppearance{app})
			}
			lastPos = pl.Position
		}
		games[gi] = g
	}

	return games, players, nil
}

// gameDerivatives returns the first and second derivative of the game's
// Plackett-Luce log-likelihood with respect to the target appearance's
// latent value, holding all other latents fixed.
//
// The finishing order is decomposed into rounds: each tie group is selected
// simultaneously from the remaining pool, every selection contributing
// fraction terms for everyone still in the pool. Accumulation stops once the
// target's group is removed.
func (w *WholeHistory) gameDerivatives(g *whrGame, target *whrAppearance) (grad, hess float64) {
	poolSum := 0.0
	for _, grp := range g.groups {
		for _, app := range grp {
			poolSum += math.Exp(app.r)
		}
	}

	strength := math.Exp(target.r)
	for _, grp := range g.groups {
		m := float64(len(grp))
		f := 0.0
		if poolSum > 0 { // degenerate pool: treat fraction as zero
			f = strength / poolSum
		}

		selected := false
		for _, app := range grp {
			if app == target {
				selected = true
				break
			}
		}

		if selected {
			grad += 1 - m*f
		} else {
			grad -= m * f
		}
		hess -= m * f * (1 - f)

		if selected {
			break
		}
		for _, app := range grp {
			poolSum -= math.Exp(app.r)
		}
	}
	return grad, hess
}

// priorDerivatives returns the random-walk prior's contribution for the
// i-th appearance of player p. A side with no temporal neighbor is simply
// omitted.
func (w *WholeHistory) priorDerivatives(p *whrPlayer, i int) (grad, hess float64) {
	apps := p.apps
	if i > 0 {
		v := w.driftVariance * apps[i].gapDays
		grad -= (apps[i].r - apps[i-1].r) / v
		hess -= 1 / v
	}
	if i < len(apps)-1 {
		v := w.driftVariance * apps[i+1].gapDays
		grad -= (apps[i].r - apps[i+1].r) / v
		hess -= 1 / v
	}
	return grad, hess
}

// displayRating maps a natural-log latent onto the 1000-centred decimal
// logistic scale shared with the other models.
func displayRating(r float64) int {
	return int(math.Round(BaseRating + r*logisticScale/math.Ln10))
}

// trajectory converts fitted latents into display ratings, per-game
// snapshots, and per-game changes.
func (w *WholeHistory) trajectory(games []*whrGame, players map[string]*whrPlayer) *Trajectory {
	t := &Trajectory{
		Ratings:   make(map[string]int, len(players)),
		Snapshots: make(map[string]map[string]int, len(games)),
		Changes:   make(map[string]map[string]int, len(games)),
	}
	for _, g := range games {
		t.Snapshots[g.id] = make(map[string]int)
		t.Changes[g.id] = make(map[string]int)
	}

	for id, p := range players {
		prev := BaseRating
		for _, app := range p.apps {
			rating := displayRating(app.r)
			gameID := games[app.game].id
			t.Snapshots[gameID][id] = rating
			t.Changes[gameID][id] = rating - prev
			prev = rating
		}
		t.Ratings[id] = prev
	}
	return t
}
