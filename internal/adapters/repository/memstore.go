package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/types"
	"github.com/amaydixit11/UnoLeaderboard/pkg/metrics"
)

// Treap-backed, in-memory Store implementation.
//
// Each rating model keeps its own ordered index. Ordering: rating DESC,
// then playerID ASC (deterministic). "Less" means ranks earlier, so an
// in-order traversal produces the leaderboard from best to worst.

// treap node
type node struct {
	id     string
	rating int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) ranks earlier than (bRating, bID).
func less(aRating int, aID string, bRating int, bID string) bool {
	if aRating != bRating {
		return aRating > bRating // higher rating ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// ratingToPriority keeps higher ratings near the treap root.
func ratingToPriority(r int) uint64 {
	const offset = uint64(1) << 63
	return uint64(int64(r)) + offset
}

func insert(n *node, id string, r int) *node {
	if n == nil {
		return &node{id: id, rating: r, prio: ratingToPriority(r), size: 1}
	}
	if less(r, id, n.rating, n.id) {
		n.left = insert(n.left, id, r)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, r)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, r int) *node {
	if n == nil {
		return nil
	}
	if r == n.rating && id == n.id {
		// Merge children by rotating highest priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, r)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, r)
		}
	} else if less(r, id, n.rating, n.id) {
		n.left = deleteNode(n.left, id, r)
	} else {
		n.right = deleteNode(n.right, id, r)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order (best first).
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{PlayerID: n.id, Rating: n.rating})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// assignRanksWithTies gives equal ratings equal ranks; the next distinct
// rating gets the next consecutive rank.
func assignRanksWithTies(entries []Entry) {
	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank
		same := 1
		for j := i + 1; j < len(entries) && entries[j].Rating == entries[i].Rating; j++ {
			entries[j].Rank = currentRank
			same++
		}
		currentRank++
		i += same - 1
	}
}

// MemStore holds players, the chronological game record, and one treap
// index per rating model.
type MemStore struct {
	mu      sync.RWMutex
	players map[string]*model.Player
	games   []model.Game
	gameIDs map[string]struct{}
	boards  map[types.ModelID]*node
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore(ctx context.Context) *MemStore {
	s := &MemStore{
		players: make(map[string]*model.Player),
		gameIDs: make(map[string]struct{}),
		boards:  make(map[types.ModelID]*node, len(types.Models())),
	}
	for _, m := range types.Models() {
		s.boards[m] = nil
	}
	return s
}

// newPlayer creates the default rating state for an unseen player.
func newPlayer(id string) *model.Player {
	return &model.Player{
		ID:  id,
		Elo: model.ModelRating{Rating: rating.BaseRating},
		CF:  model.ModelRating{Rating: rating.BaseRating},
		WHR: model.ModelRating{Rating: rating.BaseRating},
		OpenSkill: model.OpenSkillState{
			Mu:      rating.DefaultMu,
			Sigma:   rating.DefaultSigma,
			Ordinal: rating.BaseRating,
		},
	}
}

// reindex moves a player's node on one model board to a new rating.
func (s *MemStore) reindex(m types.ModelID, playerID string, oldRating, newRating int, existed bool) {
	if existed {
		s.boards[m] = deleteNode(s.boards[m], playerID, oldRating)
	}
	s.boards[m] = insert(s.boards[m], playerID, newRating)
}

// RecordGame implements Store.RecordGame.
func (s *MemStore) RecordGame(ctx context.Context, g model.Game) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.gameIDs[g.GameID]; dup {
		metrics.RecordErrorByComponent("repository", "duplicate_game")
		return fmt.Errorf("game %s: %w", g.GameID, ErrDuplicateGame)
	}

	for _, part := range g.Participants {
		p, existed := s.players[part.PlayerID]
		if !existed {
			p = newPlayer(part.PlayerID)
			s.players[part.PlayerID] = p
		}

		s.reindex(types.ModelElo, p.ID, p.Elo.Rating, part.Elo.After, existed)
		p.Elo = model.ModelRating{Rating: part.Elo.After, GamesPlayed: p.Elo.GamesPlayed + 1}

		s.reindex(types.ModelCF, p.ID, p.CF.Rating, part.CF.After, existed)
		p.CF = model.ModelRating{Rating: part.CF.After, GamesPlayed: p.CF.GamesPlayed + 1}

		// The whole-history rating is refitted wholesale after the game is
		// recorded; only its games counter moves here.
		if !existed {
			s.reindex(types.ModelWHR, p.ID, 0, p.WHR.Rating, false)
		}
		p.WHR.GamesPlayed++

		if part.OpenSkillSigma > 0 {
			s.reindex(types.ModelOpenSkill, p.ID, p.OpenSkill.Ordinal, part.OpenSkill.After, existed)
			p.OpenSkill = model.OpenSkillState{
				Mu:          part.OpenSkillMu,
				Sigma:       part.OpenSkillSigma,
				Ordinal:     part.OpenSkill.After,
				GamesPlayed: p.OpenSkill.GamesPlayed + 1,
			}
		} else if !existed {
			s.reindex(types.ModelOpenSkill, p.ID, 0, p.OpenSkill.Ordinal, false)
		}
	}

	s.games = append(s.games, g)
	s.gameIDs[g.GameID] = struct{}{}

	metrics.UpdateStorePlayersTotal(len(s.players))
	metrics.UpdateStoreGamesTotal(len(s.games))
	return nil
}

// ApplyTrajectory implements Store.ApplyTrajectory.
func (s *MemStore) ApplyTrajectory(ctx context.Context, t *rating.Trajectory) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, fitted := range t.Ratings {
		p, ok := s.players[id]
		if !ok {
			// Trajectories are fitted from the stored history, so every
			// fitted player must already exist.
			metrics.RecordErrorByComponent("repository", "unknown_player")
			return fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		if fitted != p.WHR.Rating {
			s.reindex(types.ModelWHR, id, p.WHR.Rating, fitted, true)
			p.WHR.Rating = fitted
		}
	}
	return nil
}

// Player implements Store.Player.
func (s *MemStore) Player(ctx context.Context, playerID string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Player{}, ErrNotFound
	}
	return *p, nil
}

// Players implements Store.Players.
func (s *MemStore) Players(ctx context.Context, playerIDs []string) []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if p, ok := s.players[id]; ok {
			out = append(out, *p)
		} else {
			out = append(out, *newPlayer(id))
		}
	}
	return out
}

// TopN implements Store.TopN.
func (s *MemStore) TopN(ctx context.Context, m types.ModelID, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !m.Valid() {
		metrics.RecordErrorByComponent("repository", "unknown_model")
		return nil, fmt.Errorf("%q: %w", m, ErrUnknownModel)
	}
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.boards[m], n, &out)
	assignRanksWithTies(out)
	for i := range out {
		if p, ok := s.players[out[i].PlayerID]; ok {
			out[i].GamesPlayed = gamesPlayed(p, m)
		}
	}
	return out, nil
}

func gamesPlayed(p *model.Player, m types.ModelID) int {
	switch m {
	case types.ModelElo:
		return p.Elo.GamesPlayed
	case types.ModelCF:
		return p.CF.GamesPlayed
	case types.ModelWHR:
		return p.WHR.GamesPlayed
	case types.ModelOpenSkill:
		return p.OpenSkill.GamesPlayed
	}
	return 0
}

// History implements Store.History.
func (s *MemStore) History(ctx context.Context) []rating.HistoryGame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rating.HistoryGame, 0, len(s.games))
	for _, g := range s.games {
		hg := rating.HistoryGame{
			GameID:     g.GameID,
			PlayedAt:   g.PlayedAt,
			Placements: make([]rating.HistoryPlacement, 0, len(g.Participants)),
		}
		for _, part := range g.Participants {
			hg.Placements = append(hg.Placements, rating.HistoryPlacement{
				PlayerID: part.PlayerID,
				Position: part.NormalizedPosition,
			})
		}
		out = append(out, hg)
	}
	return out
}

// Games implements Store.Games.
func (s *MemStore) Games(ctx context.Context) []model.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Game, len(s.games))
	copy(out, s.games)
	return out
}

// Count implements Store.Count.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// GameCount implements Store.GameCount.
func (s *MemStore) GameCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
