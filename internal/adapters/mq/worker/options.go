// Package worker processes queued game submissions.
package worker

import (
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
)

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWholeHistory replaces the default whole-history optimizer, e.g. with
// tuned sweep or drift parameters.
func WithWholeHistory(wh *rating.WholeHistory) Option {
	return func(w *Worker) {
		if wh != nil {
			w.wholeHistory = wh
		}
	}
}

// WithProvider wires the optional external OpenSkill-style capability.
func WithProvider(p rating.Provider) Option {
	return func(w *Worker) {
		w.provider = p
	}
}

// WithModels replaces the per-game rating models, e.g. with tuned K curves.
func WithModels(pairwise, expectedRank rating.Model) Option {
	return func(w *Worker) {
		if pairwise != nil {
			w.pairwise = pairwise
		}
		if expectedRank != nil {
			w.expectedRank = expectedRank
		}
	}
}
