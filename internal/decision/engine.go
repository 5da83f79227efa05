// Package decision scores candidate actions against historical patterns and
// the current objective context.
package decision

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apiarylabs/regent/pkg/models"
)

// PatternStore is the slice of the memory store the engine needs. Every
// decision is appended back to the store, closing the feedback loop.
type PatternStore interface {
	FindSimilarPatterns(ctx context.Context, text string) ([]*models.Pattern, error)
	AppendDecision(ctx context.Context, d *models.Decision) error
}

// Request describes one decision to make.
type Request struct {
	// Objective is the free-text objective the decision concerns.
	Objective string
	// State is the coordinator's view of the current situation.
	State State
	// Options are the candidate actions to score.
	Options []string
}

// State carries the context the engine penalizes or rewards against.
type State struct {
	// Phase is the objective's lifecycle state, included in the audit record.
	Phase models.ObjectiveState
	// PreviouslyFailed lists options that already failed for this objective;
	// they are penalized rather than excluded.
	PreviouslyFailed []string
}

// Scoring weights. History dominates, keyword overlap nudges, and a prior
// failure costs more than the overlap bonus can recover.
const (
	defaultSuccessRate = 0.5
	keywordBonus       = 0.05
	failurePenalty     = 0.3
	maxConfidence      = 0.95
)

// Engine ranks options by historical success, keyword overlap with the
// objective, and prior failures.
type Engine struct {
	store PatternStore
}

// New creates an Engine over the given store. The store is required: every
// decision is recorded for future scoring.
func New(store PatternStore) *Engine {
	return &Engine{store: store}
}

// Decide scores every option and returns the ranked choice with a confidence
// value and human-readable reasoning. The decision is appended to the store
// before returning.
func (e *Engine) Decide(ctx context.Context, req Request) (*models.Decision, error) {
	if len(req.Options) == 0 {
		return nil, fmt.Errorf("no options to decide between")
	}

	best := ""
	bestScore := math.Inf(-1)
	var bestReasons []string

	for _, option := range req.Options {
		score, reasons, err := e.score(ctx, req, option)
		if err != nil {
			return nil, err
		}
		if score > bestScore {
			best = option
			bestScore = score
			bestReasons = reasons
		}
	}

	d := &models.Decision{
		ID:         uuid.New().String()[:8],
		Context:    req.Objective,
		Options:    append([]string(nil), req.Options...),
		Chosen:     best,
		Confidence: confidence(bestScore),
		Reasoning:  strings.Join(bestReasons, "; "),
		Timestamp:  time.Now(),
	}
	if err := e.store.AppendDecision(ctx, d); err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}
	return d, nil
}

// score computes one option's score and the reasons that produced it.
func (e *Engine) score(ctx context.Context, req Request, option string) (float64, []string, error) {
	var reasons []string

	patterns, err := e.store.FindSimilarPatterns(ctx, option)
	if err != nil {
		return 0, nil, fmt.Errorf("pattern lookup for %q: %w", option, err)
	}

	score := defaultSuccessRate
	if len(patterns) > 0 {
		sum := 0.0
		for _, p := range patterns {
			sum += p.SuccessRate
		}
		score = sum / float64(len(patterns))
		reasons = append(reasons, fmt.Sprintf(
			"%q has a historical success rate of %.2f across %d matching pattern(s)",
			option, score, len(patterns)))
	} else {
		reasons = append(reasons, fmt.Sprintf(
			"%q has no execution history, assuming a neutral success rate of %.2f",
			option, defaultSuccessRate))
	}

	if shared := sharedKeywords(option, req.Objective); shared > 0 {
		bonus := float64(shared) * keywordBonus
		score += bonus
		reasons = append(reasons, fmt.Sprintf(
			"%d keyword(s) shared with the objective (+%.2f)", shared, bonus))
	}

	for _, failed := range req.State.PreviouslyFailed {
		if strings.EqualFold(failed, option) {
			score -= failurePenalty
			reasons = append(reasons, fmt.Sprintf(
				"option previously failed for this objective (-%.2f)", failurePenalty))
			break
		}
	}

	return score, reasons, nil
}

// confidence normalizes a score into [0.05, 0.95].
func confidence(score float64) float64 {
	if score > maxConfidence {
		return maxConfidence
	}
	if score < 0.05 {
		return 0.05
	}
	return score
}

// sharedKeywords counts words longer than two characters that appear in both
// texts, case-insensitively.
func sharedKeywords(a, b string) int {
	inB := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(b)) {
		if len(w) > 2 {
			inB[strings.Trim(w, ".,;:!?")] = true
		}
	}

	count := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(a)) {
		w = strings.Trim(w, ".,;:!?")
		w = strings.ReplaceAll(w, "_", " ")
		for _, part := range strings.Fields(w) {
			if len(part) > 2 && inB[part] && !seen[part] {
				seen[part] = true
				count++
			}
		}
	}
	return count
}
