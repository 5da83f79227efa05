package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apiarylabs/regent/pkg/models"
)

// AppendPattern records a pattern. Patterns are append-only.
func (s *SQLiteStore) AppendPattern(ctx context.Context, p *models.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (id, task_type, agent_sequence, success_rate, avg_duration_ms, last_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, string(p.TaskType), joinRoles(p.AgentSequence), p.SuccessRate,
		p.AvgDuration.Milliseconds(), formatTime(p.LastUsed), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append pattern: %w", err)
	}
	return nil
}

// FindBestPattern returns the pattern with the highest success rate for a
// task type, preferring recently used ones on ties. Returns nil when no
// history exists.
func (s *SQLiteStore) FindBestPattern(ctx context.Context, taskType models.TaskType) (*models.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, task_type, agent_sequence, success_rate, avg_duration_ms, last_used
		FROM patterns
		WHERE task_type = ?
		ORDER BY success_rate DESC, last_used DESC
		LIMIT 1
	`, string(taskType))

	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find best pattern: %w", err)
	}
	return p, nil
}

// FindSimilarPatterns performs a full-text search over task type and agent
// sequence using keywords extracted from the text, best match first.
func (s *SQLiteStore) FindSimilarPatterns(ctx context.Context, text string) ([]*models.Pattern, error) {
	keywords := extractKeywords(text)
	if len(keywords) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.Join(keywords, " OR ")
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.task_type, p.agent_sequence, p.success_rate, p.avg_duration_ms, p.last_used
		FROM patterns p
		JOIN patterns_fts fts ON p.rowid = fts.rowid
		WHERE patterns_fts MATCH ?
		ORDER BY rank
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search patterns: %w", err)
	}
	defer rows.Close()

	var out []*models.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AppendDecision records a decision audit record. Decisions are write-once.
func (s *SQLiteStore) AppendDecision(ctx context.Context, d *models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, context, options, chosen, confidence, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Context, strings.Join(d.Options, "\n"), d.Chosen,
		d.Confidence, d.Reasoning, formatTime(d.Timestamp))
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// ListDecisions returns the most recent decisions up to limit.
func (s *SQLiteStore) ListDecisions(ctx context.Context, limit int) ([]*models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, context, options, chosen, confidence, reasoning, created_at
		FROM decisions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.Decision
	for rows.Next() {
		var d models.Decision
		var options, createdAt string
		if err := rows.Scan(&d.ID, &d.Context, &options, &d.Chosen, &d.Confidence, &d.Reasoning, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if options != "" {
			d.Options = strings.Split(options, "\n")
		}
		if t, err := parseTime(createdAt); err == nil {
			d.Timestamp = t
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*models.Pattern, error) {
	var p models.Pattern
	var taskType, sequence, lastUsed string
	var avgMS int64
	if err := row.Scan(&p.ID, &taskType, &sequence, &p.SuccessRate, &avgMS, &lastUsed); err != nil {
		return nil, err
	}
	p.TaskType = models.TaskType(taskType)
	p.AgentSequence = splitRoles(sequence)
	p.AvgDuration = time.Duration(avgMS) * time.Millisecond
	if t, err := parseTime(lastUsed); err == nil {
		p.LastUsed = t
	}
	return &p, nil
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}

func splitRoles(s string) []models.Role {
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	roles := make([]models.Role, 0, len(fields))
	for _, f := range fields {
		roles = append(roles, models.Role(f))
	}
	return roles
}

// stopWords are skipped during keyword extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "to": true,
	"for": true, "with": true, "of": true, "in": true, "on": true, "is": true,
}

// extractKeywords tokenizes text into FTS-safe keywords, dropping stop words
// and short tokens.
func extractKeywords(text string) []string {
	var keywords []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(field, `.,;:!?"'()[]{}`)
		if len(word) < 3 || stopWords[word] {
			continue
		}
		// Quote tokens so hyphenated roles survive FTS syntax.
		keywords = append(keywords, `"`+word+`"`)
	}
	return keywords
}
