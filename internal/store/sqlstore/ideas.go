package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/store"
)

// ideaColumns is the ordered list of columns selected in idea queries.
// Must match the scan order in scanIdea.
const ideaColumns = `id, owner_id, content, source, project, theme, emotion,
	transformed_output, transformed_kind, created_at, updated_at`

// ideaOrder is the stable listing order: newest first, ID breaks ties.
const ideaOrder = ` ORDER BY created_at DESC, id ASC`

func scanIdea(scanner interface{ Scan(dest ...any) error }) (*domain.Idea, error) {
	var (
		idea      domain.Idea
		source    string
		project   sql.NullString
		theme     sql.NullString
		emotion   sql.NullString
		output    sql.NullString
		kind      sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&idea.ID,
		&idea.OwnerID,
		&idea.Content,
		&source,
		&project,
		&theme,
		&emotion,
		&output,
		&kind,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	idea.Source = domain.Source(source)
	idea.Project = project.String
	idea.Theme = theme.String
	idea.Emotion = emotion.String
	idea.TransformedOutput = output.String
	idea.TransformedKind = kind.String

	if idea.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if idea.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *Store) queryIdeas(ctx context.Context, query string, args ...any) ([]*domain.Idea, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ideas := make([]*domain.Idea, 0)
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// CreateIdea inserts a new idea. ID and timestamps must already be set.
func (s *Store) CreateIdea(ctx context.Context, idea *domain.Idea) error {
	if idea.UpdatedAt.IsZero() {
		idea.UpdatedAt = idea.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO ideas (`+ideaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		idea.ID,
		idea.OwnerID,
		idea.Content,
		string(idea.Source),
		nullString(idea.Project),
		nullString(idea.Theme),
		nullString(idea.Emotion),
		nullString(idea.TransformedOutput),
		nullString(idea.TransformedKind),
		formatTime(idea.CreatedAt),
		formatTime(idea.UpdatedAt),
	)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert idea: %w", err)
	}

	s.indexIdea(ctx, idea)
	return nil
}

// GetIdea retrieves an idea owned by ownerID.
func (s *Store) GetIdea(ctx context.Context, id, ownerID string) (*domain.Idea, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+ideaColumns+` FROM ideas
		WHERE id = ? AND owner_id = ?`), id, ownerID)

	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}
	return idea, nil
}

// GetIdeasByIDs returns the owner's ideas among ids, in the order of ids.
// Unknown and foreign IDs are skipped.
func (s *Store) GetIdeasByIDs(ctx context.Context, ownerID string, ids []string) ([]*domain.Idea, error) {
	if len(ids) == 0 {
		return []*domain.Idea{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for _, id := range ids {
		args = append(args, id)
	}

	found, err := s.queryIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas
		WHERE owner_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get ideas by ids: %w", err)
	}

	byID := make(map[string]*domain.Idea, len(found))
	for _, idea := range found {
		byID[idea.ID] = idea
	}
	ordered := make([]*domain.Idea, 0, len(found))
	for _, id := range ids {
		if idea, ok := byID[id]; ok {
			ordered = append(ordered, idea)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// UpdateIdea applies patch in a single statement and returns the stored row.
func (s *Store) UpdateIdea(ctx context.Context, id, ownerID string, patch domain.IdeaPatch) (*domain.Idea, error) {
	if patch.IsEmpty() {
		return s.GetIdea(ctx, id, ownerID)
	}

	sets := make([]string, 0, 7)
	args := make([]any, 0, 9)

	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Project != nil {
		sets = append(sets, "project = ?")
		args = append(args, nullablePatch(patch.Project))
	}
	if patch.Theme != nil {
		sets = append(sets, "theme = ?")
		args = append(args, nullablePatch(patch.Theme))
	}
	if patch.Emotion != nil {
		sets = append(sets, "emotion = ?")
		args = append(args, nullablePatch(patch.Emotion))
	}
	if patch.TransformedOutput != nil {
		sets = append(sets, "transformed_output = ?")
		args = append(args, nullString(*patch.TransformedOutput))
	}
	if patch.TransformedKind != nil {
		sets = append(sets, "transformed_kind = ?")
		args = append(args, nullString(*patch.TransformedKind))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.now()), id, ownerID)

	result, err := s.db.ExecContext(ctx, s.q(`UPDATE ideas SET `+strings.Join(sets, ", ")+`
		WHERE id = ? AND owner_id = ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("update idea: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}

	idea, err := s.GetIdea(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.TouchesSearchFields() {
		s.indexIdea(ctx, idea)
	}
	return idea, nil
}

// DeleteIdea removes an idea owned by ownerID.
func (s *Store) DeleteIdea(ctx context.Context, id, ownerID string) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM ideas WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteIdea(ctx, id); err != nil {
		s.logger.Warn("failed to remove idea from search index", "idea_id", id, "error", err)
	}
	return nil
}

// filterClause appends the optional exact-match label predicates.
func filterClause(filter domain.IdeaFilter, args []any) (string, []any) {
	var b strings.Builder
	if filter.Project != "" {
		b.WriteString(" AND project = ?")
		args = append(args, filter.Project)
	}
	if filter.Theme != "" {
		b.WriteString(" AND theme = ?")
		args = append(args, filter.Theme)
	}
	if filter.Emotion != "" {
		b.WriteString(" AND emotion = ?")
		args = append(args, filter.Emotion)
	}
	return b.String(), args
}

// ListIdeas returns one page of the owner's ideas matching filter, newest first.
func (s *Store) ListIdeas(ctx context.Context, ownerID string, filter domain.IdeaFilter, page store.Page) ([]*domain.Idea, error) {
	page = page.Normalize()
	where, args := filterClause(filter, []any{ownerID})
	args = append(args, page.Limit, page.Skip)

	ideas, err := s.queryIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas
		WHERE owner_id = ?`+where+ideaOrder+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

// CountIdeas counts the owner's ideas matching filter.
func (s *Store) CountIdeas(ctx context.Context, ownerID string, filter domain.IdeaFilter) (int, error) {
	where, args := filterClause(filter, []any{ownerID})

	var count int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM ideas WHERE owner_id = ?`+where), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ideas: %w", err)
	}
	return count, nil
}

// AllIdeas returns every idea the owner has, newest first.
func (s *Store) AllIdeas(ctx context.Context, ownerID string) ([]*domain.Idea, error) {
	ideas, err := s.queryIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE owner_id = ?`+ideaOrder, ownerID)
	if err != nil {
		return nil, fmt.Errorf("all ideas: %w", err)
	}
	return ideas, nil
}

// EachIdea streams every stored idea across all owners to fn, oldest first.
// Used to rebuild the search index. Iteration stops at the first error fn returns.
func (s *Store) EachIdea(ctx context.Context, fn func(*domain.Idea) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ideaColumns+` FROM ideas ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("each idea: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return fmt.Errorf("scan idea: %w", err)
		}
		if err := fn(idea); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SearchIdeasText is the index-free search path: a case-insensitive
// substring match on content, newest first.
func (s *Store) SearchIdeasText(ctx context.Context, ownerID, query string, page store.Page) ([]*domain.Idea, error) {
	page = page.Normalize()
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	ideas, err := s.queryIdeas(ctx, `SELECT `+ideaColumns+` FROM ideas
		WHERE owner_id = ? AND content `+s.dialect.like+` ? ESCAPE '\'`+ideaOrder+` LIMIT ? OFFSET ?`,
		ownerID, pattern, page.Limit, page.Skip)
	if err != nil {
		return nil, fmt.Errorf("search ideas: %w", err)
	}
	return ideas, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) indexIdea(ctx context.Context, idea *domain.Idea) {
	if err := s.searchIndexer.IndexIdea(ctx, idea); err != nil {
		s.logger.Warn("failed to index idea", "idea_id", idea.ID, "error", err)
	}
}
