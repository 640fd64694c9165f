package analytics

import (
	"context"
	"fmt"

	"github.com/opentoolhub/search-agent/internal/database"
	"github.com/opentoolhub/search-agent/internal/models"
)

// Repository persists one complete search flow. Implementations may assume
// they are called from a single worker goroutine.
type Repository interface {
	SaveFlow(ctx context.Context, fingerprint string, rec models.FlowRecord) error
}

type postgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) SaveFlow(ctx context.Context, fingerprint string, rec models.FlowRecord) error {
	if err := r.upsertSession(ctx, fingerprint, rec); err != nil {
		return err
	}

	logID, err := r.insertSearchLog(ctx, fingerprint, rec)
	if err != nil {
		return err
	}

	if !rec.FromCache {
		for _, call := range rec.Calls {
			if err := r.insertLLMCall(ctx, logID, call); err != nil {
				return err
			}
		}
	}

	for i, tool := range rec.Results {
		if err := r.insertSearchResult(ctx, logID, rec.Language, i+1, tool); err != nil {
			return err
		}
	}

	return nil
}

func (r *postgresRepository) upsertSession(ctx context.Context, fingerprint string, rec models.FlowRecord) error {
	query := `
		INSERT INTO user_sessions (user_fingerprint, session_start, last_activity, total_searches, user_agent, referer)
		VALUES ($1, now(), now(), 1, $2, $3)
		ON CONFLICT (user_fingerprint) DO UPDATE SET
			last_activity  = now(),
			total_searches = user_sessions.total_searches + 1,
			user_agent     = EXCLUDED.user_agent,
			referer        = EXCLUDED.referer`

	if _, err := r.db.Pool.Exec(ctx, query, fingerprint, truncate(rec.UserAgent, 200), truncate(rec.Referer, 500)); err != nil {
		return fmt.Errorf("failed to upsert user session: %w", err)
	}
	return nil
}

func (r *postgresRepository) insertSearchLog(ctx context.Context, fingerprint string, rec models.FlowRecord) (int64, error) {
	query := `
		INSERT INTO search_logs (
			user_fingerprint, user_language, original_query, normalized_query,
			search_intent, search_type, result_count, from_cache, total_duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		fingerprint,
		string(rec.Language),
		rec.OriginalQuery,
		rec.NormalizedQuery,
		nullable(rec.SearchIntent),
		string(rec.SearchType),
		rec.ResultCount,
		rec.FromCache,
		rec.TotalDuration.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert search log: %w", err)
	}
	return id, nil
}

func (r *postgresRepository) insertLLMCall(ctx context.Context, logID int64, call models.ProviderCallRecord) error {
	query := `
		INSERT INTO llm_calls (
			search_log_id, language, llm_provider, llm_model,
			prompt_length, response_length, duration_ms, success, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Pool.Exec(ctx, query,
		logID,
		string(call.Language),
		call.Provider,
		call.Model,
		call.PromptLength,
		call.ResponseLength,
		call.Duration.Milliseconds(),
		call.Success,
		nullable(call.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to insert llm call: %w", err)
	}
	return nil
}

func (r *postgresRepository) insertSearchResult(ctx context.Context, logID int64, language models.Language, position int, tool models.ToolResult) error {
	query := `
		INSERT INTO search_results (
			search_log_id, result_language, position, tool_name, tool_category, tool_rating
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Pool.Exec(ctx, query,
		logID,
		string(language),
		position,
		tool.Name,
		nullable(tool.Category),
		tool.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search result: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
