package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/whot-backend/internal/entity"
)

const (
	lobbyKeyPrefix = "lobby:"
	lobbyIndexKey  = "lobby:sessions"
)

// LobbyRepository keeps the public session listing in redis. Entries expire unless saved again.
type LobbyRepository interface {
	Save(ctx context.Context, summary entity.SessionSummary) error
	Delete(ctx context.Context, id string) error
	ListPublic(ctx context.Context) ([]entity.SessionSummary, error)
}

type dbLobby struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLobbyRepository(client *redis.Client, ttl time.Duration) LobbyRepository {
	return &dbLobby{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbLobby) Save(ctx context.Context, summary entity.SessionSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not marshal session summary: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lobbyKeyPrefix+summary.ID, summaryJSON, that.ttl)
		pipe.SAdd(ctx, lobbyIndexKey, summary.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session summary: %w", err)
	}

	return nil
}

// Delete - withdraws a session, deleting an unknown id is not an error.
func (that *dbLobby) Delete(ctx context.Context, id string) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, lobbyKeyPrefix+id)
		pipe.SRem(ctx, lobbyIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session summary: %w", err)
	}

	return nil
}

// ListPublic - joinable public sessions ordered by id. Expired entries are dropped from the index.
func (that *dbLobby) ListPublic(ctx context.Context) ([]entity.SessionSummary, error) {
	ids, err := that.client.SMembers(ctx, lobbyIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]entity.SessionSummary, 0, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = lobbyKeyPrefix + id
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session summaries: %w", err)
	}

	var expired []any
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}

		var summary entity.SessionSummary
		if err = json.Unmarshal([]byte(raw), &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session summary: %w", err)
		}

		if summary.IsListed() {
			summaries = append(summaries, summary)
		}
	}

	if len(expired) > 0 {
		if err = that.client.SRem(ctx, lobbyIndexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to drop expired sessions: %w", err)
		}
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	return summaries, nil
}
