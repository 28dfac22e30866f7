package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BotStore resolves bot records. GetForUser is the ownership-checked path
// for authenticated callers; Get is the service-level path for widget
// queries, where the bot id itself is the authorization boundary.
type BotStore interface {
	GetForUser(ctx context.Context, botID, userID uuid.UUID) (Bot, error)
	Get(ctx context.Context, botID uuid.UUID) (Bot, error)
}

type PostgresBotStore struct {
	pool *pgxpool.Pool
}

func NewPostgresBotStore(pool *pgxpool.Pool) *PostgresBotStore {
	return &PostgresBotStore{pool: pool}
}

func (s *PostgresBotStore) GetForUser(ctx context.Context, botID, userID uuid.UUID) (Bot, error) {
	var bot Bot
	err := s.pool.QueryRow(ctx, `
        SELECT id, user_id, name, COALESCE(system_prompt, '')
        FROM bots
        WHERE id = $1 AND user_id = $2
    `, botID, userID).Scan(&bot.ID, &bot.UserID, &bot.Name, &bot.SystemPrompt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bot{}, ErrForbidden
		}
		return Bot{}, &StoreError{Op: "query bot", Err: err}
	}
	return bot, nil
}

func (s *PostgresBotStore) Get(ctx context.Context, botID uuid.UUID) (Bot, error) {
	var bot Bot
	err := s.pool.QueryRow(ctx, `
        SELECT id, user_id, name, COALESCE(system_prompt, '')
        FROM bots
        WHERE id = $1
    `, botID).Scan(&bot.ID, &bot.UserID, &bot.Name, &bot.SystemPrompt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bot{}, &StoreError{Op: "query bot", Err: fmt.Errorf("bot %s not found", botID)}
		}
		return Bot{}, &StoreError{Op: "query bot", Err: err}
	}
	return bot, nil
}

var _ BotStore = (*PostgresBotStore)(nil)
