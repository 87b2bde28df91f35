package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crash-rounds-backend/internal/config"
	"crash-rounds-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RoundStore is the redis-backed archive of terminal rounds, their
// player lists, settlement transactions and the manual reconciliation
// queue. It also serves API rate limiting and the read-only player
// directory lookups.
type RoundStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRoundStore(cfg *config.Config) (*RoundStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RoundStore{
		client: client,
		ctx:    ctx,
	}, nil
}

func (s *RoundStore) Close() error {
	return s.client.Close()
}

// ArchiveRound persists a terminal round together with its final
// player list, and trims the history index.
func (s *RoundStore) ArchiveRound(round *models.Round, bets []models.PlayerBet) error {
	roundKey := fmt.Sprintf(KeyRound, round.ID)

	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %v", err)
	}
	if err := s.client.Set(s.ctx, roundKey, data, TTLRound).Err(); err != nil {
		return fmt.Errorf("failed to save round: %v", err)
	}

	if len(bets) > 0 {
		betsKey := fmt.Sprintf(KeyRoundBets, round.ID)
		betsData, err := json.Marshal(bets)
		if err != nil {
			return fmt.Errorf("failed to marshal round bets: %v", err)
		}
		if err := s.client.Set(s.ctx, betsKey, betsData, TTLRound).Err(); err != nil {
			return fmt.Errorf("failed to save round bets: %v", err)
		}
	}

	if err := s.client.ZAdd(s.ctx, KeyRoundHistory, redis.Z{
		Score:  float64(round.EndedAt),
		Member: round.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index round: %v", err)
	}

	s.client.ZRemRangeByRank(s.ctx, KeyRoundHistory, 0, int64(-RoundHistoryDepth-1))

	return nil
}

func (s *RoundStore) GetRound(roundID string) (*models.Round, error) {
	key := fmt.Sprintf(KeyRound, roundID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("round not found: %s", roundID)
		}
		return nil, fmt.Errorf("failed to get round: %v", err)
	}

	var round models.Round
	if err := json.Unmarshal([]byte(data), &round); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round: %v", err)
	}

	return &round, nil
}

func (s *RoundStore) GetRoundHistory(limit int64) ([]*models.Round, error) {
	if limit <= 0 || limit > RoundHistoryDepth {
		limit = 50
	}

	roundIDs, err := s.client.ZRevRange(s.ctx, KeyRoundHistory, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %v", err)
	}

	var rounds []*models.Round
	for _, roundID := range roundIDs {
		round, err := s.GetRound(roundID)
		if err != nil {
			continue
		}
		rounds = append(rounds, round)
	}

	return rounds, nil
}

func (s *RoundStore) SaveTransaction(tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	return s.client.Set(s.ctx, txKey, data, TTLTransaction).Err()
}

// QueueReconciliation records a bet whose optimistic cash-out never
// settled. Operators drain this queue by hand.
func (s *RoundStore) QueueReconciliation(bet *models.PlayerBet) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("failed to marshal bet for reconciliation: %v", err)
	}

	return s.client.LPush(s.ctx, KeyReconciliation, data).Err()
}

func (s *RoundStore) GetReconciliationQueue() ([]*models.PlayerBet, error) {
	items, err := s.client.LRange(s.ctx, KeyReconciliation, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read reconciliation queue: %v", err)
	}

	var bets []*models.PlayerBet
	for _, item := range items {
		var bet models.PlayerBet
		if err := json.Unmarshal([]byte(item), &bet); err != nil {
			continue
		}
		bets = append(bets, &bet)
	}

	return bets, nil
}

// GetPlayer implements the read-only user directory lookup. Unknown
// players get a display profile with a starting balance.
func (s *RoundStore) GetPlayer(playerID string) (*models.Player, error) {
	key := fmt.Sprintf(KeyPlayer, playerID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		player := &models.Player{
			ID:        playerID,
			Balance:   100,
			CoinType:  models.DefaultCoinType,
			CreatedAt: time.Now().UnixMilli(),
		}
		if err := s.SavePlayer(player); err != nil {
			return nil, fmt.Errorf("failed to create player: %v", err)
		}
		return player, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %v", err)
	}

	var player models.Player
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %v", err)
	}

	return &player, nil
}

func (s *RoundStore) SavePlayer(player *models.Player) error {
	key := fmt.Sprintf(KeyPlayer, player.ID)

	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RoundStore) CheckRateLimit(playerID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, playerID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RoundStore) DeleteRound(roundID string) error {
	s.client.ZRem(s.ctx, KeyRoundHistory, roundID)
	s.client.Del(s.ctx, fmt.Sprintf(KeyRoundBets, roundID))
	return s.client.Del(s.ctx, fmt.Sprintf(KeyRound, roundID)).Err()
}
