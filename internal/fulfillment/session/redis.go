package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/regalator/wms/internal/fulfillment/domain"
)

// RedisStore keeps scan sessions in Redis so an operator can switch devices
// mid-order. Sessions expire with the shift TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(operatorID uint, flow string, orderID uint) string {
	return fmt.Sprintf("scan-session:%d:%s:%d", operatorID, flow, orderID)
}

func (s *RedisStore) Load(ctx context.Context, operatorID uint, flow string, orderID uint) (*domain.ScanSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(operatorID, flow, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &domain.ScanSession{}, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.ScanSession
	if err := json.Unmarshal(raw, &session); err != nil {
		// A corrupt session is dropped rather than failing the scan.
		return &domain.ScanSession{}, nil
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, operatorID uint, flow string, orderID uint, session *domain.ScanSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(operatorID, flow, orderID), raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, operatorID uint, flow string, orderID uint) error {
	return s.client.Del(ctx, sessionKey(operatorID, flow, orderID)).Err()
}
