package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
)

// RedisLedger stores one key per token id with a TTL equal to the token
// lifetime, so expiry needs no reaper. A per-owner set holds the token keys
// for RevokeAll. Record and RevokeAll each run as one script so an entry can
// never exist outside its owner's set while RevokeAll is draining it.
type RedisLedger struct {
	client   redis.UniversalClient
	prefix   string
	lifetime time.Duration
	now      func() time.Time
}

type redisLedgerEntry struct {
	Owner     string    `json:"owner"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// recordScript: KEYS[1] token key, KEYS[2] owner set; ARGV payload, token
// ttl ms, owner set ttl ms. Returns 0 on an id conflict.
var recordScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2], 'NX') then
  return 0
end
redis.call('SADD', KEYS[2], KEYS[1])
redis.call('PEXPIRE', KEYS[2], ARGV[3])
return 1
`)

// revokeAllScript deletes every token key in the owner set KEYS[1] and the
// set itself, returning the number of token keys removed.
var revokeAllScript = redis.NewScript(`
local n = 0
for _, key in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  n = n + redis.call('DEL', key)
end
redis.call('DEL', KEYS[1])
return n
`)

func NewRedisLedger(client redis.UniversalClient, prefix string, lifetime time.Duration) *RedisLedger {
	if prefix == "" {
		prefix = "token_ledger"
	}
	return &RedisLedger{client: client, prefix: prefix, lifetime: lifetime, now: time.Now}
}

func (l *RedisLedger) Record(ctx context.Context, tokenID, owner string) error {
	payload, err := json.Marshal(redisLedgerEntry{Owner: owner, CreatedAt: l.now().UTC()})
	if err != nil {
		return err
	}
	keys := []string{l.tokenKey(tokenID), l.ownerKey(owner)}
	ok, err := recordScript.Run(ctx, l.client, keys,
		payload, l.lifetime.Milliseconds(), (l.lifetime + time.Minute).Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("record token id: %w", err)
	}
	if ok == 0 {
		return ErrTokenIDConflict
	}
	return nil
}

func (l *RedisLedger) IsActive(ctx context.Context, tokenID string) (bool, error) {
	entry, err := l.load(ctx, tokenID)
	if errors.Is(err, ErrTokenRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !entry.Revoked, nil
}

func (l *RedisLedger) Find(ctx context.Context, tokenID string) (*domain.TokenRecord, error) {
	entry, err := l.load(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenRecord{
		TokenID:   tokenID,
		Owner:     entry.Owner,
		Revoked:   entry.Revoked,
		CreatedAt: entry.CreatedAt,
	}, nil
}

func (l *RedisLedger) Revoke(ctx context.Context, tokenID string) error {
	entry, err := l.load(ctx, tokenID)
	if errors.Is(err, ErrTokenRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if entry.Revoked {
		return nil
	}
	entry.Revoked = true
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = l.client.SetArgs(ctx, l.tokenKey(tokenID), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("revoke token id: %w", err)
	}
	return nil
}

func (l *RedisLedger) RevokeAll(ctx context.Context, owner string) (int64, error) {
	n, err := revokeAllScript.Run(ctx, l.client, []string{l.ownerKey(owner)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("revoke owner tokens: %w", err)
	}
	return n, nil
}

// Prune is a no-op: keys expire natively.
func (l *RedisLedger) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (l *RedisLedger) load(ctx context.Context, tokenID string) (*redisLedgerEntry, error) {
	raw, err := l.client.Get(ctx, l.tokenKey(tokenID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	var entry redisLedgerEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode ledger entry: %w", err)
	}
	return &entry, nil
}

func (l *RedisLedger) tokenKey(tokenID string) string {
	return fmt.Sprintf("%s:token:%s", l.prefix, hashToken(tokenID))
}

func (l *RedisLedger) ownerKey(owner string) string {
	return fmt.Sprintf("%s:owner:%s", l.prefix, hashToken(owner))
}
