// Package idempotency remembers which invoice an Idempotency-Key produced so
// retried create requests replay instead of issuing a second number.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyInvoiceCreate = "gstbook:idempotency:invoice:%s:%s"

	pendingPrefix = "pending:"
	donePrefix    = "done:"

	maxKeyLength = 255
)

// completeScript swaps our pending marker for the result, leaving keys owned
// by another request untouched.
const completeScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
end
return 0
`

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var ErrInvalidKey = errors.New("invalid_idempotency_key")

// State is the outcome of Begin.
type State int

const (
	// StateAcquired means the caller owns the key and must Complete or Release it.
	StateAcquired State = iota
	// StateCompleted means a previous request finished; InvoiceID is set.
	StateCompleted
	// StateInFlight means another request holds the key right now.
	StateInFlight
)

type Claim struct {
	State     State
	InvoiceID snowflake.ID
	token     string
	key       string
}

type Store struct {
	client     *redis.Client
	complete   *redis.Script
	release    *redis.Script
	pendingTTL time.Duration
}

func NewStore(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{
		client:     client,
		complete:   redis.NewScript(completeScript),
		release:    redis.NewScript(releaseScript),
		pendingTTL: time.Minute,
	}
}

// Enabled reports whether keys are actually tracked. A nil store accepts
// every request.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// ValidateKey trims and checks a client supplied key.
func ValidateKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" || len(key) > maxKeyLength {
		return "", ErrInvalidKey
	}
	return key, nil
}

// Begin claims key for businessID.
func (s *Store) Begin(ctx context.Context, businessID snowflake.ID, key string) (Claim, error) {
	if !s.Enabled() {
		return Claim{State: StateAcquired}, nil
	}
	key, err := ValidateKey(key)
	if err != nil {
		return Claim{}, err
	}

	redisKey := fmt.Sprintf(keyInvoiceCreate, businessID.String(), key)
	token := pendingPrefix + uuid.NewString()
	ok, err := s.client.SetNX(ctx, redisKey, token, s.pendingTTL).Result()
	if err != nil {
		return Claim{}, err
	}
	if ok {
		return Claim{State: StateAcquired, token: token, key: redisKey}, nil
	}

	value, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; treat as busy and let the client retry.
			return Claim{State: StateInFlight}, nil
		}
		return Claim{}, err
	}
	return parseValue(value), nil
}

// Complete records the invoice produced under claim for ttl.
func (s *Store) Complete(ctx context.Context, claim Claim, invoiceID snowflake.ID, ttl time.Duration) error {
	if !s.Enabled() || claim.token == "" {
		return nil
	}
	if ttl <= 0 {
		return errors.New("idempotency ttl must be positive")
	}
	return s.complete.Run(ctx, s.client, []string{claim.key},
		claim.token,
		donePrefix+invoiceID.String(),
		ttl.Milliseconds(),
	).Err()
}

// Release drops a pending claim so the client can retry after a failure.
func (s *Store) Release(ctx context.Context, claim Claim) error {
	if !s.Enabled() || claim.token == "" {
		return nil
	}
	return s.release.Run(ctx, s.client, []string{claim.key}, claim.token).Err()
}

func parseValue(value string) Claim {
	if rest, ok := strings.CutPrefix(value, donePrefix); ok {
		id, err := snowflake.ParseString(rest)
		if err == nil && id > 0 {
			return Claim{State: StateCompleted, InvoiceID: id}
		}
	}
	return Claim{State: StateInFlight}
}
