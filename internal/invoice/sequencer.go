package invoice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-billing/internal/platform/fsx"
)

const maxOrderIDAttempts = 100

// ErrOrderIDExhausted is returned when every candidate id for a second is taken.
var ErrOrderIDExhausted = errors.New("invoice: no free order id")

// Claimer reserves order ids. Claim reports false when id is already taken.
type Claimer interface {
	Claim(ctx context.Context, id string) (bool, error)
}

// Sequencer hands out order ids of the form ORD<unix seconds>, suffixed
// with -2, -3, ... when an earlier invoice in the same second took the base id.
type Sequencer struct {
	claimer Claimer
}

func NewSequencer(claimer Claimer) *Sequencer {
	return &Sequencer{claimer: claimer}
}

// BaseOrderID is the unsuffixed id for now.
func BaseOrderID(now time.Time) string {
	return "ORD" + strconv.FormatInt(now.Unix(), 10)
}

func (s *Sequencer) Next(ctx context.Context, now time.Time) (string, error) {
	base := BaseOrderID(now)
	for attempt := 1; attempt <= maxOrderIDAttempts; attempt++ {
		id := base
		if attempt > 1 {
			id = base + "-" + strconv.Itoa(attempt)
		}
		ok, err := s.claimer.Claim(ctx, id)
		if err != nil {
			return "", fmt.Errorf("invoice: claim %s: %w", id, err)
		}
		if ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOrderIDExhausted, base)
}

// DirClaimer treats an id as free while no document of that name exists in dir.
type DirClaimer struct {
	dir string
	ext string
}

func NewDirClaimer(dir, ext string) *DirClaimer {
	return &DirClaimer{dir: dir, ext: ext}
}

func (c *DirClaimer) Claim(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	exists, err := fsx.Exists(filepath.Join(c.dir, id+"."+c.ext))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// RedisClaimer reserves ids with SETNX so several workstations sharing an
// output directory never issue the same id.
type RedisClaimer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisClaimer{client: client, ttl: ttl}
}

func orderIDKey(id string) string {
	return "billing:orderid:" + id
}

func (c *RedisClaimer) Claim(ctx context.Context, id string) (bool, error) {
	return c.client.SetNX(ctx, orderIDKey(id), time.Now().Unix(), c.ttl).Result()
}
