package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"mcq-studio/internal/domain"
)

// BankLoader reads and parses an upload (workbook.Loader in production).
type BankLoader interface {
	LoadBank(ctx context.Context, upload domain.Upload) (domain.Bank, error)
}

// BankRepository caches parsed banks in Redis and falls back to the loader on
// a miss. Banks are stored as JSON: SET quiz:bank:{digest} {bank} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, upload domain.Upload) (domain.Bank, error) {
	digest := upload.Digest()
	key := r.bankKey(digest)

	if bank, ok := r.cached(ctx, key); ok {
		return named(bank, upload.Name), nil
	}

	ch := r.sf.DoChan(digest, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		// Re-check cache in case another instance filled it.
		if bank, ok := r.cached(loadCtx, key); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(loadCtx, upload)
		if err != nil {
			return domain.Bank{}, err
		}

		if payload, err := json.Marshal(bank); err == nil {
			// best-effort: a failed write only costs a reparse
			_ = r.client.Set(loadCtx, key, payload, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})

	select {
	case <-ctx.Done():
		return domain.Bank{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Bank{}, res.Err
		}
		return named(res.Val.(domain.Bank), upload.Name), nil
	}
}

func (r *BankRepository) cached(ctx context.Context, key string) (domain.Bank, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Bank{}, false
	}
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.Bank{}, false
	}
	return bank, true
}

func (r *BankRepository) bankKey(digest string) string {
	return "quiz:bank:" + digest
}

func named(bank domain.Bank, name string) domain.Bank {
	if name != "" {
		bank.Name = name
	}
	return bank
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
