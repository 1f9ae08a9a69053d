package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"mcq-studio/internal/domain"
)

// BankLoader reads and parses an upload (workbook.Loader in production).
type BankLoader interface {
	LoadBank(ctx context.Context, upload domain.Upload) (domain.Bank, error)
}

// BankRepository caches parsed banks by content digest with TTL, so the same
// file uploaded again (or by several sessions at once) is parsed once.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.Bank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

// GetBank returns the bank for upload. Parse failures are not cached. The
// caller stops waiting when ctx ends; the shared parse carries on for others.
func (r *BankRepository) GetBank(ctx context.Context, upload domain.Upload) (domain.Bank, error) {
	digest := upload.Digest()
	if bank, ok := r.cached(digest); ok {
		return named(bank, upload.Name), nil
	}

	ch := r.sf.DoChan(digest, func() (interface{}, error) {
		if bank, ok := r.cached(digest); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(context.WithoutCancel(ctx), upload)
		if err != nil {
			return domain.Bank{}, err
		}

		r.mu.Lock()
		r.cache[digest] = cachedBank{
			bank:      bank,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
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

func (r *BankRepository) cached(digest string) (domain.Bank, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[digest]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Bank{}, false
	}
	return entry.bank, true
}

// named keeps the caller's file name on a bank shared by digest.
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
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
