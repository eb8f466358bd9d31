package burnservice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/landgame-labs/burngate/internal/domain"
	"github.com/landgame-labs/burngate/internal/infra/ratelimit"
	"github.com/landgame-labs/burngate/internal/infra/replayfilter"
	"github.com/landgame-labs/burngate/internal/infra/sqlite"
)

// fakeVerifier returns a fixed on-chain amount, or a fixed error.
type fakeVerifier struct {
	amount uint64
	err    error
	calls  atomic.Int64
}

func (f *fakeVerifier) VerifyBurn(ctx context.Context, signature, claimedSigner string) (uint64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return f.amount, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestService(t *testing.T, verifier domain.BurnVerifier) (*Service, domain.AccountStore) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := New(
		ratelimit.New(100, time.Minute),
		verifier,
		db,
		nil,
		replayfilter.New(replayfilter.DefaultConfig()),
		domain.NewConverter(1000),
		quietLogger(),
	)
	return svc, db
}

func report(wallet, sig string, claimed float64) domain.BurnReport {
	return domain.BurnReport{WalletAddress: wallet, Signature: sig, ClaimedAmount: claimed}
}

func TestSubmitBurn_EndToEnd(t *testing.T) {
	// W1 burns 1000 base units in TX1; ratio 1000:1 → balance 1.
	svc, _ := newTestService(t, &fakeVerifier{amount: 1000})

	balance, err := svc.SubmitBurn(context.Background(), "ip-1", report("W1", "TX1", 1000))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("balance = %s, want 1", balance)
	}

	// Second call with the same TX1 is a replay; balance stays 1.
	_, err = svc.SubmitBurn(context.Background(), "ip-1", report("W1", "TX1", 1000))
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("replay err = %v, want ErrAlreadyProcessed", err)
	}
	balance, err = svc.GetBalance(context.Background(), "W1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("balance after replay = %s, want 1", balance)
	}
}

func TestSubmitBurn_AuthoritativeAmount(t *testing.T) {
	// Client claims 999999 but the chain says 1000: credit 1000, never the claim.
	svc, store := newTestService(t, &fakeVerifier{amount: 1000})

	balance, err := svc.SubmitBurn(context.Background(), "ip-1", report("W1", "TX1", 999999))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("balance = %s, want 1 (from verified amount)", balance)
	}

	raw, _ := store.GetBalance(context.Background(), "W1")
	if raw != 1000 {
		t.Errorf("stored raw = %d, want verified 1000", raw)
	}
}

func TestSubmitBurn_MissingFields(t *testing.T) {
	svc, _ := newTestService(t, &fakeVerifier{amount: 1000})

	tests := []domain.BurnReport{
		{Signature: "TX1", ClaimedAmount: 1},
		{WalletAddress: "W1", ClaimedAmount: 1},
		{WalletAddress: "W1", Signature: "TX1"},
	}
	for _, r := range tests {
		if _, err := svc.SubmitBurn(context.Background(), "ip-1", r); !errors.Is(err, domain.ErrMissingFields) {
			t.Errorf("report %+v: err = %v, want ErrMissingFields", r, err)
		}
	}
}

func TestSubmitBurn_RateLimited(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := New(ratelimit.New(2, time.Minute), &fakeVerifier{amount: 1000}, db,
		nil, nil, domain.NewConverter(1000), quietLogger())

	ctx := context.Background()
	svc.SubmitBurn(ctx, "ip-1", report("W1", "TX1", 1))
	svc.SubmitBurn(ctx, "ip-1", report("W1", "TX2", 1))

	if _, err := svc.SubmitBurn(ctx, "ip-1", report("W1", "TX3", 1)); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}

	// A different client identity is unaffected.
	if _, err := svc.SubmitBurn(ctx, "ip-2", report("W2", "TX4", 1)); err != nil {
		t.Errorf("other client rejected: %v", err)
	}
}

func TestSubmitBurn_RejectedVerificationMutatesNothing(t *testing.T) {
	for _, verr := range []error{
		domain.ErrTxNotFound,
		domain.ErrTxFailed,
		domain.ErrNoBurnInstruction,
		domain.ErrSignerMismatch,
	} {
		t.Run(verr.Error(), func(t *testing.T) {
			svc, store := newTestService(t, &fakeVerifier{err: verr})
			ctx := context.Background()

			_, err := svc.SubmitBurn(ctx, "ip-1", report("W1", "TX1", 1000))
			if !errors.Is(err, verr) {
				t.Fatalf("err = %v, want %v", err, verr)
			}

			raw, _ := store.GetBalance(ctx, "W1")
			if raw != 0 {
				t.Errorf("balance mutated to %d on rejected verification", raw)
			}
			processed, _ := store.HasProcessed(ctx, "TX1")
			if processed {
				t.Error("signature recorded as processed on rejected verification")
			}
		})
	}
}

func TestSubmitBurn_ConcurrentDuplicates(t *testing.T) {
	// A client retry racing with itself credits exactly once.
	svc, store := newTestService(t, &fakeVerifier{amount: 1000})
	ctx := context.Background()

	var accepted, replayed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitBurn(ctx, "ip-1", report("W1", "TX-race", 1000))
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrAlreadyProcessed):
				replayed.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 {
		t.Errorf("accepted %d submissions, want exactly 1", accepted.Load())
	}
	if accepted.Load()+replayed.Load() != 8 {
		t.Errorf("accepted+replayed = %d, want 8", accepted.Load()+replayed.Load())
	}
	raw, _ := store.GetBalance(ctx, "W1")
	if raw != 1000 {
		t.Errorf("raw balance = %d, want 1000", raw)
	}
}

func TestSubmitBurn_PrefilterSkipsLedgerOnReplay(t *testing.T) {
	verifier := &fakeVerifier{amount: 1000}
	svc, _ := newTestService(t, verifier)
	ctx := context.Background()

	if _, err := svc.SubmitBurn(ctx, "ip-1", report("W1", "TX1", 1000)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.SubmitBurn(ctx, "ip-1", report("W1", "TX1", 1000)); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("replay err = %v, want ErrAlreadyProcessed", err)
	}

	if verifier.calls.Load() != 1 {
		t.Errorf("verifier called %d times, want 1 (replay short-circuits)", verifier.calls.Load())
	}
}

func TestGetBalance_UnknownWallet(t *testing.T) {
	svc, _ := newTestService(t, &fakeVerifier{amount: 1000})

	balance, err := svc.GetBalance(context.Background(), "never-seen-address")
	if err != nil {
		t.Fatalf("unknown wallet should not error: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("balance = %s, want 0", balance)
	}
}

func TestBurnHistory(t *testing.T) {
	svc, _ := newTestService(t, &fakeVerifier{amount: 2500})
	ctx := context.Background()

	svc.SubmitBurn(ctx, "ip-1", report("W1", "TX1", 2500))
	svc.SubmitBurn(ctx, "ip-1", report("W1", "TX2", 2500))

	events, err := svc.BurnHistory(ctx, "W1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	want := decimal.NewFromFloat(2.5)
	if !events[0].CreditsEarned.Equal(want) {
		t.Errorf("credits = %s, want %s", events[0].CreditsEarned, want)
	}
}
