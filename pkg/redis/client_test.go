package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
)

func TestFixedWindowAllowCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{cmd: fake}

	for i, wantAllowed := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "coupon_lookup:user-1", 2, 30*time.Second)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if allowed != wantAllowed || count != int64(i+1) {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}

	k := "sf:rate_limit:coupon_lookup:user-1"
	if fake.windows[k] != 30000 {
		t.Fatalf("expected window of 30000ms on %s, got %d", k, fake.windows[k])
	}
}

func TestFixedWindowAllowPropagatesErrors(t *testing.T) {
	fake := newFakeCommands()
	fake.evalErr = errors.New("LOADING")
	client := &Client{cmd: fake}

	allowed, _, err := client.FixedWindowAllow(context.Background(), "s", 5, time.Second)
	if err == nil || allowed {
		t.Fatalf("expected error and denial, got allowed=%v err=%v", allowed, err)
	}
}

func TestCompareAndDeleteHonoursOwner(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCommands()}
	lock := client.LockKey("cron-worker:dev")

	if ok, err := client.SetNX(ctx, lock, "owner-a", time.Minute); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := client.SetNX(ctx, lock, "owner-b", time.Minute); ok {
		t.Fatalf("second SetNX must fail while held")
	}

	if released, err := client.CompareAndDelete(ctx, lock, "owner-b"); err != nil || released {
		t.Fatalf("stranger released lock: released=%v err=%v", released, err)
	}
	if released, err := client.CompareAndDelete(ctx, lock, "owner-a"); err != nil || !released {
		t.Fatalf("owner could not release: released=%v err=%v", released, err)
	}
	if _, err := client.Get(ctx, lock); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected key gone, got %v", err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("place_order:user-1", "k1"): "sf:idempotency:place_order:user-1:k1",
		client.IdempotencyKey("", " k2 "):                  "sf:idempotency:k2",
		client.RateLimitKey("add_to_cart:user-9"):          "sf:rate_limit:add_to_cart:user-9",
		client.LockKey("cron-worker:prod"):                 "sf:lock:cron-worker:prod",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s got %s", want, got)
		}
	}
}

func TestZeroClientReportsMissingConnection(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Ping(ctx); !errors.Is(err, errNoConnection) {
		t.Fatalf("ping: %v", err)
	}
	if _, err := client.Get(ctx, "k"); !errors.Is(err, errNoConnection) {
		t.Fatalf("get: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	if _, err := clientOptions(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := clientOptions(config.RedisConfig{
		URL:         "redis://:secret@cache:6380/3",
		PoolSize:    20,
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("url not honoured: %+v", opts)
	}
	if opts.PoolSize != 20 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("config defaults not applied: pool=%d dial=%s", opts.PoolSize, opts.DialTimeout)
	}

	opts, err = clientOptions(config.RedisConfig{Address: "localhost:6379", DB: 1})
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 1 {
		t.Fatalf("address not honoured: %+v", opts)
	}
}

// fakeCommands runs the two scripts this package knows against plain maps.
type fakeCommands struct {
	data    map[string]string
	counts  map[string]int64
	windows map[string]int64
	evalErr error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		data:    map[string]string{},
		counts:  map[string]int64{},
		windows: map[string]int64{},
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeCommands) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if f.evalErr != nil {
		return redis.NewCmdResult(nil, f.evalErr)
	}
	k := keys[0]
	switch script {
	case windowScript:
		f.counts[k]++
		if f.counts[k] == 1 {
			f.windows[k] = args[0].(int64)
		}
		return redis.NewCmdResult(f.counts[k], nil)
	case releaseScript:
		if v, ok := f.data[k]; ok && v == fmt.Sprint(args[0]) {
			delete(f.data, k)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unknown script"))
}
