package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grounded/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript aplica a mesma regra de domain.Entry.Hit de forma atômica.
// O TTL da chave é a própria janela: quando expira, a próxima requisição recria.
//
// KEYS[1] = chave do contador
// ARGV[1] = limite, ARGV[2] = janela em ms
// Retorno: {permitido (0/1), contagem, pttl restante em ms}
var fixedWindowScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
  return {1, 1, tonumber(ARGV[2])}
end
cur = tonumber(cur)
local ttl = redis.call('PTTL', KEYS[1])
if cur < tonumber(ARGV[1]) then
  redis.call('INCR', KEYS[1])
  return {1, cur + 1, ttl}
end
return {0, cur, ttl}
`)

// RedisCounterStore guarda as janelas no Redis, compartilhadas entre processos.
type RedisCounterStore struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

type RedisCounterOption func(*RedisCounterStore)

func WithCounterPrefix(prefix string) RedisCounterOption {
	return func(s *RedisCounterStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithCounterClock(now func() time.Time) RedisCounterOption {
	return func(s *RedisCounterStore) { s.now = now }
}

func NewRedisCounterStore(rdb redis.Scripter, opts ...RedisCounterOption) *RedisCounterStore {
	s := &RedisCounterStore{
		rdb:    rdb,
		prefix: "ratelimit:window",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.CounterStore.
func (s *RedisCounterStore) Hit(ctx context.Context, class domain.Class, key domain.Key, w domain.Window) (domain.Decision, error) {
	redisKey := fmt.Sprintf("%s:%s:%s", s.prefix, class, key)

	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{redisKey}, w.Limit, w.Duration.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis window %s: %w", redisKey, err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("redis window %s: unexpected reply %v", redisKey, res)
	}

	now := s.now()
	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		// chave sem TTL não deveria existir; trata como janela cheia
		ttl = w.Duration
	}
	entry := domain.Entry{Count: int(res[1]), ResetAt: now.Add(ttl)}
	return domain.NewDecision(entry, w, res[0] == 1, now), nil
}
