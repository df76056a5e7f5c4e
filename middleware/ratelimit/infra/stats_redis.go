package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"grounded/middleware/ratelimit/domain"
)

// RedisStatsStore soma as decisões em hashes do Redis, compartilhados entre
// instâncias:
//
//	<prefix>:total                 allowed/denied
//	<prefix>:class:<classe>        allowed/denied por classe
//	<prefix>:route                 "<método> <path>:<allowed|denied>"
//	<prefix>:minute:<yyyymmddhhmm> série por minuto (expira em ttl)
//	<prefix>:key:<ator>            só com WithStatsTrackKeys (expira em ttl)
type RedisStatsStore struct {
	rdb       redis.Cmdable
	prefix    string
	ttl       time.Duration
	trackKeys bool
}

var _ domain.StatsStore = (*RedisStatsStore)(nil)

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsTrackKeys grava contadores por ator. Cuidado com a cardinalidade.
func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func outcome(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := outcome(ev.Allowed)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	if ev.Class != "" {
		pipe.HIncrBy(ctx, s.prefix+":class:"+string(ev.Class), field, 1)
	}
	if route := strings.TrimSpace(ev.Method + " " + ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	minute := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, minute, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, minute, s.ttl)
	}

	if k := strings.TrimSpace(string(ev.Key)); s.trackKeys && k != "" {
		keyKey := s.prefix + ":key:" + k
		pipe.HIncrBy(ctx, keyKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, keyKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis stats: %w", err)
	}
	return nil
}

// Read lê os contadores acumulados de todas as instâncias.
// A série por minuto e os contadores por ator ficam de fora.
func (s *RedisStatsStore) Read(ctx context.Context) (StatsSnapshot, error) {
	out := StatsSnapshot{
		ByClass: make(map[domain.Class]Counters),
		ByRoute: make(map[string]Counters),
	}

	total, err := s.rdb.HGetAll(ctx, s.prefix+":total").Result()
	if err != nil {
		return StatsSnapshot{}, fmt.Errorf("redis stats total: %w", err)
	}
	out.Total = countersFromHash(total)

	classPrefix := s.prefix + ":class:"
	iter := s.rdb.Scan(ctx, 0, classPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		h, err := s.rdb.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return StatsSnapshot{}, fmt.Errorf("redis stats class: %w", err)
		}
		out.ByClass[domain.Class(strings.TrimPrefix(iter.Val(), classPrefix))] = countersFromHash(h)
	}
	if err := iter.Err(); err != nil {
		return StatsSnapshot{}, fmt.Errorf("redis stats scan: %w", err)
	}

	routes, err := s.rdb.HGetAll(ctx, s.prefix+":route").Result()
	if err != nil {
		return StatsSnapshot{}, fmt.Errorf("redis stats route: %w", err)
	}
	for f, v := range routes {
		i := strings.LastIndex(f, ":")
		if i < 0 {
			continue
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		c := out.ByRoute[f[:i]]
		switch f[i+1:] {
		case "allowed":
			c.Allowed += n
		case "denied":
			c.Denied += n
		}
		out.ByRoute[f[:i]] = c
	}
	return out, nil
}

func countersFromHash(h map[string]string) Counters {
	var c Counters
	c.Allowed, _ = strconv.ParseInt(h["allowed"], 10, 64)
	c.Denied, _ = strconv.ParseInt(h["denied"], 10, 64)
	return c
}
