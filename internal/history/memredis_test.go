// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// memRedis implements the commands RedisRepository issues on in-memory maps.
// Sorted sets order like Redis: by score, then by member.
type memRedis struct {
	redis.Cmdable

	kv     map[string]string
	zsets  map[string]map[string]float64
	closed bool
}

func newMemRedis() *memRedis {
	return &memRedis{
		kv:    make(map[string]string),
		zsets: make(map[string]map[string]float64),
	}
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.kv[key] = string(v)
	case string:
		m.kv[key] = v
	default:
		m.kv[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	vals := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := m.kv[k]; ok {
			vals[i] = v
		}
	}
	return redis.NewSliceResult(vals, nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.kv[k]; ok {
			delete(m.kv, k)
			n++
		}
		if _, ok := m.zsets[k]; ok {
			delete(m.zsets, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) ZAdd(_ context.Context, key string, members ...redis.Z) *redis.IntCmd {
	set, ok := m.zsets[key]
	if !ok {
		set = make(map[string]float64)
		m.zsets[key] = set
	}
	var added int64
	for _, z := range members {
		member := fmt.Sprint(z.Member)
		if _, exists := set[member]; !exists {
			added++
		}
		set[member] = z.Score
	}
	return redis.NewIntResult(added, nil)
}

func (m *memRedis) ZRem(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	set := m.zsets[key]
	var n int64
	for _, mem := range members {
		member := fmt.Sprint(mem)
		if _, ok := set[member]; ok {
			delete(set, member)
			n++
		}
	}
	if len(set) == 0 {
		delete(m.zsets, key)
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) ZRangeWithScores(_ context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	return redis.NewZSliceCmdResult(window(m.sorted(key), start, stop), nil)
}

func (m *memRedis) ZRevRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	zs := m.sorted(key)
	for i, j := 0, len(zs)-1; i < j; i, j = i+1, j-1 {
		zs[i], zs[j] = zs[j], zs[i]
	}
	zs = window(zs, start, stop)
	out := make([]string, len(zs))
	for i, z := range zs {
		out[i] = z.Member.(string)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (m *memRedis) TxPipelined(_ context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	return nil, fn(memPipe{m: m})
}

func (m *memRedis) Close() error {
	m.closed = true
	return nil
}

func (m *memRedis) sorted(key string) []redis.Z {
	zs := make([]redis.Z, 0, len(m.zsets[key]))
	for member, score := range m.zsets[key] {
		zs = append(zs, redis.Z{Score: score, Member: member})
	}
	sort.Slice(zs, func(i, j int) bool {
		if zs[i].Score != zs[j].Score {
			return zs[i].Score < zs[j].Score
		}
		return zs[i].Member.(string) < zs[j].Member.(string)
	})
	return zs
}

// window applies Redis start/stop index rules, negative values included.
func window(zs []redis.Z, start, stop int64) []redis.Z {
	n := int64(len(zs))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return []redis.Z{}
	}
	return zs[start : stop+1]
}

// memPipe applies queued commands immediately.
type memPipe struct {
	redis.Pipeliner
	m *memRedis
}

func (p memPipe) Set(ctx context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	return p.m.Set(ctx, key, value, exp)
}

func (p memPipe) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	return p.m.ZAdd(ctx, key, members...)
}

func (p memPipe) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return p.m.Del(ctx, keys...)
}

func (p memPipe) ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	return p.m.ZRem(ctx, key, members...)
}
