package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arifi89/inventory-optimization/internal/config"
	"github.com/arifi89/inventory-optimization/internal/domain"
)

const (
	segmentSummaryKeyPrefix = "master:segments"
	segmentScanBatchSize    = 100
)

// SegmentCache caches ABC/XYZ segment summaries per filter. Summaries only
// change when a dataset is re-seeded, so InvalidateAll runs after seeding.
type SegmentCache interface {
	GetSummaries(ctx context.Context, filter domain.MasterFilter) ([]domain.SegmentSummary, bool, error)
	SetSummaries(ctx context.Context, filter domain.MasterFilter, summaries []domain.SegmentSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisSegmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSegmentCache struct{}

func NewSegmentCache(cfg config.CacheConfig) (SegmentCache, error) {
	if !cfg.Enabled {
		return &noopSegmentCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSegmentCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSegmentCache() SegmentCache {
	return &noopSegmentCache{}
}

func (c *redisSegmentCache) GetSummaries(ctx context.Context, filter domain.MasterFilter) ([]domain.SegmentSummary, bool, error) {
	key := buildSegmentSummaryKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summaries []domain.SegmentSummary
	if err := json.Unmarshal(payload, &summaries); err != nil {
		return nil, false, fmt.Errorf("decode segment summary cache: %w", err)
	}

	return summaries, true, nil
}

func (c *redisSegmentCache) SetSummaries(ctx context.Context, filter domain.MasterFilter, summaries []domain.SegmentSummary) error {
	key := buildSegmentSummaryKey(filter)
	payload, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode segment summary cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSegmentCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, segmentSummaryKeyPrefix, segmentScanBatchSize)
}

func (n *noopSegmentCache) GetSummaries(ctx context.Context, filter domain.MasterFilter) ([]domain.SegmentSummary, bool, error) {
	return nil, false, nil
}

func (n *noopSegmentCache) SetSummaries(ctx context.Context, filter domain.MasterFilter, summaries []domain.SegmentSummary) error {
	return nil
}

func (n *noopSegmentCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildSegmentSummaryKey(filter domain.MasterFilter) string {
	return fmt.Sprintf("%s:%s", segmentSummaryKeyPrefix, masterFilterHash(filter))
}

// masterFilterHash normalizes and hashes the filter so logically equal
// filters share one cache entry regardless of field order in the request.
func masterFilterHash(filter domain.MasterFilter) string {
	parts := []string{}

	if filter.Category != "" {
		parts = append(parts, "category="+strings.ToLower(strings.TrimSpace(filter.Category)))
	}
	if filter.Region != "" {
		parts = append(parts, "region="+strings.ToLower(strings.TrimSpace(filter.Region)))
	}
	if filter.DateFrom != "" {
		parts = append(parts, "date_from="+strings.TrimSpace(filter.DateFrom))
	}
	if filter.DateTo != "" {
		parts = append(parts, "date_to="+strings.TrimSpace(filter.DateTo))
	}

	if len(filter.ProductIDs) > 0 {
		parts = append(parts, "product_ids="+joinInt64s(filter.ProductIDs))
	}
	if len(filter.StoreIDs) > 0 {
		parts = append(parts, "store_ids="+joinInt64s(filter.StoreIDs))
	}
	if len(filter.Segments) > 0 {
		parts = append(parts, "segments="+joinStrings(filter.Segments))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinInt64s(values []int64) string {
	c := append([]int64(nil), values...)
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	strs := make([]string, len(c))
	for i, v := range c {
		strs[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(strs, ",")
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(strings.ToUpper(c[i]))
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
