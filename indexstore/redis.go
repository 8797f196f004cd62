// Package indexstore publishes decoded keyword indexes to Redis so that
// other processes can resolve keywords without decoding the file.
package indexstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/op/go-logging"
	"github.com/redis/go-redis/v9"

	mdict "github.com/twt-nim/nuo-mdict"
)

var log = logging.MustGetLogger("indexstore")

// DefaultBatchSize is the number of keywords written per pipeline.
const DefaultBatchSize = 1000

// Fingerprint identifies a dictionary file by the xxhash of its contents.
func Fingerprint(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// PairsKey is the hash holding keyword -> position for a fingerprint.
func PairsKey(prefix, fingerprint string) string {
	return prefix + ":" + fingerprint + ":pairs"
}

// MetaKey is the string key holding the JSON summary for a fingerprint.
func MetaKey(prefix, fingerprint string) string {
	return prefix + ":" + fingerprint + ":meta"
}

// StagingKey is the hash Put fills before renaming it to PairsKey.
func StagingKey(prefix, fingerprint string) string {
	return prefix + ":" + fingerprint + ":pairs:staging"
}

// RedisStore stores keyword indexes in Redis.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	batchSize int
}

// Options configure a RedisStore.
type Options struct {
	// Prefix is prepended to every key. Defaults to "mdict".
	Prefix string
	// BatchSize bounds the number of fields per HSET. Defaults to
	// DefaultBatchSize.
	BatchSize int
}

// NewRedisStore returns a store using client. A nil opts uses defaults.
func NewRedisStore(client redis.UniversalClient, opts *Options) *RedisStore {
	s := &RedisStore{client: client, prefix: "mdict", batchSize: DefaultBatchSize}
	if opts != nil {
		if opts.Prefix != "" {
			s.prefix = opts.Prefix
		}
		if opts.BatchSize > 0 {
			s.batchSize = opts.BatchSize
		}
	}
	return s
}

// Put writes the pairs and summary of idx under fingerprint. When a keyword
// occurs more than once the first position is kept. Pairs are staged under
// a temporary key and renamed into place together with the summary, so
// readers never see a partial index.
func (s *RedisStore) Put(ctx context.Context, fingerprint string, idx *mdict.Index) error {
	summary, err := idx.Summary().Serialize()
	if err != nil {
		return fmt.Errorf("serializing summary: %w", err)
	}

	pairsKey := PairsKey(s.prefix, fingerprint)
	stagingKey := StagingKey(s.prefix, fingerprint)
	batches := batchPairs(idx.Pairs, s.batchSize)
	log.Debugf("Publishing %d pairs to %s in %d batches", len(idx.Pairs), pairsKey, len(batches))

	if err := s.client.Del(ctx, stagingKey).Err(); err != nil {
		return fmt.Errorf("clearing %s: %w", stagingKey, err)
	}
	for i, batch := range batches {
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, p := range batch {
				pipe.HSetNX(ctx, stagingKey, string(p.Keyword), p.Position)
			}
			return nil
		})
		if err != nil {
			if delErr := s.client.Del(ctx, stagingKey).Err(); delErr != nil {
				log.Warningf("Failed to remove %s: %v", stagingKey, delErr)
			}
			return fmt.Errorf("writing batch %d of %s: %w", i, stagingKey, err)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(batches) == 0 {
			pipe.Del(ctx, pairsKey)
		} else {
			pipe.Rename(ctx, stagingKey, pairsKey)
		}
		pipe.Set(ctx, MetaKey(s.prefix, fingerprint), summary, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("committing %s: %w", pairsKey, err)
	}
	return nil
}

// Position returns the position stored for keyword, or an error matching
// mdict.ErrKeywordNotFound.
func (s *RedisStore) Position(ctx context.Context, fingerprint, keyword string) (uint64, error) {
	v, err := s.client.HGet(ctx, PairsKey(s.prefix, fingerprint), keyword).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: (%s)", mdict.ErrKeywordNotFound, keyword)
	}
	if err != nil {
		return 0, fmt.Errorf("reading %q: %w", keyword, err)
	}
	pos, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q for %q: %w", v, keyword, err)
	}
	return pos, nil
}

// Summary returns the summary stored under fingerprint.
func (s *RedisStore) Summary(ctx context.Context, fingerprint string) (*mdict.Summary, error) {
	data, err := s.client.Get(ctx, MetaKey(s.prefix, fingerprint)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}
	return mdict.SummaryFromJSON(data)
}

func batchPairs(pairs []mdict.KeywordPair, size int) [][]mdict.KeywordPair {
	var batches [][]mdict.KeywordPair
	for len(pairs) > 0 {
		n := min(size, len(pairs))
		batches = append(batches, pairs[:n])
		pairs = pairs[n:]
	}
	return batches
}
