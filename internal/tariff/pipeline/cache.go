package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
	"tariff-workers/internal/tariff/matcher"
)

var classificationSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:tariff-workers:classification"))

// CachedClassifier keeps classifications in redis, keyed by the normalized
// description and hint. Cache errors never fail a classification.
type CachedClassifier struct {
	inner  Classifier
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedClassifier returns inner unchanged when client is nil or ttl is not positive.
func NewCachedClassifier(inner Classifier, client redis.Cmdable, ttl time.Duration, log logger.Logger) Classifier {
	if client == nil || ttl <= 0 {
		return inner
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedClassifier{inner: inner, client: client, ttl: ttl, logger: log}
}

// ClassificationKey is stable across whitespace, punctuation and case changes.
func ClassificationKey(description, categoryHint string) string {
	name := matcher.Normalize(description) + "|" + strings.ToLower(strings.TrimSpace(categoryHint))
	return "tariff:classification:" + uuid.NewSHA1(classificationSpace, []byte(name)).String()
}

func (c *CachedClassifier) Classify(ctx context.Context, description, categoryHint string) (*models.ClassificationResult, error) {
	key := ClassificationKey(description, categoryHint)

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var result models.ClassificationResult
		if jsonErr := json.Unmarshal(cached, &result); jsonErr == nil {
			return &result, nil
		}
		c.logger.Warn("discarding unreadable classification cache entry", map[string]interface{}{"key": key})
	case err != redis.Nil:
		c.logger.Warn("classification cache read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	result, err := c.inner.Classify(ctx, description, categoryHint)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return result, nil
	}
	if err := c.client.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("classification cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
	return result, nil
}
