package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/redis/go-redis/v9"

	"testgen-backend/internal/models"
)

const (
	// Table-of-contents levels carried in chunk metadata. The fine-grained
	// level holds per-chapter titles in most indexed books; some books only
	// populate the coarse level.
	coarseChapterField = "toc_level_1_title"
	fineChapterField   = "toc_level_2_title"

	metadataFieldPrefix = "metadata.source.metadata."

	// Terms aggregation bucket cap for chapter discovery.
	chapterAggSize = 200

	// Defaults applied when a request leaves the limits unset.
	DefaultMaxChunks = 200
	DefaultMaxChars  = 100000
)

// SearchService runs the chapter discovery and content retrieval queries
// against the OpenSearch cluster. The resolved chapter key is request-scoped;
// nothing about the current request is stored on the service. When a Redis
// client is provided, resolved chapter keys are cached per index.
type SearchService struct {
	client   *opensearch.Client
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewSearchService(client *opensearch.Client, cache *redis.Client, cacheTTL time.Duration) *SearchService {
	return &SearchService{
		client:   client,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ResolveChapterKey decides which table-of-contents field names chapters in
// the given index: if any fine-grained value mentions "chapter", that field
// wins, otherwise the coarse field is used as a best guess.
func (s *SearchService) ResolveChapterKey(ctx context.Context, index string) (string, error) {
	if key := s.cachedChapterKey(ctx, index); key != "" {
		return key, nil
	}

	buckets, err := s.chapterBuckets(ctx, index, fineChapterField)
	if err != nil {
		return "", err
	}

	key := coarseChapterField
	for _, b := range buckets {
		if strings.Contains(strings.ToLower(b.Key), "chapter") {
			key = fineChapterField
			break
		}
	}

	s.storeChapterKey(ctx, index, key)
	return key, nil
}

// ListChapters returns the chapter buckets for an index along with the
// chapter key that produced them.
func (s *SearchService) ListChapters(ctx context.Context, index string) ([]models.ChapterInfo, string, error) {
	key, err := s.ResolveChapterKey(ctx, index)
	if err != nil {
		return nil, "", err
	}

	buckets, err := s.chapterBuckets(ctx, index, key)
	if err != nil {
		return nil, "", err
	}

	chapters := make([]models.ChapterInfo, 0, len(buckets))
	for _, b := range buckets {
		chapters = append(chapters, models.ChapterInfo{Name: b.Key, DocCount: b.DocCount})
	}

	return chapters, key, nil
}

// RetrieveChapterContent fetches the chapter's chunks ordered by page number
// then in-page sequence and concatenates their text, hard-truncated at
// maxChars. Zero matching chunks yields an empty string, not an error.
func (s *SearchService) RetrieveChapterContent(ctx context.Context, index, chapterName string, maxChunks, maxChars int) (string, error) {
	if chapterName == "" {
		return "", models.ErrEmptyChapterName
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	key, err := s.ResolveChapterKey(ctx, index)
	if err != nil {
		return "", err
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				metadataFieldPrefix + key + ".keyword": chapterName,
			},
		},
		"sort": []map[string]string{
			{metadataFieldPrefix + "pdf_page_number": "asc"},
			{metadataFieldPrefix + "page_sequence": "asc"},
		},
		"_source": map[string]interface{}{
			"excludes": []string{"embedding"},
		},
		"size": maxChunks,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return "", &models.SearchError{Op: "build content query", Err: err}
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return "", &models.SearchError{Op: "retrieve chapter content", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", &models.SearchError{Op: "retrieve chapter content", Err: fmt.Errorf("opensearch returned %s", res.Status())}
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					Value string `json:"value"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", &models.SearchError{Op: "decode content response", Err: err}
	}

	if parsed.Hits.Total.Value == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, hit := range parsed.Hits.Hits {
		b.WriteString(hit.Source.Value)
	}

	content := b.String()
	if len(content) > maxChars {
		content = content[:maxChars]
	}

	return content, nil
}

type aggBucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// chapterBuckets runs the terms aggregation over one table-of-contents field.
func (s *SearchService) chapterBuckets(ctx context.Context, index, field string) ([]aggBucket, error) {
	query := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"chapter_names": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": metadataFieldPrefix + field + ".keyword",
					"size":  chapterAggSize,
				},
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, &models.SearchError{Op: "build chapter aggregation", Err: err}
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, &models.SearchError{Op: "aggregate chapter names", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, &models.SearchError{Op: "aggregate chapter names", Err: fmt.Errorf("opensearch returned %s", res.Status())}
	}

	var parsed struct {
		Aggregations struct {
			ChapterNames struct {
				Buckets []aggBucket `json:"buckets"`
			} `json:"chapter_names"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &models.SearchError{Op: "decode chapter aggregation", Err: err}
	}

	return parsed.Aggregations.ChapterNames.Buckets, nil
}

func chapterKeyCacheKey(index string) string {
	return "chapter_key:" + index
}

func (s *SearchService) cachedChapterKey(ctx context.Context, index string) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.Get(ctx, chapterKeyCacheKey(index)).Result()
	if err != nil {
		return ""
	}
	return key
}

func (s *SearchService) storeChapterKey(ctx context.Context, index, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, chapterKeyCacheKey(index), key, s.cacheTTL).Err(); err != nil {
		log.Printf("chapter key cache write failed for %s: %v", index, err)
	}
}
