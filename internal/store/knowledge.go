// Copyright 2026 The frontdoor Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/campushq/frontdoor/internal/triage"
)

//go:embed kb_articles.yaml
var articleData []byte

// kbArticle is one article definition from the embedded data file.
type kbArticle struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	URL        string   `yaml:"url"`
	Snippet    string   `yaml:"snippet"`
	Department string   `yaml:"department"`
	Tags       []string `yaml:"tags"`
	Content    string   `yaml:"content"`
}

type kbFile struct {
	Articles []kbArticle `yaml:"articles"`
}

// KnowledgeStore is an embedded knowledge-base search index implementing
// triage.KnowledgeSearcher. Relevance is word overlap against the article
// body plus boosts for title and tag matches; scores are rounded to two
// decimals and capped at 1.0.
type KnowledgeStore struct {
	articles []kbArticle
}

// NewKnowledgeStore builds the store from the embedded article data.
func NewKnowledgeStore() (*KnowledgeStore, error) {
	var file kbFile
	if err := yaml.Unmarshal(articleData, &file); err != nil {
		return nil, fmt.Errorf("parse knowledge articles: %w", err)
	}
	if len(file.Articles) == 0 {
		return nil, fmt.Errorf("knowledge article data is empty")
	}
	return &KnowledgeStore{articles: file.Articles}, nil
}

// minRelevance is the score floor below which an article is not returned.
const minRelevance = 0.1

// Search returns up to limit articles ordered by descending relevance.
func (s *KnowledgeStore) Search(_ context.Context, query string, department *triage.Department, limit int) ([]triage.Article, error) {
	return s.search(query, department, limit), nil
}

// SearchWithContent additionally returns full article bodies for the hits.
func (s *KnowledgeStore) SearchWithContent(_ context.Context, query string, department *triage.Department, limit int) ([]triage.Article, []triage.ArticleContent, error) {
	hits := s.search(query, department, limit)
	contents := make([]triage.ArticleContent, 0, len(hits))
	for _, hit := range hits {
		for _, a := range s.articles {
			if a.ID == hit.ID {
				contents = append(contents, triage.ArticleContent{
					ID:      a.ID,
					Title:   a.Title,
					Content: strings.TrimSpace(a.Content),
					Snippet: a.Snippet,
					Tags:    a.Tags,
				})
				break
			}
		}
	}
	return hits, contents, nil
}

// GetArticle returns one article with content by id, or ErrNotFound.
func (s *KnowledgeStore) GetArticle(_ context.Context, id string) (*triage.ArticleContent, error) {
	for _, a := range s.articles {
		if a.ID == id {
			return &triage.ArticleContent{
				ID:      a.ID,
				Title:   a.Title,
				Content: strings.TrimSpace(a.Content),
				Snippet: a.Snippet,
				Tags:    a.Tags,
			}, nil
		}
	}
	return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
}

// Health reports the embedded index as available.
func (s *KnowledgeStore) Health(_ context.Context) triage.HealthResult {
	start := time.Now()
	_ = len(s.articles)
	return triage.HealthResult{Healthy: true, LatencyMS: time.Since(start).Milliseconds()}
}

func (s *KnowledgeStore) search(query string, department *triage.Department, limit int) []triage.Article {
	if limit <= 0 {
		limit = 3
	}
	queryWords := wordList(strings.ToLower(query))
	if len(queryWords) == 0 {
		return nil
	}

	var hits []triage.Article
	for _, a := range s.articles {
		if department != nil && a.Department != string(*department) {
			continue
		}
		score := relevance(queryWords, a)
		if score < minRelevance {
			continue
		}
		dept := triage.Department(a.Department)
		hits = append(hits, triage.Article{
			ID:         a.ID,
			Title:      a.Title,
			URL:        a.URL,
			Snippet:    a.Snippet,
			Score:      score,
			Department: &dept,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// relevance scores an article against the query words: fraction of query
// words found in the body, boosted by title and tag matches.
func relevance(queryWords []string, a kbArticle) float64 {
	body := strings.ToLower(a.Title + " " + a.Snippet + " " + a.Content)
	title := strings.ToLower(a.Title)

	bodyHits := 0
	titleHits := 0
	for _, w := range queryWords {
		if strings.Contains(body, w) {
			bodyHits++
		}
		if strings.Contains(title, w) {
			titleHits++
		}
	}

	score := float64(bodyHits) / float64(len(queryWords))
	score += float64(titleHits) / float64(len(queryWords)) * 0.2

	for _, tag := range a.Tags {
		for _, w := range queryWords {
			if w == strings.ToLower(tag) {
				score += 0.15
				break
			}
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return math.Round(score*100) / 100
}

func wordList(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".,?!:;\"'")
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}
