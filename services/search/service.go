// Package search fans one query out across every configured provider and
// merges their contributions.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"snatchr/models"
)

// Searcher is what the aggregator needs from a provider.
type Searcher interface {
	Name() string
	Search(ctx context.Context, searchStrings models.SearchStrings) ([]models.ReleaseResult, error)
}

// Service runs searches across a fixed set of providers. Providers are
// isolated from each other: one provider failing, or even panicking, costs
// only its own contribution.
type Service struct {
	providers     []Searcher
	maxConcurrent int
}

// NewService creates a search service. maxConcurrent bounds how many
// providers are queried at once; values below 1 fall back to 4.
func NewService(providers []Searcher, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &Service{providers: providers, maxConcurrent: maxConcurrent}
}

// SearchAll queries every provider with the same search strings and
// concatenates their results in provider registration order, each
// provider's internal ordering preserved. Every result is stamped with the
// name of the provider that produced it.
//
// Credential problems are collected and returned joined, but never at the
// expense of the other providers' results: the returned slice is complete
// for every provider that could run.
func (s *Service) SearchAll(ctx context.Context, searchStrings models.SearchStrings) ([]models.ReleaseResult, error) {
	if len(s.providers) == 0 {
		return nil, nil
	}

	sweepID := uuid.New().String()[:8]
	started := time.Now()
	log.Printf("[search] sweep %s: querying %d providers", sweepID, len(s.providers))

	perProvider := make([][]models.ReleaseResult, len(s.providers))
	errs := make([]error, len(s.providers))

	p := pool.New().WithMaxGoroutines(s.maxConcurrent)
	for i, prov := range s.providers {
		i, prov := i, prov
		p.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[search] sweep %s: provider %s panicked: %v", sweepID, prov.Name(), r)
				}
			}()

			results, err := prov.Search(ctx, searchStrings)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", prov.Name(), err)
				return
			}
			for j := range results {
				results[j].Provider = prov.Name()
			}
			perProvider[i] = results
		})
	}
	p.Wait()

	var merged []models.ReleaseResult
	for _, results := range perProvider {
		merged = append(merged, results...)
	}

	log.Printf("[search] sweep %s: %d results in %s", sweepID, len(merged), time.Since(started).Round(time.Millisecond))
	return merged, errors.Join(errs...)
}
