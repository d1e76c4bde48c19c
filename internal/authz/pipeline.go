package authz

import (
	"context"

	"caseflow.org/internal/obs"
)

// Lookups is the union of collaborators the strategy list needs. The pg
// store satisfies it.
type Lookups interface {
	EngagementFinder
	ContactFinder
	TagFinder
	ServiceFinder
	ServiceAnswerFinder
	UserFinder
}

// Pipeline holds the strategy list in its fixed evaluation order. Built once
// at startup and shared read-only across requests.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline wires the six strategies against the given lookups. Order is
// part of the contract: the first applicable strategy decides alone.
func NewPipeline(src Lookups) *Pipeline {
	return &Pipeline{strategies: []Strategy{
		parentOrg{},
		orgArg{},
		entityLookup{
			engagements: src,
			contacts:    src,
			tags:        src,
			services:    src,
			answers:     src,
		},
		inputOrg{},
		answerInput{services: src},
		userScan{users: src},
	}}
}

// Resolve renders the verdict for one field resolution. A query no strategy
// recognizes denies: an unresolvable target must never grant access.
func (p *Pipeline) Resolve(ctx context.Context, q Query) (bool, error) {
	for _, s := range p.strategies {
		if !s.Applicable(q) {
			continue
		}
		allowed, err := s.Authorized(ctx, q)
		if err != nil {
			return false, err
		}
		obs.AuthzDecision(s.Name(), allowed)
		return allowed, nil
	}
	obs.AuthzDecision("none", false)
	return false, nil
}
