package resolver

import (
	"testing"

	"catchup-feed/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func newTestResolver() *Resolver {
	return New(
		map[string]bool{"reddit": true, "photo": true},
		map[string]bool{"frontpage": true, "reddit": true}, // "reddit" also happens to be a query name
		map[string]string{"pics": "photo", "news": "frontpage"},
	)
}

func TestResolve_Empty(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, entity.Filter{}, r.Resolve(""))
	assert.Equal(t, entity.Filter{}, r.Resolve("   "))
}

func TestResolve_Tier(t *testing.T) {
	r := newTestResolver()
	f := r.Resolve("wire")
	assert.Equal(t, entity.FilterKindTier, f.Kind)
	assert.Equal(t, entity.TierWire, f.Tier)
}

func TestResolve_SourceBeatsQueryOfSameName(t *testing.T) {
	r := newTestResolver()
	f := r.Resolve("reddit")
	assert.Equal(t, entity.FilterKindSource, f.Kind)
	assert.Equal(t, "reddit", f.SourceType)
}

func TestResolve_SourceWithSubsources(t *testing.T) {
	r := newTestResolver()
	f := r.Resolve("reddit:golang,rust")
	assert.Equal(t, entity.FilterKindSource, f.Kind)
	assert.Equal(t, []string{"golang", "rust"}, f.Subsources)
}

func TestResolve_Query(t *testing.T) {
	r := newTestResolver()
	f := r.Resolve("frontpage")
	assert.Equal(t, entity.FilterKindQuery, f.Kind)
	assert.Equal(t, "frontpage", f.QueryName)
}

func TestResolve_Alias(t *testing.T) {
	r := newTestResolver()
	f := r.Resolve("pics")
	assert.Equal(t, entity.FilterKindSource, f.Kind)
	assert.Equal(t, "photo", f.SourceType)
}

func TestResolve_AliasToQuery(t *testing.T) {
	r := newTestResolver()
	f := r.Resolve("news")
	assert.Equal(t, entity.FilterKindQuery, f.Kind)
	assert.Equal(t, "frontpage", f.QueryName)
}

func TestResolve_Unknown(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, entity.Filter{}, r.Resolve("nonexistent"))
}
