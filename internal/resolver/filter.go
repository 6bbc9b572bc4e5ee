// Package resolver parses a compound filter expression string and resolves
// it, through a layered chain, to a structured entity.Filter.
package resolver

import (
	"strings"

	"catchup-feed/internal/domain/entity"
)

// Resolver resolves filter expressions against the system's known tiers,
// registered adapter source types, and configured query names. Tier and
// source identities are system-level and always win over a user-named query
// sharing the same label; aliases are tried last and restart resolution
// from the source-type step.
type Resolver struct {
	SourceTypes map[string]bool
	QueryNames  map[string]bool
	Aliases     map[string]string
}

// New builds a Resolver from the set of registered adapter source types,
// the set of loaded query names, and the recipe's alias map.
func New(sourceTypes map[string]bool, queryNames map[string]bool, aliases map[string]string) *Resolver {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Resolver{SourceTypes: sourceTypes, QueryNames: queryNames, Aliases: aliases}
}

// Resolve parses expr as `prefix` or `prefix:rest` (rest comma-separated)
// and returns the resolved Filter. An empty expr resolves to the
// zero-value Filter (no filter active).
func (r *Resolver) Resolve(expr string) entity.Filter {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return entity.Filter{}
	}
	prefix, rest := splitExpr(expr)

	if tier := entity.Tier(prefix); entity.ValidTier(tier) {
		return entity.Filter{Kind: entity.FilterKindTier, Tier: tier}
	}

	if f, ok := r.resolveFromSourceType(prefix, rest); ok {
		return f
	}

	if target, ok := r.Aliases[prefix]; ok {
		// Restart from the source-type step; an alias may not itself be
		// re-aliased, and a tier is not re-checked here per the
		// resolution chain.
		if f, ok := r.resolveFromSourceType(target, rest); ok {
			return f
		}
	}

	return entity.Filter{}
}

// resolveFromSourceType implements steps 2-3 of the chain: source type,
// then query name.
func (r *Resolver) resolveFromSourceType(prefix, rest string) (entity.Filter, bool) {
	if r.SourceTypes[prefix] {
		return entity.Filter{
			Kind:       entity.FilterKindSource,
			SourceType: prefix,
			Subsources: splitRest(rest),
		}, true
	}
	if r.QueryNames[prefix] {
		return entity.Filter{Kind: entity.FilterKindQuery, QueryName: prefix}, true
	}
	return entity.Filter{}, false
}

func splitExpr(expr string) (prefix, rest string) {
	i := strings.IndexByte(expr, ':')
	if i < 0 {
		return expr, ""
	}
	return expr[:i], expr[i+1:]
}

func splitRest(rest string) []string {
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
