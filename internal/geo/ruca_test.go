package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/readmit-risk-server/internal/domain"
)

func TestStaticResolverMappedEntry(t *testing.T) {
	r := StaticResolver{Entries: map[string]domain.RuralCategory{
		"59801": domain.RuralIsolated,
	}}

	cat, err := r.Resolve(context.Background(), "59801")
	assert.NoError(t, err)
	assert.Equal(t, domain.RuralIsolated, cat)
}

func TestStaticResolverPrefixFallback(t *testing.T) {
	r := StaticResolver{}

	cat, err := r.Resolve(context.Background(), "57501")
	assert.NoError(t, err)
	assert.Equal(t, domain.RuralSmall, cat)

	cat, err = r.Resolve(context.Background(), "10001")
	assert.NoError(t, err)
	assert.Equal(t, domain.RuralUrban, cat)
}
