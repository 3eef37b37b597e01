package cachekey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	first := Key("search", Args{"query": "scarf", "limit": 20, "offset": 0})
	second := Key("search", Args{"query": "scarf", "limit": 20, "offset": 0})

	assert.Equal(t, first, second)
}

func TestKeyIgnoresArgOrder(t *testing.T) {
	// encoding/json сортирует ключи map, порядок вставки не важен
	first := Key("search", Args{"a": 1, "b": 2, "c": 3})
	second := Key("search", Args{"c": 3, "a": 1, "b": 2})

	assert.Equal(t, first, second)
}

func TestKeyDistinguishesArgs(t *testing.T) {
	base := Key("search", Args{"query": "scarf", "limit": 20})

	assert.NotEqual(t, base, Key("search", Args{"query": "scarf", "limit": 10}))
	assert.NotEqual(t, base, Key("search", Args{"query": "hat", "limit": 20}))
	assert.NotEqual(t, base, Key("suggestions", Args{"query": "scarf", "limit": 20}))
}

func TestKeyShape(t *testing.T) {
	key := Key("trending_products", Args{"limit": 10})

	parts := strings.SplitN(key, ":", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "trending_products", parts[0])
	assert.Len(t, parts[1], 64)
}

func TestSubjectKeyShape(t *testing.T) {
	key := SubjectKey("personalized", "user-42", Args{"limit": 10})

	require.True(t, strings.HasPrefix(key, "personalized:user-42:"))

	digest := strings.TrimPrefix(key, "personalized:user-42:")
	assert.Len(t, digest, 64)
}

func TestSubjectKeyDistinguishesSubjects(t *testing.T) {
	first := SubjectKey("also_bought", "1", Args{"limit": 5})
	second := SubjectKey("also_bought", "2", Args{"limit": 5})

	assert.NotEqual(t, first, second)
}
