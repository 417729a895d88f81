package words

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolNormalizesAndDeduplicates(t *testing.T) {
	pool, err := NewPool([]string{" Apple ", "apple", "HOUSE", "", "train"}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 3, pool.Size())
}

func TestNewPoolRejectsTinyLists(t *testing.T) {
	_, err := NewPool([]string{"apple", "apple", "house"}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestDrawIsWithoutReplacementUntilExhausted(t *testing.T) {
	base := []string{"apple", "house", "train", "cloud", "spoon"}
	pool, err := NewPool(base, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < 5; i++ {
		for _, w := range pool.Draw(1) {
			seen[w]++
		}
	}
	// One full pass over the deck hands out every word exactly once.
	require.Len(t, seen, len(base))
	for w, n := range seen {
		assert.Equal(t, 1, n, "word %q drawn %d times in one deck pass", w, n)
	}

	// The deck reshuffles and keeps dealing.
	assert.Len(t, pool.Draw(3), 3)
}

func TestDrawReturnsDistinctWords(t *testing.T) {
	pool, err := NewPool([]string{"apple", "house", "train"}, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		drawn := pool.Draw(3)
		require.Len(t, drawn, 3)
		assert.NotEqual(t, drawn[0], drawn[1])
		assert.NotEqual(t, drawn[0], drawn[2])
		assert.NotEqual(t, drawn[1], drawn[2])
	}
}

func TestSampleExcludesTheGivenWord(t *testing.T) {
	pool, err := NewPool(DefaultWords, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		sample := pool.Sample(4, "cat")
		require.Len(t, sample, 4)
		assert.NotContains(t, sample, "cat")
	}
}

func TestLoadReadsJSONWordList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Apple", "house", "train", "cloud"]`), 0o644))

	pool, err := Load(path, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	assert.Equal(t, 4, pool.Size())
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	pool, err := Load("", rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	assert.Equal(t, len(DefaultWords), pool.Size())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))

	_, err := Load(path, rand.New(rand.NewSource(6)))
	assert.Error(t, err)
}
