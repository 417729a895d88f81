package words

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
)

// DefaultWords covers the classifier's label set plus common sketching
// prompts, so fallback predictions and offered words come from the same
// vocabulary.
var DefaultWords = []string{
	"airplane", "apple", "banana", "bicycle", "bird", "book", "bridge",
	"butterfly", "cactus", "cake", "camera", "candle", "car", "castle",
	"cat", "chair", "clock", "cloud", "crab", "crown", "cup", "dog",
	"dolphin", "donut", "door", "dragon", "elephant", "envelope", "eye",
	"fish", "flower", "fork", "ghost", "guitar", "hammer", "hat", "heart",
	"house", "icecream", "key", "ladder", "lamp", "lightning", "lion",
	"moon", "mountain", "mushroom", "octopus", "pencil", "piano", "pizza",
	"rainbow", "robot", "rocket", "shark", "sheep", "snail", "snake",
	"snowman", "spider", "star", "sun", "tree", "umbrella", "whale",
}

// Pool is an explicit, injectable word pool. Draws are without
// replacement until the pool is exhausted, then the deck reshuffles.
// One pool is shared by every room, so all draws go through a lock.
type Pool struct {
	mu    sync.Mutex
	words []string
	deck  []string
	rng   *rand.Rand
}

func NewPool(words []string, rng *rand.Rand) (*Pool, error) {
	cleaned := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		cleaned = append(cleaned, w)
	}
	if len(cleaned) < 3 {
		return nil, fmt.Errorf("word pool needs at least 3 words, got %d", len(cleaned))
	}
	return &Pool{words: cleaned, rng: rng}, nil
}

// Load reads a JSON array of words from path. An empty path yields the
// default pool.
func Load(path string, rng *rand.Rand) (*Pool, error) {
	if path == "" {
		return NewPool(DefaultWords, rng)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read word list %s: %w", path, err)
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("could not parse word list %s: %w", path, err)
	}
	return NewPool(words, rng)
}

func (p *Pool) Size() int {
	return len(p.words)
}

// Draw returns n distinct words without replacement.
func (p *Pool) Draw(n int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	drawn := make([]string, 0, n)
	for len(drawn) < n {
		if len(p.deck) == 0 {
			p.reshuffle()
		}
		w := p.deck[len(p.deck)-1]
		p.deck = p.deck[:len(p.deck)-1]
		if contains(drawn, w) {
			continue
		}
		drawn = append(drawn, w)
	}
	return drawn
}

// Sample returns up to n words distinct from exclude, used for fallback
// prediction decoys.
func (p *Pool) Sample(n int, exclude string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	perm := p.rng.Perm(len(p.words))
	out := make([]string, 0, n)
	for _, i := range perm {
		if len(out) == n {
			break
		}
		if p.words[i] == exclude {
			continue
		}
		out = append(out, p.words[i])
	}
	return out
}

func (p *Pool) reshuffle() {
	p.deck = make([]string, len(p.words))
	copy(p.deck, p.words)
	p.rng.Shuffle(len(p.deck), func(i, j int) {
		p.deck[i], p.deck[j] = p.deck[j], p.deck[i]
	})
}

func contains(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
