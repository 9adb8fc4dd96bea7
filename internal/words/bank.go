package words

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
)

//go:embed words.txt
var defaultWords string

var ErrEmptyBank = errors.New("word bank is empty")

// Bank hands out candidate words and remembers the most recently used ones so
// they are not offered again within the exclusion window.
type Bank struct {
	words  []string
	recent []string
	window int
	rng    *rand.Rand
}

// New builds a bank from words, dropping blanks and duplicates.
func New(list []string, window int, rng *rand.Rand) (*Bank, error) {
	seen := make(map[string]struct{}, len(list))
	clean := make([]string, 0, len(list))
	for _, word := range list {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		key := strings.ToLower(word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		clean = append(clean, word)
	}
	if len(clean) == 0 {
		return nil, ErrEmptyBank
	}
	if window < 0 {
		window = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bank{words: clean, window: window, rng: rng}, nil
}

// Default returns the built-in word list.
func Default() []string {
	list, _ := Parse(strings.NewReader(defaultWords))
	return list
}

// Parse reads one word per line, skipping blank lines and # comments.
func Parse(r io.Reader) ([]string, error) {
	var list []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// LoadFile reads a custom word list.
func LoadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer file.Close()
	list, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBank, path)
	}
	return list, nil
}

func (b *Bank) Len() int { return len(b.words) }

// Candidates picks up to n distinct words that are not in the recent window.
// When the bank is too small the oldest recent words become eligible again.
func (b *Bank) Candidates(n int) []string {
	if n <= 0 {
		return nil
	}
	excluded := make(map[string]struct{}, len(b.recent))
	for _, word := range b.recent {
		excluded[word] = struct{}{}
	}
	pool := make([]string, 0, len(b.words))
	for _, word := range b.words {
		if _, skip := excluded[word]; !skip {
			pool = append(pool, word)
		}
	}
	for i := 0; len(pool) < n && i < len(b.recent); i++ {
		pool = append(pool, b.recent[i])
	}
	b.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

// Use records word as drawn so it is excluded from the next candidates.
func (b *Bank) Use(word string) {
	if b.window == 0 {
		return
	}
	for i, recent := range b.recent {
		if recent == word {
			b.recent = append(b.recent[:i], b.recent[i+1:]...)
			break
		}
	}
	b.recent = append(b.recent, word)
	if len(b.recent) > b.window {
		b.recent = b.recent[len(b.recent)-b.window:]
	}
}

// Recent returns the exclusion window, oldest first.
func (b *Bank) Recent() []string {
	out := make([]string, len(b.recent))
	copy(out, b.recent)
	return out
}
