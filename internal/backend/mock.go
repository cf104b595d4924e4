package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Seed is the mock dataset file format written by `quotedeck gen`.
type Seed struct {
	Quotes     []Quote  `json:"quotes"`
	Categories []string `json:"categories"`
}

// Mock serves the Backend contract from a seeded in-memory dataset. Used for
// offline demos and as the test double for everything above this package.
type Mock struct {
	mu         sync.Mutex
	quotes     map[int64]*Quote
	categories []string
	nextID     int64
	favorites  map[string][]favEntry
	clock      func() time.Time
}

type favEntry struct {
	quoteID int64
	at      time.Time
}

var _ Backend = (*Mock)(nil)

func NewMock(seed Seed) *Mock {
	m := &Mock{
		quotes:     make(map[int64]*Quote),
		categories: append([]string(nil), seed.Categories...),
		nextID:     1,
		favorites:  make(map[string][]favEntry),
		clock:      time.Now,
	}
	for i := range seed.Quotes {
		q := seed.Quotes[i]
		if q.ID == 0 {
			q.ID = m.nextID
		}
		if q.ID >= m.nextID {
			m.nextID = q.ID + 1
		}
		m.quotes[q.ID] = &q
	}
	return m
}

// NewMockFromFile loads a seed file, falling back to the built-in dataset
// when the path is empty or unreadable.
func NewMockFromFile(path string) (*Mock, error) {
	if path == "" {
		return NewMock(DefaultSeed()), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decoding seed file %s: %w", path, err)
	}
	return NewMock(seed), nil
}

func (m *Mock) ListQuotes(_ context.Context, filter QuoteFilter) ([]Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Quote{}
	for _, q := range m.quotes {
		if !q.Approved {
			continue
		}
		if filter.Category != "" && q.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !matchesSearch(q, filter.Search) {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Mock) GetQuote(_ context.Context, id int64) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *q
	return &out, nil
}

func (m *Mock) ListCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.categories) > 0 {
		return append([]string(nil), m.categories...), nil
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, q := range m.quotes {
		if q.Category != "" && !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Mock) SubmitQuote(_ context.Context, nq NewQuote) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := &Quote{
		ID:        m.nextID,
		Text:      nq.Text,
		Author:    nq.Author,
		Category:  nq.Category,
		Tags:      nq.Tags,
		Approved:  false,
		CreatedAt: m.clock(),
	}
	m.nextID++
	m.quotes[q.ID] = q
	out := *q
	return &out, nil
}

func (m *Mock) ListPending(_ context.Context) ([]Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Quote{}
	for _, q := range m.quotes {
		if !q.Approved {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Mock) ApproveQuote(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[id]
	if !ok {
		return ErrNotFound
	}
	q.Approved = true
	return nil
}

func (m *Mock) DeleteQuote(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.quotes, id)
	return nil
}

func (m *Mock) AddFavorite(_ context.Context, userID string, quoteID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.favorites[userID] {
		if e.quoteID == quoteID {
			return nil
		}
	}
	m.favorites[userID] = append(m.favorites[userID], favEntry{quoteID: quoteID, at: m.clock()})
	return nil
}

func (m *Mock) RemoveFavorite(_ context.Context, userID string, quoteID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.favorites[userID]
	for i, e := range entries {
		if e.quoteID == quoteID {
			m.favorites[userID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Mock) IsFavorited(_ context.Context, userID string, quoteID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.favorites[userID] {
		if e.quoteID == quoteID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Mock) ListFavorites(_ context.Context, userID string) ([]Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Entries append in favorited-at order, so newest-first is a reversal.
	entries := m.favorites[userID]
	out := []Quote{}
	for i := len(entries) - 1; i >= 0; i-- {
		if q, ok := m.quotes[entries[i].quoteID]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *Mock) Probe(_ context.Context) error {
	return nil
}

func matchesSearch(q *Quote, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(q.Text), term) || strings.Contains(strings.ToLower(q.Author), term) {
		return true
	}
	for _, tag := range q.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// DefaultSeed is the dataset used when no seed file is configured.
func DefaultSeed() Seed {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	quotes := []Quote{
		{Text: "Simplicity is the ultimate sophistication.", Author: "Leonardo da Vinci", Category: "wisdom", Tags: []string{"design"}, Approved: true},
		{Text: "The only way to do great work is to love what you do.", Author: "Steve Jobs", Category: "work", Approved: true},
		{Text: "In the middle of difficulty lies opportunity.", Author: "Albert Einstein", Category: "wisdom", Tags: []string{"perseverance"}, Approved: true},
		{Text: "Well done is better than well said.", Author: "Benjamin Franklin", Category: "work", Approved: true},
		{Text: "What we think, we become.", Author: "Buddha", Category: "mind", Approved: true},
		{Text: "An unreviewed quote about nothing in particular.", Author: "Anonymous", Category: "misc", Approved: false},
	}
	for i := range quotes {
		quotes[i].ID = int64(i + 1)
		quotes[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
	}
	return Seed{
		Quotes:     quotes,
		Categories: []string{"mind", "misc", "wisdom", "work"},
	}
}
