// Package identity supplies the favoriting principal: the authenticated user
// id when a session token carries one, otherwise a stable anonymous id
// generated once per profile and persisted to the data dir.
package identity

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quotedeck/internal/logger"
)

const idFileName = "principal"

type Provider struct {
	mu     sync.Mutex
	path   string
	cached string
}

func NewProvider(dataDir string) *Provider {
	return &Provider{path: filepath.Join(dataDir, idFileName)}
}

// GetOrCreate returns the persisted anonymous principal id, generating and
// persisting a fresh one when none exists. Malformed stored ids are
// regenerated, never surfaced as errors. If the data dir is unwritable the
// id lives for the process only.
func (p *Provider) GetOrCreate() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached
	}

	if raw, err := os.ReadFile(p.path); err == nil {
		id := strings.TrimSpace(string(raw))
		if validID(id) {
			p.cached = id
			return id
		}
		logger.Log.Warn("Discarding malformed principal id", zap.String("path", p.path))
	}

	id := newAnonID()
	p.cached = id

	if err := p.persist(id); err != nil {
		logger.Log.Warn("Principal id not persisted, session-only identity",
			zap.String("path", p.path),
			zap.Error(err),
		)
	}

	return id
}

func (p *Provider) persist(id string) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write principal id: %w", err)
	}
	return nil
}

// newAnonID combines a monotonic timestamp with a random suffix. The suffix
// comes from a crypto-sourced UUID, with a weaker PRNG fallback when the
// entropy source is unavailable.
func newAnonID() string {
	ts := time.Now().UnixMilli()

	u, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("anon-%d-%08x", ts, rand.Uint32())
	}
	return fmt.Sprintf("anon-%d-%s", ts, strings.SplitN(u.String(), "-", 2)[0])
}

func validID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
