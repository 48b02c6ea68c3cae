package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrObjectNotFound is returned for keys that were never stored or were deleted.
var ErrObjectNotFound = errors.New("storage: object not found")

// Object is a stored blob.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore is an in-process blob store for development and tests. Signed
// URLs point at baseURL and carry an HMAC over key and expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewMemoryStore(baseURL string, secret []byte) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]Object),
		baseURL: baseURL,
		secret:  secret,
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.objects[key] = Object{ContentType: contentType, Data: buf}
	m.mu.Unlock()
	return nil
}

// Delete is idempotent.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}

func (m *MemoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("sign %s: %w", key, ErrObjectNotFound)
	}
	expires := m.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("key", key)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", m.sign(key, expires))
	return m.baseURL + "?" + q.Encode(), nil
}

// Verify checks a signature produced by SignedURL.
func (m *MemoryStore) Verify(key string, expires int64, sig string) bool {
	if m.now().Unix() > expires {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(m.sign(key, expires)))
}

func (m *MemoryStore) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
