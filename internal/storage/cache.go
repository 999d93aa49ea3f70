// Package storage persists the four local cache slots as JSON blobs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"github.com/Samir899/SpendVolt/internal/models"
)

// ErrNotFound is returned by BlobClient implementations for missing blobs.
var ErrNotFound = errors.New("blob not found")

// Slot names. They match the keys the mobile client has always used.
const (
	SlotTransactions = "saved_transactions"
	SlotCategories   = "user_categories"
	SlotProfile      = "user_profile"
	SlotRecurring    = "recurring_transactions"
)

// BlobClient defines the blob operations the cache needs.
type BlobClient interface {
	UploadText(ctx context.Context, containerName, blobName, content string) error
	DownloadText(ctx context.Context, containerName, blobName string) (string, error)
}

// Cache loads and saves whole collections. Loads never fail: a missing or
// unreadable slot yields its default value.
type Cache struct {
	blobs     BlobClient
	container string

	mu        sync.RWMutex
	namespace string
}

func NewCache(blobs BlobClient, container string) *Cache {
	return &Cache{blobs: blobs, container: container, namespace: "default"}
}

// SetNamespace scopes every slot to a user so two accounts never share a cache.
func (c *Cache) SetNamespace(ns string) {
	if ns == "" {
		ns = "default"
	}
	c.mu.Lock()
	c.namespace = ns
	c.mu.Unlock()
}

func (c *Cache) blobName(slot string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return path.Join(c.namespace, slot+".json")
}

func (c *Cache) load(ctx context.Context, slot string, out any) bool {
	name := c.blobName(slot)
	text, err := c.blobs.DownloadText(ctx, c.container, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Info("cache slot empty, using default", "slot", slot)
		} else {
			slog.Warn("failed to read cache slot, using default", "slot", slot, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		slog.Warn("failed to decode cache slot, using default", "slot", slot, "error", err)
		return false
	}
	return true
}

func (c *Cache) save(ctx context.Context, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", slot, err)
	}
	if err := c.blobs.UploadText(ctx, c.container, c.blobName(slot), string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", slot, err)
	}
	return nil
}

func (c *Cache) LoadTransactions(ctx context.Context) []models.Transaction {
	var txns []models.Transaction
	if !c.load(ctx, SlotTransactions, &txns) {
		return []models.Transaction{}
	}
	return txns
}

func (c *Cache) SaveTransactions(ctx context.Context, txns []models.Transaction) error {
	if txns == nil {
		txns = []models.Transaction{}
	}
	return c.save(ctx, SlotTransactions, txns)
}

func (c *Cache) LoadCategories(ctx context.Context) []models.UserCategory {
	var cats []models.UserCategory
	if !c.load(ctx, SlotCategories, &cats) || len(cats) == 0 {
		return models.DefaultCategories()
	}
	return cats
}

func (c *Cache) SaveCategories(ctx context.Context, cats []models.UserCategory) error {
	return c.save(ctx, SlotCategories, cats)
}

func (c *Cache) LoadProfile(ctx context.Context) models.UserProfile {
	var p models.UserProfile
	if !c.load(ctx, SlotProfile, &p) {
		return models.DefaultProfile()
	}
	return p
}

func (c *Cache) SaveProfile(ctx context.Context, p models.UserProfile) error {
	return c.save(ctx, SlotProfile, p)
}

func (c *Cache) LoadRecurring(ctx context.Context) []models.RecurringTransaction {
	var rules []models.RecurringTransaction
	if !c.load(ctx, SlotRecurring, &rules) {
		return []models.RecurringTransaction{}
	}
	return rules
}

func (c *Cache) SaveRecurring(ctx context.Context, rules []models.RecurringTransaction) error {
	if rules == nil {
		rules = []models.RecurringTransaction{}
	}
	return c.save(ctx, SlotRecurring, rules)
}
