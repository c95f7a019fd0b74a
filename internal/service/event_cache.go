package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

// CacheVersion is one immutable generation of the local campaign list.
// Callers must not modify Campaigns.
type CacheVersion struct {
	Seq          uint64
	Campaigns    []models.Campaign
	Optimistic   bool
	ReconciledAt time.Time
}

// Find returns the campaign with id.
func (v *CacheVersion) Find(id string) (models.Campaign, bool) {
	if v == nil {
		return models.Campaign{}, false
	}
	for _, c := range v.Campaigns {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return models.Campaign{}, false
}

// FetchTicket is issued when a reconciling fetch starts.
type FetchTicket struct {
	id   uint64
	base uint64
}

// EventCache holds the local campaign list as a sequence of immutable
// versions. Readers take a version with Snapshot and never see a partial
// write; writers publish a new version per mutation.
type EventCache struct {
	current atomic.Pointer[CacheVersion]

	mu             sync.Mutex
	seq            uint64
	lastOptimistic uint64
	issued         uint64
	applied        uint64
	pending        int
	now            func() time.Time
}

// NewEventCache returns an empty cache at version 0.
func NewEventCache() *EventCache {
	c := &EventCache{now: time.Now}
	c.current.Store(&CacheVersion{Campaigns: []models.Campaign{}})
	return c
}

// Snapshot returns the latest version.
func (c *EventCache) Snapshot() *CacheVersion {
	return c.current.Load()
}

// Campaigns returns a copy of the latest campaign list.
func (c *EventCache) Campaigns() []models.Campaign {
	v := c.Snapshot()
	out := make([]models.Campaign, len(v.Campaigns))
	for i, campaign := range v.Campaigns {
		out[i] = campaign.Clone()
	}
	return out
}

// BeginWrite marks a store write in flight. Reconciling fetches that land
// while a write is pending are discarded; the write reconciles afterwards.
func (c *EventCache) BeginWrite() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
}

// EndWrite clears a BeginWrite.
func (c *EventCache) EndWrite() {
	c.mu.Lock()
	if c.pending > 0 {
		c.pending--
	}
	c.mu.Unlock()
}

// Upsert publishes a version with campaign inserted or replaced by ID.
func (c *EventCache) Upsert(campaign models.Campaign) *CacheVersion {
	return c.mutate(func(list []models.Campaign) []models.Campaign {
		for i := range list {
			if list[i].ID == campaign.ID {
				list[i] = campaign.Clone()
				return list
			}
		}
		return append(list, campaign.Clone())
	})
}

// Swap replaces the record with oldID by replacement, appending it when oldID is gone.
func (c *EventCache) Swap(oldID string, replacement models.Campaign) *CacheVersion {
	return c.mutate(func(list []models.Campaign) []models.Campaign {
		out := list[:0]
		replaced := false
		for _, existing := range list {
			switch existing.ID {
			case oldID:
				if !replaced {
					out = append(out, replacement.Clone())
					replaced = true
				}
			case replacement.ID:
			default:
				out = append(out, existing)
			}
		}
		if !replaced {
			out = append(out, replacement.Clone())
		}
		return out
	})
}

// Remove publishes a version without id.
func (c *EventCache) Remove(id string) *CacheVersion {
	return c.mutate(func(list []models.Campaign) []models.Campaign {
		out := list[:0]
		for _, existing := range list {
			if existing.ID != id {
				out = append(out, existing)
			}
		}
		return out
	})
}

// BeginFetch issues a ticket for a reconciling fetch.
func (c *EventCache) BeginFetch() FetchTicket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return FetchTicket{id: c.issued, base: c.seq}
}

// Reconcile replaces the list wholesale with an authoritative fetch result.
// The result is discarded when a later fetch has already been applied, when a
// write is in flight, or when an optimistic write landed after the fetch began.
func (c *EventCache) Reconcile(ticket FetchTicket, campaigns []models.Campaign) (*CacheVersion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket.id <= c.applied || c.pending > 0 || c.lastOptimistic > ticket.base {
		return c.current.Load(), false
	}
	list := make([]models.Campaign, len(campaigns))
	for i, campaign := range campaigns {
		list[i] = campaign.Clone()
	}
	c.applied = ticket.id
	c.seq++
	v := &CacheVersion{Seq: c.seq, Campaigns: list, ReconciledAt: c.now()}
	c.current.Store(v)
	return v, true
}

func (c *EventCache) mutate(apply func([]models.Campaign) []models.Campaign) *CacheVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.current.Load()
	list := make([]models.Campaign, len(prev.Campaigns), len(prev.Campaigns)+1)
	copy(list, prev.Campaigns)
	c.seq++
	c.lastOptimistic = c.seq
	v := &CacheVersion{Seq: c.seq, Campaigns: apply(list), Optimistic: true, ReconciledAt: prev.ReconciledAt}
	c.current.Store(v)
	return v
}
