// Package catalog is the in-memory view of the persisted bot state.
//
// Every mutation clones the current snapshot, applies the change, saves it
// and only then swaps it in, so a failed save leaves memory untouched.
// Writes are serialized by one mutex.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"promobot/internal/storage"
	logx "promobot/pkg/logx"
)

type Catalog struct {
	mu    sync.RWMutex
	snap  storage.Snapshot
	store storage.Store
	log   logx.Logger
	now   func() time.Time
}

// Header is the broadcast preamble.
type Header struct {
	Text      string
	MediaID   string
	MediaKind string
}

func (h Header) HasMedia() bool { return h.MediaID != "" && h.MediaKind != "" }

// Open loads the snapshot from store.
func Open(ctx context.Context, store storage.Store, log logx.Logger) (*Catalog, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log.Info("catalog loaded",
		logx.Int("chats", len(snap.Chats)),
		logx.Bool("admin_set", snap.AdminID != 0),
	)
	return &Catalog{snap: snap, store: store, log: log, now: time.Now}, nil
}

// mutate applies fn to a clone and persists it. fn returns false to skip the save.
func (c *Catalog) mutate(ctx context.Context, fn func(s *storage.Snapshot) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap.Clone()
	if !fn(&next) {
		return nil
	}
	if err := c.store.Save(ctx, next); err != nil {
		return err
	}
	c.snap = next
	return nil
}

func (c *Catalog) AdminID() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.AdminID, c.snap.AdminID != 0
}

func (c *Catalog) IsAdmin(userID int64) bool {
	id, ok := c.AdminID()
	return ok && userID != 0 && id == userID
}

// ClaimAdmin sets the admin if none exists. It reports whether id is now
// the admin because of this call.
func (c *Catalog) ClaimAdmin(ctx context.Context, id int64) (bool, error) {
	claimed := false
	err := c.mutate(ctx, func(s *storage.Snapshot) bool {
		if s.AdminID != 0 || id == 0 {
			return false
		}
		s.AdminID = id
		claimed = true
		return true
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// Chats returns all registered chats sorted by id.
func (c *Catalog) Chats() []storage.Chat {
	c.mu.RLock()
	out := make([]storage.Chat, 0, len(c.snap.Chats))
	for _, ch := range c.snap.Chats {
		out = append(out, ch)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) ChatCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snap.Chats)
}

func (c *Catalog) Chat(id int64) (storage.Chat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.snap.Chats[id]
	return ch, ok
}

// PutChat inserts or replaces a chat. RegisteredAt defaults to now.
func (c *Catalog) PutChat(ctx context.Context, ch storage.Chat) error {
	if ch.RegisteredAt.IsZero() {
		ch.RegisteredAt = c.now()
	}
	ch.RegisteredAt = ch.RegisteredAt.UTC().Truncate(time.Second)
	return c.mutate(ctx, func(s *storage.Snapshot) bool {
		s.Chats[ch.ID] = ch
		return true
	})
}

// RemoveChats deletes the given ids and returns the chats that existed.
// Absent ids are ignored; nothing is saved when nothing was removed.
func (c *Catalog) RemoveChats(ctx context.Context, ids ...int64) ([]storage.Chat, error) {
	var removed []storage.Chat
	err := c.mutate(ctx, func(s *storage.Snapshot) bool {
		for _, id := range ids {
			if ch, ok := s.Chats[id]; ok {
				removed = append(removed, ch)
				delete(s.Chats, id)
			}
		}
		return len(removed) > 0
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (c *Catalog) Schedule(adminID int64) (storage.Schedule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sc, ok := c.snap.Schedules[adminID]
	if ok {
		sc.Times = append([]string(nil), sc.Times...)
	}
	return sc, ok
}

// SetSchedule replaces the admin's times and activates the schedule.
func (c *Catalog) SetSchedule(ctx context.Context, adminID int64, times []string) (storage.Schedule, error) {
	sc := storage.Schedule{Times: append([]string(nil), times...), Active: true}
	err := c.mutate(ctx, func(s *storage.Snapshot) bool {
		s.Schedules[adminID] = sc
		return true
	})
	return sc, err
}

// SetScheduleActive flips the active flag, keeping the times. ok is false
// when no schedule exists.
func (c *Catalog) SetScheduleActive(ctx context.Context, adminID int64, active bool) (sc storage.Schedule, ok bool, err error) {
	err = c.mutate(ctx, func(s *storage.Snapshot) bool {
		cur, exists := s.Schedules[adminID]
		if !exists {
			return false
		}
		ok = true
		cur.Active = active
		s.Schedules[adminID] = cur
		sc = cur
		return true
	})
	return sc, ok, err
}

func (c *Catalog) Header() Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Header{Text: c.snap.HeaderText, MediaID: c.snap.HeaderMediaID, MediaKind: c.snap.HeaderMediaKind}
}

func (c *Catalog) SetHeaderText(ctx context.Context, text string) error {
	return c.mutate(ctx, func(s *storage.Snapshot) bool {
		s.HeaderText = text
		return true
	})
}

func (c *Catalog) SetHeaderMedia(ctx context.Context, kind, fileID string) error {
	return c.mutate(ctx, func(s *storage.Snapshot) bool {
		s.HeaderMediaKind = kind
		s.HeaderMediaID = fileID
		return true
	})
}

// ClearHeaderMedia removes the media; it reports whether any was set.
func (c *Catalog) ClearHeaderMedia(ctx context.Context) (bool, error) {
	had := false
	err := c.mutate(ctx, func(s *storage.Snapshot) bool {
		had = s.HeaderMediaID != ""
		s.HeaderMediaID, s.HeaderMediaKind = "", ""
		return had
	})
	return had, err
}

// Audit appends an audit entry; failures are logged, not returned.
func (c *Catalog) Audit(ctx context.Context, e storage.AuditEntry) {
	if e.At.IsZero() {
		e.At = c.now()
	}
	if err := c.store.AppendAudit(ctx, e); err != nil {
		c.log.Warn("audit append failed", logx.String("action", e.Action), logx.Err(err))
	}
}
