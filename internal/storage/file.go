package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	logx "promobot/pkg/logx"
)

// fileStore keeps the snapshot in one JSON document.
//
// Files:
//   - <path>                  (snapshot, rewritten via tmp file + rename)
//   - <prefix>.audit.jsonl    (append-only JSON Lines)
type fileStore struct {
	log  logx.Logger
	path string

	mu        sync.Mutex
	auditFile *os.File
}

// fileDoc is the on-disk schema. Ids are object keys, hence strings.
type fileDoc struct {
	Chats           map[string]fileChat     `json:"chats"`
	Schedules       map[string]fileSchedule `json:"schedules"`
	HeaderText      string                  `json:"header_text"`
	HeaderMediaID   *string                 `json:"header_media_id"`
	HeaderMediaKind *string                 `json:"header_media_kind"`
	AdminID         *int64                  `json:"admin_id"`
}

type fileChat struct {
	Name         string     `json:"name"`
	Kind         string     `json:"kind"`
	Link         string     `json:"link,omitempty"`
	Members      int        `json:"members,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

type fileSchedule struct {
	Times  []string `json:"times"`
	Active bool     `json:"active"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	af, err := os.OpenFile(filepath.Join(dir, base+".audit.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, auditFile: af}, nil
}

func (s *fileStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("no data file yet; starting empty", logx.String("path", s.path))
		return Default(), nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	if strings.TrimSpace(string(b)) == "" {
		return Default(), nil
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc.snapshot()
}

func (d fileDoc) snapshot() (Snapshot, error) {
	snap := Default()
	for k, c := range d.Chats {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("chat key %q: %w", k, err)
		}
		ch := Chat{ID: id, Name: c.Name, Kind: c.Kind, Link: c.Link, Members: c.Members}
		if c.RegisteredAt != nil {
			ch.RegisteredAt = *c.RegisteredAt
		}
		snap.Chats[id] = ch
	}
	for k, sc := range d.Schedules {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("schedule key %q: %w", k, err)
		}
		snap.Schedules[id] = Schedule{Times: sc.Times, Active: sc.Active}
	}
	// An empty header in the file means "never set".
	if d.HeaderText != "" {
		snap.HeaderText = d.HeaderText
	}
	if d.HeaderMediaID != nil {
		snap.HeaderMediaID = *d.HeaderMediaID
	}
	if d.HeaderMediaKind != nil {
		snap.HeaderMediaKind = *d.HeaderMediaKind
	}
	if d.AdminID != nil {
		snap.AdminID = *d.AdminID
	}
	return snap, nil
}

func toFileDoc(s Snapshot) fileDoc {
	doc := fileDoc{
		Chats:      make(map[string]fileChat, len(s.Chats)),
		Schedules:  make(map[string]fileSchedule, len(s.Schedules)),
		HeaderText: s.HeaderText,
	}
	for id, c := range s.Chats {
		fc := fileChat{Name: c.Name, Kind: c.Kind, Link: c.Link, Members: c.Members}
		if !c.RegisteredAt.IsZero() {
			at := c.RegisteredAt
			fc.RegisteredAt = &at
		}
		doc.Chats[strconv.FormatInt(id, 10)] = fc
	}
	for id, sc := range s.Schedules {
		times := sc.Times
		if times == nil {
			times = []string{}
		}
		doc.Schedules[strconv.FormatInt(id, 10)] = fileSchedule{Times: times, Active: sc.Active}
	}
	if s.HeaderMediaID != "" {
		doc.HeaderMediaID = &s.HeaderMediaID
		doc.HeaderMediaKind = &s.HeaderMediaKind
	}
	if s.AdminID != 0 {
		doc.AdminID = &s.AdminID
	}
	return doc
}

func (s *fileStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(toFileDoc(snap), "", "    ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return errors.New("audit file closed")
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return nil
	}
	err := s.auditFile.Close()
	s.auditFile = nil
	return err
}
