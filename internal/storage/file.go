package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
)

type FileStorage struct {
	entries      map[string]*internal.Entry // id -> Entry
	dayIndex     map[dayKey]string          // (user, kind, day) -> id
	users        map[string]*internal.User  // id -> User
	usersByToken map[string]*internal.User
	seq          map[string]int64 // id -> insertion sequence, breaks occurredAt ties
	nextSeq      int64
	mu           sync.RWMutex
	entriesFile  string
	usersFile    string
	saveChan     chan struct{}
	shutdownChan chan struct{}
	doneChan     chan struct{}
	saveDelay    time.Duration
	closeOnce    sync.Once
	now          internal.Clock
	logger       internal.Logger
}

type dayKey struct {
	userID string
	kind   internal.Kind
	day    string
}

func NewFileStorage(entriesFile, usersFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		entries:      make(map[string]*internal.Entry),
		dayIndex:     make(map[dayKey]string),
		users:        make(map[string]*internal.User),
		usersByToken: make(map[string]*internal.User),
		seq:          make(map[string]int64),
		entriesFile:  entriesFile,
		usersFile:    usersFile,
		saveChan:     make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		doneChan:     make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		now:          time.Now,
		logger:       logger,
	}

	if err := s.loadUsers(); err != nil {
		logger.Errorf("storage: failed to load users: %v", err)
		return nil, err
	}
	if err := s.loadEntries(); err != nil {
		logger.Errorf("storage: failed to load entries: %v", err)
		return nil, err
	}

	go s.saveWorker()

	return s, nil
}

func (s *FileStorage) loadUsers() error {
	var users []*internal.User
	if err := readJSONFile(s.usersFile, &users); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		if u.Role == "" {
			u.Role = internal.RoleUser
		}
		s.users[u.ID] = u
		if u.Token != "" {
			s.usersByToken[u.Token] = u
		}
	}
	return nil
}

func (s *FileStorage) loadEntries() error {
	var entries []*internal.Entry
	if err := readJSONFile(s.entriesFile, &entries); err != nil {
		return err
	}

	// Replay in creation order so the insertion sequence survives restarts.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ID] = e
		s.dayIndex[dayKey{e.UserID, e.Kind, e.Day}] = e.ID
		s.nextSeq++
		s.seq[e.ID] = s.nextSeq
	}
	return nil
}

// SeedUsersFile writes users to path unless the file already exists.
func SeedUsersFile(path string, users []internal.User) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := atomicWriteFileJSON(path, users); err != nil {
		return false, err
	}
	return true, nil
}

func readJSONFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveEntries() error {
	s.mu.RLock()
	entries := make([]internal.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return atomicWriteFileJSON(s.entriesFile, entries)
}

// saveWorker batches writes so a burst of changes costs one disk write.
func (s *FileStorage) saveWorker() {
	defer close(s.doneChan)
	timer := time.NewTimer(s.saveDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.saveEntries(); err != nil {
				s.logger.Errorf("storage: error saving entries: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) scheduleSave() {
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

// Close stops the save worker and flushes pending entries synchronously.
func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		<-s.doneChan
		err = s.saveEntries()
	})
	return err
}

// --- EntryRepository ---

func (s *FileStorage) UpsertDaily(ctx context.Context, e *internal.Entry, keepNote bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := dayKey{e.UserID, e.Kind, e.Day}
	if id, ok := s.dayIndex[key]; ok {
		existing := s.entries[id]
		note := existing.Note()
		existing.MoodDetails = e.MoodDetails
		existing.SleepDetails = e.SleepDetails
		*existing = existing.Clone()
		if keepNote {
			existing.SetNote(note)
		}
		existing.UpdatedAt = now
		*e = existing.Clone()
		s.scheduleSave()
		return false, nil
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	stored := e.Clone()
	s.entries[stored.ID] = &stored
	s.dayIndex[key] = stored.ID
	s.nextSeq++
	s.seq[stored.ID] = s.nextSeq
	s.scheduleSave()
	return true, nil
}

func (s *FileStorage) GetEntry(ctx context.Context, id string) (*internal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	c := e.Clone()
	return &c, nil
}

func (s *FileStorage) UpdateEntry(ctx context.Context, e *internal.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.entries[e.ID]
	if !ok {
		return internal.ErrNotFound
	}
	existing.MoodDetails = e.MoodDetails
	existing.SleepDetails = e.SleepDetails
	existing.UpdatedAt = s.now()
	*existing = existing.Clone()
	*e = existing.Clone()
	s.scheduleSave()
	return nil
}

func (s *FileStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return internal.ErrNotFound
	}
	delete(s.entries, id)
	delete(s.seq, id)
	key := dayKey{e.UserID, e.Kind, e.Day}
	if s.dayIndex[key] == id {
		delete(s.dayIndex, key)
	}
	s.scheduleSave()
	return nil
}

func (s *FileStorage) ListEntries(ctx context.Context, f EntryFilter, p Page) ([]internal.Entry, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(f)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			if f.Ascending {
				return a.OccurredAt.Before(b.OccurredAt)
			}
			return a.OccurredAt.After(b.OccurredAt)
		}
		return s.seq[a.ID] < s.seq[b.ID]
	})

	total := int64(len(matched))
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}

	out := make([]internal.Entry, 0, end-start)
	for _, e := range matched[start:end] {
		out = append(out, e.Clone())
	}
	return out, total, nil
}

func (s *FileStorage) CountEntries(ctx context.Context, f EntryFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(f))), nil
}

func (s *FileStorage) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	owners := make(map[string]struct{})
	for _, e := range s.match(EntryFilter{Since: since}) {
		owners[e.UserID] = struct{}{}
	}
	return int64(len(owners)), nil
}

// match must be called with s.mu held.
func (s *FileStorage) match(f EntryFilter) []*internal.Entry {
	var out []*internal.Entry
	for _, e := range s.entries {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.MoodLevel != "" && (e.MoodDetails == nil || e.MoodLevel != f.MoodLevel) {
			continue
		}
		if f.SleepDescription != "" && (e.SleepDetails == nil || e.SleepDescription != f.SleepDescription) {
			continue
		}
		if !f.Since.IsZero() && e.OccurredAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !e.OccurredAt.Before(f.Until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// --- UserRepository ---

func (s *FileStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *FileStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByToken[token]
	if !ok {
		return nil, internal.ErrNotFound
	}
	c := *u
	return &c, nil
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)
