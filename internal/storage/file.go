package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Loquest/Mentl2/internal"
	"github.com/samber/lo"
)

const defaultSaveDelay = 500 * time.Millisecond

// persister writes one collection to disk, debouncing bursts of changes.
type persister struct {
	name     string
	path     string
	delay    time.Duration
	signal   chan struct{}
	snapshot func() interface{}
}

func (p *persister) touch() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *persister) save() error {
	return atomicWriteFileJSON(p.path, p.snapshot())
}

func (p *persister) worker(shutdown <-chan struct{}, done *sync.WaitGroup, logger internal.Logger) {
	defer done.Done()
	timer := time.NewTimer(p.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-p.signal:
			timer.Reset(p.delay)
		case <-timer.C:
			if err := p.save(); err != nil {
				logger.Errorf("storage: error saving %s: %v", p.name, err)
			}
		case <-shutdown:
			return
		}
	}
}

// FileStorage keeps everything in memory and mirrors each collection to a JSON file.
type FileStorage struct {
	mu            sync.RWMutex
	users         map[string]*internal.User
	moodLogs      map[string]*internal.MoodLog
	invitations   map[string]*internal.CaregiverInvitation
	relationships map[string]*internal.CaregiverRelationship
	notifications map[string]*internal.Notification
	chats         map[string]*internal.ChatHistory
	content       map[string]*internal.Content

	usersFile, moodLogsFile, caregiversFile, notificationsFile, chatsFile, contentFile *persister

	shutdownChan chan struct{}
	workers      sync.WaitGroup
	closeOnce    sync.Once
	logger       internal.Logger
}

// userRecord persists the password hash, which the API model never serializes.
type userRecord struct {
	internal.User
	PasswordHash string `json:"password_hash"`
}

type caregiverSnapshot struct {
	Invitations   []internal.CaregiverInvitation   `json:"invitations"`
	Relationships []internal.CaregiverRelationship `json:"relationships"`
}

func NewFileStorage(dataDir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	s := &FileStorage{
		users:         make(map[string]*internal.User),
		moodLogs:      make(map[string]*internal.MoodLog),
		invitations:   make(map[string]*internal.CaregiverInvitation),
		relationships: make(map[string]*internal.CaregiverRelationship),
		notifications: make(map[string]*internal.Notification),
		chats:         make(map[string]*internal.ChatHistory),
		content:       make(map[string]*internal.Content),
		shutdownChan:  make(chan struct{}),
		logger:        logger,
	}
	s.usersFile = s.newPersister(dataDir, "users", func() interface{} {
		users := sortedValues(s.users, func(u *internal.User) string { return u.ID })
		out := make([]userRecord, len(users))
		for i, u := range users {
			out[i] = userRecord{User: u, PasswordHash: u.PasswordHash}
		}
		return out
	})
	s.moodLogsFile = s.newPersister(dataDir, "mood_logs", func() interface{} {
		return sortedValues(s.moodLogs, func(l *internal.MoodLog) string { return l.ID })
	})
	s.caregiversFile = s.newPersister(dataDir, "caregivers", func() interface{} {
		return caregiverSnapshot{
			Invitations:   sortedValues(s.invitations, func(i *internal.CaregiverInvitation) string { return i.ID }),
			Relationships: sortedValues(s.relationships, func(r *internal.CaregiverRelationship) string { return r.ID }),
		}
	})
	s.notificationsFile = s.newPersister(dataDir, "notifications", func() interface{} {
		return sortedValues(s.notifications, func(n *internal.Notification) string { return n.ID })
	})
	s.chatsFile = s.newPersister(dataDir, "chat_history", func() interface{} {
		return sortedValues(s.chats, func(h *internal.ChatHistory) string { return h.UserID })
	})
	s.contentFile = s.newPersister(dataDir, "content", func() interface{} {
		return sortedValues(s.content, func(c *internal.Content) string { return c.ID })
	})

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load data from %s: %v", dataDir, err)
		return nil, err
	}

	for _, p := range s.persisters() {
		s.workers.Add(1)
		go p.worker(s.shutdownChan, &s.workers, logger)
	}
	return s, nil
}

func (s *FileStorage) newPersister(dir, name string, snapshot func() interface{}) *persister {
	return &persister{
		name:     name,
		path:     filepath.Join(dir, name+".json"),
		delay:    defaultSaveDelay,
		signal:   make(chan struct{}, 1),
		snapshot: func() interface{} {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return snapshot()
		},
	}
}

func (s *FileStorage) persisters() []*persister {
	return []*persister{s.usersFile, s.moodLogsFile, s.caregiversFile, s.notificationsFile, s.chatsFile, s.contentFile}
}

// sortedValues copies the map values so encoding can run outside the lock.
func sortedValues[T any](m map[string]*T, key func(*T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return key(&out[i]) < key(&out[j]) })
	return out
}

// readJSONFile decodes path into v. A missing or empty file leaves v untouched.
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

func (s *FileStorage) load() error {
	var users []userRecord
	var logs []*internal.MoodLog
	var caregivers caregiverSnapshot
	var notifications []*internal.Notification
	var chats []*internal.ChatHistory
	var content []*internal.Content

	for path, v := range map[string]interface{}{
		s.usersFile.path:         &users,
		s.moodLogsFile.path:      &logs,
		s.caregiversFile.path:    &caregivers,
		s.notificationsFile.path: &notifications,
		s.chatsFile.path:         &chats,
		s.contentFile.path:       &content,
	} {
		if err := readJSONFile(path, v); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range users {
		u := r.User
		u.PasswordHash = r.PasswordHash
		s.users[u.ID] = &u
	}
	for _, l := range logs {
		s.moodLogs[l.ID] = l
	}
	for i := range caregivers.Invitations {
		s.invitations[caregivers.Invitations[i].ID] = &caregivers.Invitations[i]
	}
	for i := range caregivers.Relationships {
		s.relationships[caregivers.Relationships[i].ID] = &caregivers.Relationships[i]
	}
	for _, n := range notifications {
		s.notifications[n.ID] = n
	}
	for _, h := range chats {
		s.chats[h.UserID] = h
	}
	for _, c := range content {
		s.content[c.ID] = c
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

// Close stops the save workers and flushes every collection synchronously.
func (s *FileStorage) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		s.workers.Wait()
		for _, p := range s.persisters() {
			if saveErr := p.save(); saveErr != nil && err == nil {
				err = saveErr
			}
		}
	})
	return err
}

// --- UserRepository ---

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return internal.ErrConflict
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	s.usersFile.touch()
	return nil
}

func (s *FileStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *FileStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, internal.ErrNotFound
}

func (s *FileStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return internal.ErrNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	s.usersFile.touch()
	return nil
}

// --- MoodLogRepository ---

// dateTaken reports whether userID has a log on date other than exceptID. Caller holds mu.
func (s *FileStorage) dateTaken(userID, date, exceptID string) bool {
	for _, l := range s.moodLogs {
		if l.UserID == userID && l.Date == date && l.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *FileStorage) CreateMoodLog(ctx context.Context, log *internal.MoodLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dateTaken(log.UserID, log.Date, "") {
		return internal.ErrDuplicateDate
	}
	cp := *log
	s.moodLogs[log.ID] = &cp
	s.moodLogsFile.touch()
	return nil
}

func (s *FileStorage) GetMoodLog(ctx context.Context, userID, id string) (*internal.MoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.moodLogs[id]
	if !ok || l.UserID != userID {
		return nil, internal.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *FileStorage) UpdateMoodLog(ctx context.Context, log *internal.MoodLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.moodLogs[log.ID]
	if !ok || existing.UserID != log.UserID {
		return internal.ErrNotFound
	}
	if s.dateTaken(log.UserID, log.Date, log.ID) {
		return internal.ErrDuplicateDate
	}
	cp := *log
	s.moodLogs[log.ID] = &cp
	s.moodLogsFile.touch()
	return nil
}

func (s *FileStorage) DeleteMoodLog(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.moodLogs[id]
	if !ok || l.UserID != userID {
		return internal.ErrNotFound
	}
	delete(s.moodLogs, id)
	s.moodLogsFile.touch()
	return nil
}

func (s *FileStorage) ListMoodLogs(ctx context.Context, userID string, filter MoodLogFilter) ([]internal.MoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := []internal.MoodLog{}
	for _, l := range s.moodLogs {
		if l.UserID != userID {
			continue
		}
		if filter.StartDate != "" && l.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && l.Date > filter.EndDate {
			continue
		}
		logs = append(logs, *l)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
	if filter.Limit > 0 && len(logs) > filter.Limit {
		logs = logs[:filter.Limit]
	}
	return logs, nil
}

// --- CaregiverRepository ---

func (s *FileStorage) CreateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invitations[inv.ID] = &cp
	s.caregiversFile.touch()
	return nil
}

func (s *FileStorage) GetInvitation(ctx context.Context, id string) (*internal.CaregiverInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *FileStorage) UpdateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[inv.ID]; !ok {
		return internal.ErrNotFound
	}
	cp := *inv
	s.invitations[inv.ID] = &cp
	s.caregiversFile.touch()
	return nil
}

func (s *FileStorage) collectInvitations(match func(*internal.CaregiverInvitation) bool) []internal.CaregiverInvitation {
	out := []internal.CaregiverInvitation{}
	for _, inv := range s.invitations {
		if match(inv) {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *FileStorage) ListInvitationsByPatient(ctx context.Context, patientID string) ([]internal.CaregiverInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectInvitations(func(inv *internal.CaregiverInvitation) bool { return inv.PatientID == patientID }), nil
}

func (s *FileStorage) ListInvitationsByEmail(ctx context.Context, email, status string) ([]internal.CaregiverInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectInvitations(func(inv *internal.CaregiverInvitation) bool {
		return strings.EqualFold(inv.CaregiverEmail, email) && (status == "" || inv.Status == status)
	}), nil
}

func (s *FileStorage) CreateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.relationships {
		if r.PatientID == rel.PatientID && r.CaregiverID == rel.CaregiverID {
			return internal.ErrConflict
		}
	}
	cp := *rel
	s.relationships[rel.ID] = &cp
	s.caregiversFile.touch()
	return nil
}

func (s *FileStorage) GetRelationship(ctx context.Context, id string) (*internal.CaregiverRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relationships[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *FileStorage) FindRelationship(ctx context.Context, patientID, caregiverID string) (*internal.CaregiverRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.relationships {
		if r.PatientID == patientID && r.CaregiverID == caregiverID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, internal.ErrNotFound
}

func (s *FileStorage) UpdateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relationships[rel.ID]; !ok {
		return internal.ErrNotFound
	}
	cp := *rel
	s.relationships[rel.ID] = &cp
	s.caregiversFile.touch()
	return nil
}

func (s *FileStorage) DeleteRelationship(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relationships[id]; !ok {
		return internal.ErrNotFound
	}
	delete(s.relationships, id)
	s.caregiversFile.touch()
	return nil
}

func (s *FileStorage) collectRelationships(match func(*internal.CaregiverRelationship) bool) []internal.CaregiverRelationship {
	out := []internal.CaregiverRelationship{}
	for _, r := range s.relationships {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *FileStorage) ListCaregiversForPatient(ctx context.Context, patientID string) ([]internal.CaregiverRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectRelationships(func(r *internal.CaregiverRelationship) bool { return r.PatientID == patientID }), nil
}

func (s *FileStorage) ListPatientsForCaregiver(ctx context.Context, caregiverID string) ([]internal.CaregiverRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectRelationships(func(r *internal.CaregiverRelationship) bool { return r.CaregiverID == caregiverID }), nil
}

// --- NotificationRepository ---

func (s *FileStorage) CreateNotification(ctx context.Context, n *internal.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	s.notificationsFile.touch()
	return nil
}

func (s *FileStorage) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]internal.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.Notification{}
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FileStorage) MarkNotificationRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return internal.ErrNotFound
	}
	n.Read = true
	s.notificationsFile.touch()
	return nil
}

func (s *FileStorage) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	if count > 0 {
		s.notificationsFile.touch()
	}
	return count, nil
}

// --- ChatRepository ---

func (s *FileStorage) GetChatHistory(ctx context.Context, userID string) (*internal.ChatHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.chats[userID]
	if !ok {
		return nil, internal.ErrNotFound
	}
	cp := *h
	cp.Messages = append([]internal.ChatMessage(nil), h.Messages...)
	return &cp, nil
}

func (s *FileStorage) AppendChatMessages(ctx context.Context, userID string, msgs ...internal.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	h, ok := s.chats[userID]
	if !ok {
		h = &internal.ChatHistory{UserID: userID, CreatedAt: now}
		s.chats[userID] = h
	}
	h.Messages = trimHistory(append(h.Messages, msgs...))
	h.UpdatedAt = now
	s.chatsFile.touch()
	return nil
}

func (s *FileStorage) ClearChatHistory(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, userID)
	s.chatsFile.touch()
	return nil
}

// --- ContentRepository ---

func (s *FileStorage) UpsertContent(ctx context.Context, c *internal.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	s.content[c.ID] = &cp
	s.contentFile.touch()
	return nil
}

func (s *FileStorage) GetContent(ctx context.Context, id string) (*internal.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.content[id]
	if !ok {
		return nil, internal.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *FileStorage) ListContent(ctx context.Context, filter ContentFilter) ([]internal.Content, error) {
	match := contentMatcher(filter.Search)

	s.mu.RLock()
	out := []internal.Content{}
	for _, c := range s.content {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.ContentType != "" && c.ContentType != filter.ContentType {
			continue
		}
		if !match(c) {
			continue
		}
		out = append(out, *c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// contentMatcher treats a search that does not compile as a literal.
func contentMatcher(search string) func(*internal.Content) bool {
	if search == "" {
		return func(*internal.Content) bool { return true }
	}
	re, err := regexp.Compile("(?i)" + search)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(search))
	}
	tag := strings.ToLower(search)
	return func(c *internal.Content) bool {
		return re.MatchString(c.Title) || re.MatchString(c.Description) || lo.Contains(c.Tags, tag)
	}
}

// --- Compile-time assertions ---
var _ UserRepository = (*FileStorage)(nil)
var _ MoodLogRepository = (*FileStorage)(nil)
var _ CaregiverRepository = (*FileStorage)(nil)
var _ NotificationRepository = (*FileStorage)(nil)
var _ ChatRepository = (*FileStorage)(nil)
var _ ContentRepository = (*FileStorage)(nil)
