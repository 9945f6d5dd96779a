package membership

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

// MemoryStore keeps everything in process. Transactions are serialized by
// one mutex and work on a copy of the state that replaces the live state on
// commit. Queued tasks reach the task repository only after commit.
type MemoryStore struct {
	txMu    sync.Mutex
	mu      sync.RWMutex
	state   *memState
	members catalog.MemberDirectory
	tasks   queue.EnqueuerRepository
	log     *slog.Logger
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStoreLogger sets the logger used for tasks that fail to reach the
// task repository after commit.
func WithStoreLogger(l *slog.Logger) MemoryStoreOption {
	return func(s *MemoryStore) {
		if l != nil {
			s.log = l
		}
	}
}

type memState struct {
	subs    map[uuid.UUID]Subscription
	seq     map[uuid.UUID]int
	history []HistoryEntry
	changes []PlanChange
	nextSeq int
}

// NewMemoryStore reads members from members and hands committed tasks to
// tasks (usually a queue.MemoryStorage).
func NewMemoryStore(members catalog.MemberDirectory, tasks queue.EnqueuerRepository, opts ...MemoryStoreOption) *MemoryStore {
	if members == nil {
		panic("membership: MemberDirectory is required")
	}
	if tasks == nil {
		panic("membership: task repository is required")
	}
	s := &MemoryStore{
		state: &memState{
			subs: make(map[uuid.UUID]Subscription),
			seq:  make(map[uuid.UUID]int),
		},
		members: members,
		tasks:   tasks,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	tx := &memTx{memReader: memReader{st: work, members: s.members}}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()

	for _, task := range tx.outbox {
		// The state is already committed, so a lost task is only logged.
		if err := s.tasks.CreateTask(ctx, task); err != nil {
			depErr := newError(KindDependency, "notification not queued", errors.Join(ErrOutbox, err))
			s.log.ErrorContext(ctx, "failed to enqueue notification",
				logger.TaskID(task.ID),
				logger.Error(depErr),
			)
		}
	}
	return nil
}

// reader returns a view of the committed state. The live state is replaced
// on commit, never mutated, so the view stays consistent.
func (s *MemoryStore) reader() memReader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memReader{st: s.state, members: s.members}
}

func (s *MemoryStore) GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return s.reader().GetSubscription(ctx, id)
}

func (s *MemoryStore) ListSubscriptions(ctx context.Context, f ListFilter) ([]Subscription, error) {
	return s.reader().ListSubscriptions(ctx, f)
}

func (s *MemoryStore) MemberSubscriptions(ctx context.Context, memberID int64) ([]Subscription, error) {
	return s.reader().MemberSubscriptions(ctx, memberID)
}

func (s *MemoryStore) CurrentSubscriptions(ctx context.Context) (map[int64]Subscription, error) {
	return s.reader().CurrentSubscriptions(ctx)
}

func (s *MemoryStore) ActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	return s.reader().ActiveEndingBetween(ctx, from, to)
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.reader().CountByStatus(ctx)
}

func (s *MemoryStore) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	return s.reader().History(ctx, id)
}

func (s *MemoryStore) PlanChanges(ctx context.Context, id uuid.UUID) ([]PlanChange, error) {
	return s.reader().PlanChanges(ctx, id)
}

func (st *memState) clone() *memState {
	return &memState{
		subs:    maps.Clone(st.subs),
		seq:     maps.Clone(st.seq),
		history: slices.Clone(st.history),
		changes: slices.Clone(st.changes),
		nextSeq: st.nextSeq,
	}
}

type memReader struct {
	st      *memState
	members catalog.MemberDirectory
}

func (r memReader) GetSubscription(_ context.Context, id uuid.UUID) (Subscription, error) {
	sub, ok := r.st.subs[id]
	if !ok {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (r memReader) ListSubscriptions(ctx context.Context, f ListFilter) ([]Subscription, error) {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []Subscription
	for _, sub := range r.st.subs {
		if f.MemberID != 0 && sub.MemberID != f.MemberID {
			continue
		}
		if f.Status != "" && sub.Status != f.Status {
			continue
		}
		if query != "" {
			m, err := r.members.GetMember(ctx, sub.MemberID)
			if err != nil || !matchesMember(m, query) {
				continue
			}
		}
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b Subscription) int {
		return cmp.Or(b.StartDate.Compare(a.StartDate), r.newestFirst(a, b))
	})

	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchesMember(m catalog.Member, query string) bool {
	return strings.Contains(strings.ToLower(m.FullName), query) ||
		strings.Contains(m.PhoneNumber, query) ||
		strings.Contains(strings.ToLower(m.BiometricID), query)
}

func (r memReader) MemberSubscriptions(_ context.Context, memberID int64) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range r.st.subs {
		if sub.MemberID == memberID {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, r.newestFirst)
	return out, nil
}

func (r memReader) CurrentSubscriptions(_ context.Context) (map[int64]Subscription, error) {
	cur := make(map[int64]Subscription)
	for _, sub := range r.st.subs {
		prev, ok := cur[sub.MemberID]
		switch {
		case !ok:
			cur[sub.MemberID] = sub
		case prev.Status == StatusActive:
		case sub.Status == StatusActive || r.newestFirst(sub, prev) < 0:
			cur[sub.MemberID] = sub
		}
	}
	return cur, nil
}

func (r memReader) ActiveEndingBetween(_ context.Context, from, to time.Time) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range r.st.subs {
		if sub.Status != StatusActive || sub.EndDate.After(to) {
			continue
		}
		if !from.IsZero() && sub.EndDate.Before(from) {
			continue
		}
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b Subscription) int {
		return cmp.Or(a.EndDate.Compare(b.EndDate), cmp.Compare(r.st.seq[a.ID], r.st.seq[b.ID]))
	})
	return out, nil
}

func (r memReader) CountByStatus(_ context.Context) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, sub := range r.st.subs {
		counts[sub.Status]++
	}
	return counts, nil
}

func (r memReader) History(_ context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for i := len(r.st.history) - 1; i >= 0; i-- {
		if r.st.history[i].SubscriptionID == id {
			out = append(out, r.st.history[i])
		}
	}
	return out, nil
}

func (r memReader) PlanChanges(_ context.Context, id uuid.UUID) ([]PlanChange, error) {
	var out []PlanChange
	for i := len(r.st.changes) - 1; i >= 0; i-- {
		if r.st.changes[i].SubscriptionID == id {
			out = append(out, r.st.changes[i])
		}
	}
	return out, nil
}

// newestFirst orders by creation time, then insertion order, descending.
func (r memReader) newestFirst(a, b Subscription) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(r.st.seq[b.ID], r.st.seq[a.ID]))
}

type memTx struct {
	memReader
	outbox []*queue.Task
}

func (tx *memTx) LockMember(ctx context.Context, memberID int64) (catalog.Member, error) {
	return tx.members.GetMember(ctx, memberID)
}

func (tx *memTx) LockSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return tx.GetSubscription(ctx, id)
}

func (tx *memTx) HasActive(_ context.Context, memberID int64, exclude uuid.UUID) (bool, error) {
	for _, sub := range tx.st.subs {
		if sub.MemberID == memberID && sub.Status == StatusActive && sub.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memTx) HasOverlap(_ context.Context, memberID int64, planID, exclude uuid.UUID, start time.Time) (bool, error) {
	for _, sub := range tx.st.subs {
		if sub.MemberID == memberID && sub.PlanID == planID && sub.Status == StatusActive &&
			sub.ID != exclude && !sub.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memTx) InsertSubscription(ctx context.Context, s Subscription) error {
	if err := tx.checkSingleActive(ctx, s); err != nil {
		return err
	}
	tx.st.nextSeq++
	tx.st.seq[s.ID] = tx.st.nextSeq
	tx.st.subs[s.ID] = s
	return nil
}

func (tx *memTx) UpdateSubscription(ctx context.Context, s Subscription) error {
	if _, ok := tx.st.subs[s.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	if err := tx.checkSingleActive(ctx, s); err != nil {
		return err
	}
	tx.st.subs[s.ID] = s
	return nil
}

// checkSingleActive mirrors the partial unique index on active rows.
func (tx *memTx) checkSingleActive(ctx context.Context, s Subscription) error {
	if s.Status != StatusActive {
		return nil
	}
	active, _ := tx.HasActive(ctx, s.MemberID, s.ID)
	if active {
		return ErrActiveSubscriptionExists
	}
	return nil
}

func (tx *memTx) InsertHistory(_ context.Context, h HistoryEntry) error {
	tx.st.history = append(tx.st.history, h)
	return nil
}

func (tx *memTx) InsertPlanChange(_ context.Context, c PlanChange) error {
	tx.st.changes = append(tx.st.changes, c)
	return nil
}

func (tx *memTx) Outbox(ctx context.Context, fn func(repo queue.EnqueuerRepository) error) error {
	buf := &taskBuffer{}
	if err := fn(buf); err != nil {
		return err
	}
	tx.outbox = append(tx.outbox, buf.tasks...)
	return nil
}

type taskBuffer struct {
	tasks []*queue.Task
}

func (b *taskBuffer) CreateTask(_ context.Context, task *queue.Task) error {
	b.tasks = append(b.tasks, task)
	return nil
}
