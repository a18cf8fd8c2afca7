package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"couple-sync-backend/internal/models"
)

// In-memory stores mirroring the behavioral contracts of the pgx
// repositories: create-if-absent convergence, write-once answer sets,
// exactly-once completion, and ledger dedup.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		user.PushToken = pushToken
	}
	return nil
}

func (f *fakeUserStore) UpdateAvatarKey(_ context.Context, userID, avatarKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		user.AvatarKey = &avatarKey
	}
	return nil
}

func (f *fakeUserStore) Archive(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok && user.ArchivedAt == nil {
		now := time.Now()
		user.ArchivedAt = &now
	}
	return nil
}

type fakeCoupleStore struct {
	mu      sync.Mutex
	couples map[string]*models.Couple
}

func newFakeCoupleStore() *fakeCoupleStore {
	return &fakeCoupleStore{couples: map[string]*models.Couple{}}
}

func (f *fakeCoupleStore) Create(_ context.Context, couple *models.Couple) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.couples {
		if existing.DissolvedAt != nil {
			continue
		}
		if existing.HasMember(couple.UserAID) || existing.HasMember(couple.UserBID) {
			return models.ErrAlreadyPaired
		}
	}
	cp := *couple
	f.couples[couple.ID] = &cp
	return nil
}

func (f *fakeCoupleStore) GetByID(_ context.Context, id string) (*models.Couple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	couple, ok := f.couples[id]
	if !ok {
		return nil, fmt.Errorf("couple: %w", models.ErrNotFound)
	}
	cp := *couple
	return &cp, nil
}

func (f *fakeCoupleStore) GetActiveByUserID(_ context.Context, userID string) (*models.Couple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, couple := range f.couples {
		if couple.DissolvedAt == nil && couple.HasMember(userID) {
			cp := *couple
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("couple: %w", models.ErrNotFound)
}

func (f *fakeCoupleStore) UserHasActiveCouple(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, couple := range f.couples {
		if couple.DissolvedAt == nil && couple.HasMember(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCoupleStore) Dissolve(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if couple, ok := f.couples[id]; ok && couple.DissolvedAt == nil {
		now := time.Now()
		couple.DissolvedAt = &now
	}
	return nil
}

type fakePairingCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.PairingCode
}

func newFakePairingCodeStore() *fakePairingCodeStore {
	return &fakePairingCodeStore{codes: map[string]*models.PairingCode{}}
}

func (f *fakePairingCodeStore) Create(_ context.Context, code *models.PairingCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *code
	f.codes[code.Code] = &cp
	return nil
}

func (f *fakePairingCodeStore) Get(_ context.Context, code string) (*models.PairingCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc, ok := f.codes[code]
	if !ok {
		return nil, models.ErrCodeNotFound
	}
	cp := *pc
	return &cp, nil
}

func (f *fakePairingCodeStore) Consume(_ context.Context, code, redeemerID string, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc, ok := f.codes[code]
	if !ok {
		return "", models.ErrCodeNotFound
	}
	if pc.ConsumedAt != nil {
		return "", models.ErrCodeAlreadyUsed
	}
	if !pc.ExpiresAt.After(now) {
		return "", models.ErrCodeExpired
	}
	pc.ConsumedAt = &now
	pc.ConsumedBy = &redeemerID
	return pc.OwnerID, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	byKey    map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: map[string]*models.Session{},
		byKey:    map[string]string{},
	}
}

func sessionKey(coupleID string, activity models.ActivityType, dayKey string) string {
	return coupleID + "|" + string(activity) + "|" + dayKey
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	cp.Answers = make(map[string][]string, len(s.Answers))
	for user, answers := range s.Answers {
		cp.Answers[user] = append([]string(nil), answers...)
	}
	if s.Outcome != nil {
		o := *s.Outcome
		cp.Outcome = &o
	}
	return &cp
}

func (f *fakeSessionStore) GetOrCreate(_ context.Context, session *models.Session) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sessionKey(session.CoupleID, session.ActivityType, session.DayKey)
	if id, ok := f.byKey[key]; ok {
		return copySession(f.sessions[id]), nil
	}
	cp := copySession(session)
	f.sessions[session.ID] = cp
	f.byKey[key] = session.ID
	return copySession(cp), nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	return copySession(session), nil
}

func (f *fakeSessionStore) AppendAnswers(_ context.Context, sessionID, userID string, answers []string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if session.Status.Terminal() {
		return nil, models.ErrSessionClosed
	}
	if _, ok := session.Answers[userID]; ok {
		return nil, models.ErrAlreadySubmitted
	}

	session.Answers[userID] = append([]string(nil), answers...)
	if len(session.Answers) == 1 {
		session.Status = models.SessionAwaitingSecond
	} else {
		session.Status = models.SessionCompleted
		if session.CompletedAt == nil {
			now := time.Now()
			session.CompletedAt = &now
		}
	}
	return copySession(session), nil
}

func (f *fakeSessionStore) SetOutcome(_ context.Context, sessionID string, outcome *models.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if session.Outcome == nil {
		o := *outcome
		session.Outcome = &o
	}
	return nil
}

func (f *fakeSessionStore) AbandonOpenByCouple(_ context.Context, coupleID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, session := range f.sessions {
		if session.CoupleID == coupleID && !session.Status.Terminal() {
			session.Status = models.SessionAbandoned
			n++
		}
	}
	return n, nil
}

type fakeRewardStore struct {
	mu  sync.Mutex
	txs []*models.RewardTransaction
}

func newFakeRewardStore() *fakeRewardStore {
	return &fakeRewardStore{}
}

func (f *fakeRewardStore) Insert(_ context.Context, tx *models.RewardTransaction) (*models.RewardTransaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx.RelatedID != nil {
		for _, existing := range f.txs {
			if existing.UserID == tx.UserID && existing.Reason == tx.Reason &&
				existing.RelatedID != nil && *existing.RelatedID == *tx.RelatedID {
				cp := *existing
				return &cp, false, nil
			}
		}
	}
	cp := *tx
	f.txs = append(f.txs, &cp)
	out := cp
	return &out, true, nil
}

func (f *fakeRewardStore) Debit(_ context.Context, tx *models.RewardTransaction, floor int) (*models.RewardTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, existing := range f.txs {
		if existing.UserID == tx.UserID {
			sum += existing.Amount
		}
	}
	if sum+tx.Amount < floor {
		return nil, models.ErrInsufficientPoints
	}
	cp := *tx
	f.txs = append(f.txs, &cp)
	out := cp
	return &out, nil
}

func (f *fakeRewardStore) SumByUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, tx := range f.txs {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (f *fakeRewardStore) RecentByUser(_ context.Context, userID string, limit int) ([]*models.RewardTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.RewardTransaction
	for i := len(f.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.txs[i].UserID == userID {
			cp := *f.txs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeQuestStore struct {
	mu     sync.Mutex
	quests map[string]*models.DailyQuest
	byKey  map[string]string
}

func newFakeQuestStore() *fakeQuestStore {
	return &fakeQuestStore{
		quests: map[string]*models.DailyQuest{},
		byKey:  map[string]string{},
	}
}

func questKey(coupleID, dayKey string, activity models.ActivityType) string {
	return coupleID + "|" + dayKey + "|" + string(activity)
}

func copyQuest(q *models.DailyQuest) *models.DailyQuest {
	cp := *q
	cp.Done = make(map[string]bool, len(q.Done))
	for user, done := range q.Done {
		cp.Done[user] = done
	}
	return &cp
}

func (f *fakeQuestStore) GetOrCreate(_ context.Context, quest *models.DailyQuest) (*models.DailyQuest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := questKey(quest.CoupleID, quest.DayKey, quest.ActivityType)
	if id, ok := f.byKey[key]; ok {
		return copyQuest(f.quests[id]), nil
	}
	cp := copyQuest(quest)
	f.quests[quest.ID] = cp
	f.byKey[key] = quest.ID
	return copyQuest(cp), nil
}

func (f *fakeQuestStore) GetByID(_ context.Context, id string) (*models.DailyQuest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quest, ok := f.quests[id]
	if !ok {
		return nil, fmt.Errorf("quest: %w", models.ErrNotFound)
	}
	return copyQuest(quest), nil
}

func (f *fakeQuestStore) MarkDone(_ context.Context, questID, userID string) (*models.DailyQuest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quest, ok := f.quests[questID]
	if !ok {
		return nil, fmt.Errorf("quest: %w", models.ErrNotFound)
	}
	if !quest.Done[userID] {
		quest.Done[userID] = true
		switch len(quest.Done) {
		case 1:
			quest.Status = models.QuestPartial
		default:
			quest.Status = models.QuestCompleted
			if quest.CompletedAt == nil {
				now := time.Now()
				quest.CompletedAt = &now
			}
		}
	}
	return copyQuest(quest), nil
}

func (f *fakeQuestStore) CompletedDayKeys(_ context.Context, coupleID string, activity models.ActivityType, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var days []string
	for _, quest := range f.quests {
		if quest.CoupleID == coupleID && quest.ActivityType == activity && quest.Status == models.QuestCompleted {
			days = append(days, quest.DayKey)
		}
	}
	return days, nil
}

// recordingNotifier captures hints for assertions.
type recordingNotifier struct {
	mu               sync.Mutex
	pairCreated      []string
	pairDissolved    []string
	sessionCompleted []string
	questCompleted   []string
}

func (r *recordingNotifier) PairCreated(couple *models.Couple) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairCreated = append(r.pairCreated, couple.ID)
}

func (r *recordingNotifier) PairDissolved(couple *models.Couple, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairDissolved = append(r.pairDissolved, couple.ID)
}

func (r *recordingNotifier) SessionCompleted(session *models.Session, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionCompleted = append(r.sessionCompleted, session.ID+":"+userID)
}

func (r *recordingNotifier) QuestCompleted(quest *models.DailyQuest, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questCompleted = append(r.questCompleted, quest.ID+":"+userID)
}
