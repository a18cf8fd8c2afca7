package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"couple-sync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	codeLength      = 6
	codeChars       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeGenAttempts = 10
)

// PairingService establishes and dissolves couples. Pairing works over a
// short single-use code, a QR handoff carrying the same payload, or a
// direct id exchange; all paths enforce the single-active-couple
// invariant.
type PairingService struct {
	couples  CoupleStore
	codes    PairingCodeStore
	users    UserStore
	sessions SessionStore
	notifier Notifier

	codeTTL time.Duration
	now     func() time.Time
}

// NewPairingService creates a new pairing service
func NewPairingService(
	couples CoupleStore,
	codes PairingCodeStore,
	users UserStore,
	sessions SessionStore,
	notifier Notifier,
	codeTTL time.Duration,
) *PairingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &PairingService{
		couples:  couples,
		codes:    codes,
		users:    users,
		sessions: sessions,
		notifier: notifier,
		codeTTL:  codeTTL,
		now:      time.Now,
	}
}

// GenerateCode creates a short-lived single-use pairing code for a user
// who is not yet paired.
func (s *PairingService) GenerateCode(ctx context.Context, ownerID string) (*models.PairingCode, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	hasPair, err := s.couples.UserHasActiveCouple(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pairing state: %w", err)
	}
	if hasPair {
		return nil, models.ErrAlreadyPaired
	}

	for i := 0; i < codeGenAttempts; i++ {
		now := s.now()
		code := &models.PairingCode{
			Code:      randomCode(),
			OwnerID:   ownerID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.codeTTL),
		}

		if _, err := s.codes.Get(ctx, code.Code); err == nil {
			continue
		} else if !errors.Is(err, models.ErrCodeNotFound) {
			return nil, err
		}

		if err := s.codes.Create(ctx, code); err != nil {
			return nil, fmt.Errorf("failed to store pairing code: %w", err)
		}
		return code, nil
	}
	return nil, fmt.Errorf("failed to generate unique code after %d attempts", codeGenAttempts)
}

// randomCode generates a random 6-character code. The alphabet omits
// easily confused characters (0/O, 1/I).
func randomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// RedeemCode atomically consumes a pairing code and creates the couple.
// A code redeems exactly once: concurrent redemptions are serialized by
// the store and every loser gets ErrCodeAlreadyUsed, never a silent
// second success.
func (s *PairingService) RedeemCode(ctx context.Context, code, redeemerID string) (*models.Couple, error) {
	if _, err := s.users.GetByID(ctx, redeemerID); err != nil {
		return nil, err
	}
	hasPair, err := s.couples.UserHasActiveCouple(ctx, redeemerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pairing state: %w", err)
	}
	if hasPair {
		return nil, models.ErrAlreadyPaired
	}

	ownerID, err := s.codes.Consume(ctx, code, redeemerID, s.now())
	if err != nil {
		return nil, err
	}
	if ownerID == redeemerID {
		return nil, models.ErrSelfPair
	}

	return s.createCouple(ctx, ownerID, redeemerID)
}

// PairDirect creates a couple from a direct id exchange, the synchronous
// QR-handshake flow. Same invariants as code redemption, no code object.
func (s *PairingService) PairDirect(ctx context.Context, requesterID, partnerID string) (*models.Couple, error) {
	if requesterID == partnerID {
		return nil, models.ErrSelfPair
	}
	if _, err := s.users.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.createCouple(ctx, requesterID, partnerID)
}

func (s *PairingService) createCouple(ctx context.Context, userA, userB string) (*models.Couple, error) {
	for _, userID := range []string{userA, userB} {
		hasPair, err := s.couples.UserHasActiveCouple(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check pairing state: %w", err)
		}
		if hasPair {
			return nil, models.ErrAlreadyPaired
		}
	}

	// Normalize member order so the pair key is deterministic.
	if userA > userB {
		userA, userB = userB, userA
	}

	couple := &models.Couple{
		ID:        uuid.New().String(),
		UserAID:   userA,
		UserBID:   userB,
		CreatedAt: s.now(),
	}

	// The store's per-member uniqueness closes the check-then-create
	// window: a concurrent pairing of either member surfaces as
	// ErrAlreadyPaired whichever member slot it lands in.
	if err := s.couples.Create(ctx, couple); err != nil {
		return nil, err
	}

	log.Info().
		Str("couple_id", couple.ID).
		Str("user_a_id", couple.UserAID).
		Str("user_b_id", couple.UserBID).
		Msg("Couple created")

	s.notifier.PairCreated(couple)

	return couple, nil
}

// Status returns the active couple for a user, or nil when unpaired.
// The waiting party polls this to observe a redemption naming them;
// push and socket events are hints only.
func (s *PairingService) Status(ctx context.Context, userID string) (*models.Couple, error) {
	couple, err := s.couples.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return couple, nil
}

// Unpair dissolves a couple at a member's request and abandons every
// open session scoped to it, so no session keeps accepting answers
// against a dead relationship.
func (s *PairingService) Unpair(ctx context.Context, coupleID, requesterID string) error {
	couple, err := s.couples.GetByID(ctx, coupleID)
	if err != nil {
		return err
	}
	if !couple.HasMember(requesterID) {
		return models.ErrNotCoupleMember
	}

	if err := s.couples.Dissolve(ctx, coupleID); err != nil {
		return err
	}

	abandoned, err := s.sessions.AbandonOpenByCouple(ctx, coupleID)
	if err != nil {
		// The couple is already dissolved; report but do not roll back.
		log.Error().
			Err(err).
			Str("couple_id", coupleID).
			Msg("Failed to abandon open sessions")
	} else if abandoned > 0 {
		log.Info().
			Str("couple_id", coupleID).
			Int64("abandoned", abandoned).
			Msg("Abandoned open sessions for dissolved couple")
	}

	s.notifier.PairDissolved(couple, requesterID)

	return nil
}
