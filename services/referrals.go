package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"tap-lab-backend/models"
	"tap-lab-backend/store"
)

const (
	MaxReferralsPerUser  = 10
	ReferralBonusTickets = 10

	// AppName is the mini app's short name under the bot, as registered
	// with BotFather. Deep links take the form t.me/<bot>/<app>.
	AppName = "lab"
)

// ReferralOutcome is a discriminated result, not an error: every rejection
// is a normal answer the client renders.
type ReferralOutcome string

const (
	ReferralSuccess          ReferralOutcome = "success"
	ReferralAlreadyReferred  ReferralOutcome = "already_referred"
	ReferralSelf             ReferralOutcome = "self_referral"
	ReferralReferrerNotFound ReferralOutcome = "referrer_not_found"
	ReferralLimitReached     ReferralOutcome = "limit_reached"
)

func (o ReferralOutcome) Message() string {
	switch o {
	case ReferralSuccess:
		return "Referral registered successfully"
	case ReferralAlreadyReferred:
		return "User already has a referrer"
	case ReferralSelf:
		return "Cannot refer yourself"
	case ReferralReferrerNotFound:
		return "Invalid referrer"
	case ReferralLimitReached:
		return "Referrer has reached maximum referral limit"
	}
	return string(o)
}

type ReferralService struct {
	Store   store.Store
	Points  *PointsService
	BotName string
	AppName string
	locks   keyedLocks
}

func NewReferralService(st store.Store, points *PointsService, botName string) *ReferralService {
	return &ReferralService{Store: st, Points: points, BotName: botName, AppName: AppName}
}

// Register links referred to the account behind referrerTelegramID and pays
// the referrer bonus. The cap check and the edge insert run under the
// referrer's lock so the limit cannot be raced past; the referred side is
// guarded by the unique index on referred_id.
func (s *ReferralService) Register(ctx context.Context, referred *models.User, referrerTelegramID int64) (ReferralOutcome, error) {
	if _, err := s.Store.GetReferralByReferred(ctx, referred.ID); err == nil {
		return ReferralAlreadyReferred, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	if referrerTelegramID == referred.TelegramID {
		return ReferralSelf, nil
	}

	referrer, err := s.Store.GetUserByTelegramID(ctx, referrerTelegramID)
	if errors.Is(err, store.ErrNotFound) {
		return ReferralReferrerNotFound, nil
	}
	if err != nil {
		return "", err
	}

	unlock := s.locks.lock(referrer.ID)
	defer unlock()

	count, err := s.Store.CountReferrals(ctx, referrer.ID)
	if err != nil {
		return "", err
	}
	if count >= MaxReferralsPerUser {
		return ReferralLimitReached, nil
	}

	if _, err := s.Points.GrantTickets(ctx, referrer.ID, ReferralBonusTickets); err != nil {
		return "", err
	}

	ref := &models.Referral{ReferrerID: referrer.ID, ReferredID: referred.ID}
	if err := s.Store.CreateReferral(ctx, ref); err != nil {
		// The bonus is already paid and there is no cross-table rollback;
		// log both ids so the grant can be reconciled by hand.
		log.Printf("❌ Referral edge insert failed after bonus grant: referrer=%s referred=%s err=%v",
			referrer.ID, referred.ID, err)
		if errors.Is(err, store.ErrDuplicate) {
			return ReferralAlreadyReferred, nil
		}
		return "", err
	}

	log.Printf("🤝 Referral registered: referrer=%s referred=%s (+%d tickets)",
		referrer.ID, referred.ID, ReferralBonusTickets)
	return ReferralSuccess, nil
}

// RegisterFromStartParam handles the ref_<telegram_id> deep-link payload a
// login may carry. Malformed payloads are ignored; registration failures
// never fail the login itself.
func (s *ReferralService) RegisterFromStartParam(ctx context.Context, referred *models.User, startParam string) {
	raw, ok := strings.CutPrefix(startParam, "ref_")
	if !ok {
		return
	}
	referrerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  Ignoring malformed referral payload %q for user %s", startParam, referred.ID)
		return
	}

	outcome, err := s.Register(ctx, referred, referrerID)
	if err != nil {
		log.Printf("❌ Referral from start_param failed for user %s: %v", referred.ID, err)
		return
	}
	log.Printf("ℹ️  Referral outcome for user %s: %s", referred.ID, outcome)
}

// ReferredUser is the public slice of a referred account.
type ReferredUser struct {
	TelegramID int64  `json:"user_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// List returns the public profiles of everyone the user referred.
func (s *ReferralService) List(ctx context.Context, referrerID string) ([]ReferredUser, error) {
	users, err := s.Store.ListReferredUsers(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	referred := make([]ReferredUser, len(users))
	for i, u := range users {
		referred[i] = ReferredUser{
			TelegramID: u.TelegramID,
			Username:   u.Username,
			FirstName:  u.FirstName,
			PhotoURL:   u.PhotoURL,
		}
	}
	return referred, nil
}

// InviteLink builds the startapp deep link that carries the referrer id
// into the mini app.
func (s *ReferralService) InviteLink(telegramID int64) string {
	return fmt.Sprintf("https://t.me/%s/%s?startapp=ref_%d", s.BotName, s.AppName, telegramID)
}
