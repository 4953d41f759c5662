package services

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/metrics"
	"tradeup/internal/repos"
)

// CreditService is the only writer of user credit scores. Every
// mutation runs under the per-user lock inside one transaction, and
// the ledger's unique key makes each logical event apply exactly once.
type CreditService struct {
	DB     *sqlx.DB
	Users  *repos.UserRepo
	Events *repos.CreditRepo

	locks *keyedMutex
}

func NewCreditService(db *sqlx.DB, users *repos.UserRepo, events *repos.CreditRepo) *CreditService {
	return &CreditService{DB: db, Users: users, Events: events, locks: newKeyedMutex()}
}

// CreditCommand is a fully parsed request to score one event.
// EventType and Party are already canonical; handlers parse aliases at
// the boundary.
type CreditCommand struct {
	UserID    string
	EventType domain.CreditEventType
	RefType   string
	RefID     string
	Reason    string
	// Party is required for order_refunded (buyer -3, seller -1).
	Party domain.Party
	// ManualDelta is required for manual_adjust.
	ManualDelta *int
}

type CreditResult struct {
	Created     bool   `json:"created"`
	EventID     int64  `json:"event_id"`
	Delta       int    `json:"delta"`
	ScoreBefore int    `json:"score_before"`
	ScoreAfter  int    `json:"score_after"`
	Level       string `json:"level"`
}

// delta is the fixed business policy per event type.
func delta(cmd CreditCommand) (int, error) {
	switch cmd.EventType {
	case domain.EventOrderCompleted:
		return 3, nil
	case domain.EventPaymentCancelled:
		return -3, nil
	case domain.EventOrderRefunded:
		switch cmd.Party {
		case domain.PartyBuyer:
			return -3, nil
		case domain.PartySeller:
			return -1, nil
		default:
			return 0, apperr.InvalidArgumentf("order_refunded requires party buyer or seller")
		}
	case domain.EventManualAdjust:
		if cmd.ManualDelta == nil {
			return 0, apperr.InvalidArgumentf("manual_adjust requires a delta")
		}
		return *cmd.ManualDelta, nil
	default:
		return 0, apperr.InvalidArgumentf("unsupported event type: %q", cmd.EventType)
	}
}

// Apply scores one event against a user, exactly once per
// (user, event_type, ref_type, ref_id). Repeat calls return the
// stored event with Created=false and leave the score untouched.
func (s *CreditService) Apply(cmd CreditCommand) (CreditResult, error) {
	d, err := delta(cmd)
	if err != nil {
		return CreditResult{}, err
	}
	cmd.RefType = strings.TrimSpace(cmd.RefType)
	cmd.RefID = strings.TrimSpace(cmd.RefID)

	// Row lock: held across read, existence check and both writes so
	// concurrent appliers cannot race on the ceiling computation.
	unlock := s.locks.Lock("user:" + cmd.UserID)
	defer unlock()

	tx, err := s.DB.Beginx()
	if err != nil {
		return CreditResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	u, err := s.Users.ByIDTx(tx, cmd.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CreditResult{}, apperr.NotFound("user")
		}
		return CreditResult{}, err
	}

	scoreBefore := u.CreditScore
	scoreAfter := scoreBefore + d
	if scoreAfter > domain.MaxCreditScore {
		scoreAfter = domain.MaxCreditScore
	}
	if scoreAfter < 0 {
		scoreAfter = 0
	}

	created, row, err := s.Events.InsertIfAbsentTx(tx, &domain.CreditEvent{
		UserID:     cmd.UserID,
		EventType:  cmd.EventType,
		RefType:    cmd.RefType,
		RefID:      cmd.RefID,
		Delta:      d,
		ScoreAfter: scoreAfter,
		Reason:     strings.TrimSpace(cmd.Reason),
	})
	if err != nil {
		return CreditResult{}, err
	}

	if !created {
		// Already applied: report the stored event, mutate nothing.
		metrics.CreditEventsDeduped.Inc()
		return CreditResult{
			Created:     false,
			EventID:     row.ID,
			Delta:       row.Delta,
			ScoreBefore: scoreBefore,
			ScoreAfter:  row.ScoreAfter,
			Level:       domain.CreditLevel(row.ScoreAfter),
		}, nil
	}

	if err := s.Users.SetCreditScoreTx(tx, cmd.UserID, scoreAfter); err != nil {
		return CreditResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return CreditResult{}, err
	}

	metrics.CreditEventsApplied.Inc()
	return CreditResult{
		Created:     true,
		EventID:     row.ID,
		Delta:       d,
		ScoreBefore: scoreBefore,
		ScoreAfter:  scoreAfter,
		Level:       domain.CreditLevel(scoreAfter),
	}, nil
}

// Summary is the credit view for a user: score, level, trade gate and
// recent ledger entries.
type CreditSummary struct {
	Score    int                  `json:"score"`
	Level    string               `json:"level"`
	CanTrade bool                 `json:"can_trade"`
	Events   []domain.CreditEvent `json:"events"`
}

func (s *CreditService) Summary(userID string, limit int) (CreditSummary, error) {
	u, err := s.Users.ByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CreditSummary{}, apperr.NotFound("user")
		}
		return CreditSummary{}, err
	}
	events, err := s.Events.ListByUser(userID, limit)
	if err != nil {
		return CreditSummary{}, err
	}
	return CreditSummary{
		Score:    u.CreditScore,
		Level:    domain.CreditLevel(u.CreditScore),
		CanTrade: domain.CanTrade(u.CreditScore),
		Events:   events,
	}, nil
}
