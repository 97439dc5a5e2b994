package physicalrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/metrics"
	"gorm.io/gorm"
)

const reconcileBatchSize = 100

const (
	TriggerScheduler = "scheduler"
	TriggerAdmin     = "admin"
)

// Reconciler recomputes letter counters from the ledger and overwrites drifted values
type Reconciler struct {
	db       *gorm.DB
	requests RequestRepository
	letters  *letter.LetterRepository
	counters letter.CounterStore
}

func NewReconciler(db *gorm.DB, requests RequestRepository, letters *letter.LetterRepository, counters letter.CounterStore) *Reconciler {
	return &Reconciler{
		db:       db,
		requests: requests,
		letters:  letters,
		counters: counters,
	}
}

// ReconcileLetter returns the drift it corrected, or nil when the counters were already exact
func (r *Reconciler) ReconcileLetter(ctx context.Context, letterID uint32) (*LetterDrift, error) {
	var drift *LetterDrift

	err := database.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		parent, err := r.letters.FindByIDForUpdate(ctx, tx, letterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("편지를 찾을 수 없습니다 letterID=%d %w", letterID, letter.ErrLetterNotFound)
			}
			return fmt.Errorf("편지 조회 실패: %w", err)
		}

		counts, err := r.requests.CountByStatus(ctx, tx, letterID)
		if err != nil {
			return fmt.Errorf("신청 상태별 집계 실패: %w", err)
		}
		byStatus := make(map[model.PhysicalRequestStatus]int64, len(counts))
		for _, c := range counts {
			byStatus[c.Status] = c.Count
		}

		actual := RecountFrom(byStatus)
		cached := letter.CountersOf(parent)
		if actual == cached {
			return nil
		}

		if err := r.counters.Overwrite(ctx, tx, letterID, actual); err != nil {
			return fmt.Errorf("편지 집계 보정 실패: %w", err)
		}
		drift = &LetterDrift{LetterID: letterID, Cached: cached, Actual: actual}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if drift != nil {
		logger.FromContext(ctx).Warn("편지 집계 불일치 보정",
			"letter_id", letterID,
			"cached", drift.Cached,
			"actual", drift.Actual,
		)
	}
	return drift, nil
}

// ReconcileAll walks every letter in id order. trigger labels the drift metric.
func (r *Reconciler) ReconcileAll(ctx context.Context, trigger string) (*ReconcileReport, error) {
	log := logger.FromContext(ctx)
	report := &ReconcileReport{Drifted: []LetterDrift{}}

	var afterID uint32
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ids, err := r.letters.ListIDsAfter(ctx, r.db, afterID, reconcileBatchSize)
		if err != nil {
			return report, fmt.Errorf("편지 목록 조회 실패: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			drift, err := r.ReconcileLetter(ctx, id)
			if err != nil {
				if errors.Is(err, letter.ErrLetterNotFound) {
					continue
				}
				return report, err
			}
			report.Checked++
			if drift != nil {
				report.Drifted = append(report.Drifted, *drift)
			}
		}
		afterID = ids[len(ids)-1]
	}

	metrics.CounterDrift(trigger, len(report.Drifted))
	log.Info("편지 집계 보정 완료", "trigger", trigger, "checked", report.Checked, "drifted", len(report.Drifted))
	return report, nil
}
