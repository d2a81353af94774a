// Package ledger owns loop records and keeps the cached Caddy.LoopCount in
// step with them.
package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/caddieworks/myloopcount/internal/models"
	"github.com/caddieworks/myloopcount/internal/validation"
)

var (
	ErrNotFound  = errors.New("ledger: loop not found")
	ErrForbidden = errors.New("ledger: not the loop owner")
)

// ValidationError carries per-field violations back to the form layer.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "ledger: validation failed" }

type LoopInput struct {
	Title    string
	Date     time.Time
	NumLoops int
	Money    int
	Notes    string
}

func (in LoopInput) validate() error {
	v := validation.Violations{}
	validation.Required("title", in.Title, v)
	validation.NotFuture("date", in.Date, v)
	validation.NonNegativeInt("num_loops", in.NumLoops, v)
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// CreateLoop inserts a loop and bumps the owner's loop count in one
// transaction. The counter update is a relative UPDATE executed by the
// database, so concurrent creates and deletes for the same caddy cannot
// lose increments.
func (s *Service) CreateLoop(ownerUserID uint, in LoopInput) (*models.Loop, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	loop := models.Loop{
		Title:    in.Title,
		Date:     in.Date,
		NumLoops: in.NumLoops,
		Money:    in.Money,
		Notes:    in.Notes,
		CaddyID:  ownerUserID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Caddy{}).
			Where("user_id = ?", ownerUserID).
			UpdateColumn("loop_count", gorm.Expr("loop_count + ?", in.NumLoops)).Error; err != nil {
			return err
		}
		return tx.Create(&loop).Error
	})
	if err != nil {
		return nil, err
	}
	return &loop, nil
}

// DeleteLoop removes a loop and decrements the owner's counter in one
// transaction. There is no floor: deleting more loops than the counter holds
// drives it negative, matching the historical behavior of existing data.
func (s *Service) DeleteLoop(ownerUserID, loopID uint) error {
	loop, err := s.Get(ownerUserID, loopID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Caddy{}).
			Where("user_id = ?", ownerUserID).
			UpdateColumn("loop_count", gorm.Expr("loop_count - ?", loop.NumLoops)).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Loop{}, loop.ID).Error
	})
}

// UpdateLoop edits a loop's fields after an ownership check. Changing
// NumLoops does not touch the cached loop count; the counter only moves on
// create and delete.
func (s *Service) UpdateLoop(ownerUserID, loopID uint, in LoopInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	loop, err := s.Get(ownerUserID, loopID)
	if err != nil {
		return err
	}
	loop.Title = in.Title
	loop.Date = in.Date
	loop.NumLoops = in.NumLoops
	loop.Money = in.Money
	loop.Notes = in.Notes
	return s.db.Save(loop).Error
}

// Get loads a loop, distinguishing missing (ErrNotFound) from owned by
// someone else (ErrForbidden). Forbidden paths never mutate anything.
func (s *Service) Get(ownerUserID, loopID uint) (*models.Loop, error) {
	var loop models.Loop
	err := s.db.First(&loop, loopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if loop.CaddyID != ownerUserID {
		return nil, ErrForbidden
	}
	return &loop, nil
}

// List returns one page of the owner's loops, newest date first.
func (s *Service) List(ownerUserID uint, page, pageSize int) ([]models.Loop, int64, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * pageSize
	}
	var total int64
	if err := s.db.Model(&models.Loop{}).Where("caddy_id = ?", ownerUserID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var loops []models.Loop
	err := s.db.Where("caddy_id = ?", ownerUserID).
		Order("date DESC, id DESC").Limit(pageSize).Offset(offset).Find(&loops).Error
	return loops, total, err
}

// Recent returns the owner's n most recent loops for the dashboard.
func (s *Service) Recent(ownerUserID uint, n int) ([]models.Loop, error) {
	var loops []models.Loop
	err := s.db.Where("caddy_id = ?", ownerUserID).Order("date DESC, id DESC").Limit(n).Find(&loops).Error
	return loops, err
}

// TotalMoney sums earnings over all of the owner's loops.
func (s *Service) TotalMoney(ownerUserID uint) (int64, error) {
	var total int64
	err := s.db.Model(&models.Loop{}).Where("caddy_id = ?", ownerUserID).
		Select("COALESCE(SUM(money), 0)").Scan(&total).Error
	return total, err
}
