// Package shack is the CaddyMaster module: dated groupings of caddies with
// free-form golfer-group JSON. Independent of the loop ledger.
package shack

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/caddieworks/myloopcount/internal/models"
	"github.com/caddieworks/myloopcount/internal/validation"
)

var (
	ErrNotFound  = errors.New("shack: not found")
	ErrForbidden = errors.New("shack: not the caddy master")
)

type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "shack: validation failed" }

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type ShackInput struct {
	Title        string
	Date         time.Time
	GolferGroups string
}

// Create records a new shack for the caddy master. GolferGroups is stored as
// entered but must at least parse as JSON.
func (s *Service) Create(masterID uint, in ShackInput) (*models.CaddyShack, error) {
	v := validation.Violations{}
	validation.Required("title", in.Title, v)
	if in.GolferGroups != "" && !json.Valid([]byte(in.GolferGroups)) {
		v["golfer_groups"] = "invalid_json"
	}
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	shack := models.CaddyShack{
		Title:         in.Title,
		Date:          in.Date,
		CaddyMasterID: masterID,
		GolferGroups:  in.GolferGroups,
	}
	if err := s.db.Create(&shack).Error; err != nil {
		return nil, err
	}
	return &shack, nil
}

// List returns the master's shacks, newest date first.
func (s *Service) List(masterID uint) ([]models.CaddyShack, error) {
	var shacks []models.CaddyShack
	err := s.db.Where("caddy_master_id = ?", masterID).
		Order("date DESC, id DESC").
		Preload("Caddys").
		Find(&shacks).Error
	return shacks, err
}

// AssignCaddy adds a caddy to a shack roster; assigning twice is a no-op.
func (s *Service) AssignCaddy(masterID, shackID, caddyID uint) error {
	shack, err := s.get(masterID, shackID)
	if err != nil {
		return err
	}
	var caddy models.Caddy
	if err := s.db.First(&caddy, caddyID).Error; err != nil {
		return ErrNotFound
	}
	return s.db.Model(shack).Association("Caddys").Append(&caddy)
}

// RemoveCaddy drops a caddy from a shack roster.
func (s *Service) RemoveCaddy(masterID, shackID, caddyID uint) error {
	shack, err := s.get(masterID, shackID)
	if err != nil {
		return err
	}
	var caddy models.Caddy
	if err := s.db.First(&caddy, caddyID).Error; err != nil {
		return ErrNotFound
	}
	return s.db.Model(shack).Association("Caddys").Delete(&caddy)
}

// MasterFor loads the caddy-master profile for a user account.
func (s *Service) MasterFor(userID uint) (*models.CaddyMaster, error) {
	var master models.CaddyMaster
	err := s.db.Where("user_id = ?", userID).First(&master).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &master, nil
}

func (s *Service) get(masterID, shackID uint) (*models.CaddyShack, error) {
	var shack models.CaddyShack
	err := s.db.First(&shack, shackID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if shack.CaddyMasterID != masterID {
		return nil, ErrForbidden
	}
	return &shack, nil
}
