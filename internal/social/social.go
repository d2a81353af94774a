// Package social maintains the directed follow relation between caddies and
// derives followers by reverse lookup.
package social

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/caddieworks/myloopcount/internal/models"
)

var ErrNotFound = errors.New("social: not found")

// FollowerSource answers "who follows X". The default implementation scans
// the follow_edges table with a single query; that is O(total edges) in the
// worst case, bounded in practice by the index on the target column. A
// maintained reverse index can be swapped in without touching Service's API.
type FollowerSource interface {
	FollowerIDs(toCaddyID uint) ([]uint, error)
}

type edgeScan struct{ db *gorm.DB }

func (s edgeScan) FollowerIDs(toCaddyID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Raw("SELECT from_caddy_id FROM follow_edges WHERE to_caddy_id = ? ORDER BY id", toCaddyID).Scan(&ids).Error
	return ids, err
}

type Service struct {
	db        *gorm.DB
	followers FollowerSource
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, followers: edgeScan{db: db}}
}

// NewServiceWithFollowerSource lets callers plug in an alternative reverse
// lookup (e.g. a maintained follower index).
func NewServiceWithFollowerSource(db *gorm.DB, fs FollowerSource) *Service {
	return &Service{db: db, followers: fs}
}

// Follow adds a directed edge follower -> target, resolved by username.
// Unknown usernames fail with ErrNotFound. Staff accounts are silently
// skipped: the call reports success without touching the graph, so a user
// cannot probe which accounts are staff. Re-following is idempotent.
func (s *Service) Follow(followerCaddyID uint, targetUsername string) error {
	var user models.User
	err := s.db.Where("username = ?", strings.ToLower(strings.TrimSpace(targetUsername))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if user.Staff {
		return nil
	}
	var target models.Caddy
	err = s.db.Where("user_id = ?", user.ID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	edge := models.FollowEdge{FromCaddyID: followerCaddyID, ToCaddyID: target.ID}
	return s.db.Where(models.FollowEdge{FromCaddyID: followerCaddyID, ToCaddyID: target.ID}).
		FirstOrCreate(&edge).Error
}

// Unfollow removes the edge follower -> target. Removing an absent edge is a
// no-op, not an error.
func (s *Service) Unfollow(followerCaddyID, targetCaddyID uint) error {
	return s.db.Where("from_caddy_id = ? AND to_caddy_id = ?", followerCaddyID, targetCaddyID).
		Delete(&models.FollowEdge{}).Error
}

// Following returns the caddies this caddy follows, in the order the edges
// were created.
func (s *Service) Following(caddyID uint) ([]models.Caddy, error) {
	var edges []models.FollowEdge
	if err := s.db.Where("from_caddy_id = ?", caddyID).Order("id").Find(&edges).Error; err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ToCaddyID)
	}
	var caddies []models.Caddy
	if err := s.db.Preload("User").Where("id IN ?", ids).Find(&caddies).Error; err != nil {
		return nil, err
	}
	// restore edge order; Find returns primary-key order
	byID := make(map[uint]models.Caddy, len(caddies))
	for _, c := range caddies {
		byID[c.ID] = c
	}
	ordered := make([]models.Caddy, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (s *Service) CountFollowing(caddyID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.FollowEdge{}).Where("from_caddy_id = ?", caddyID).Count(&n).Error
	return n, err
}

// Followers returns the usernames of everyone following the given caddy.
func (s *Service) Followers(caddyID uint) ([]string, error) {
	ids, err := s.followers.FollowerIDs(caddyID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		var c models.Caddy
		if err := s.db.Preload("User").First(&c, id).Error; err != nil {
			return nil, err
		}
		if c.User != nil {
			names = append(names, c.User.Username)
		}
	}
	return names, nil
}

// TopFriends returns up to k of the caddy's friends with the highest loop
// counts. Sort is stable with ties broken by ascending id, so equal counts
// never shadow each other.
func (s *Service) TopFriends(caddyID uint, k int) ([]models.Caddy, error) {
	friends, err := s.Following(caddyID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(friends, func(i, j int) bool {
		if friends[i].LoopCount != friends[j].LoopCount {
			return friends[i].LoopCount > friends[j].LoopCount
		}
		return friends[i].ID < friends[j].ID
	})
	if k < len(friends) {
		friends = friends[:k]
	}
	return friends, nil
}
