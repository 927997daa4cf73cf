package friend

import (
	"context"
	"fmt"
	"strings"

	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListFriends(ctx context.Context) ([]Friend, error)
	AddFriend(ctx context.Context, friendUid string) error
	// GetFriendSelections returns the friend's selections, or ErrNotFriends.
	GetFriendSelections(ctx context.Context, friendUid string) ([]selection.SelectedSection, error)
}

type ServiceImpl struct {
	repo       Repository
	selections selection.Repository
	users      user.Service
}

func NewService(repo Repository, selections selection.Repository, users user.Service) *ServiceImpl {
	return &ServiceImpl{repo: repo, selections: selections, users: users}
}

func (s *ServiceImpl) ListFriends(ctx context.Context) ([]Friend, error) {
	userId, err := user.CurrentUid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	uids, err := s.repo.ListFriends(ctx, userId)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetUsersByUids(ctx, uids)
	if err != nil {
		return nil, err
	}
	byUid := make(map[string]user.User, len(users))
	for _, u := range users {
		byUid[u.Uid] = u
	}

	friends := make([]Friend, 0, len(uids))
	for _, uid := range uids {
		u, ok := byUid[uid]
		if !ok {
			log.Warnf("friend %s of user %s has no user record", uid, userId)
			friends = append(friends, Friend{Uid: uid})
			continue
		}
		friends = append(friends, Friend{Uid: uid, Username: u.Username, DisplayName: u.DisplayName, School: u.School})
	}
	return friends, nil
}

func (s *ServiceImpl) AddFriend(ctx context.Context, friendUid string) error {
	userId, err := user.CurrentUid(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	friendUid = strings.TrimSpace(friendUid)
	if friendUid == userId {
		return ErrSelfFriendship
	}
	if _, err := s.users.GetUserByUid(ctx, friendUid); err != nil {
		return err
	}
	return s.repo.AddFriendship(ctx, userId, friendUid)
}

func (s *ServiceImpl) GetFriendSelections(ctx context.Context, friendUid string) ([]selection.SelectedSection, error) {
	userId, err := user.CurrentUid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	ok, err := s.repo.AreFriends(ctx, userId, friendUid)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debugf("user %s asked for selections of non-friend %s", userId, friendUid)
		return nil, ErrNotFriends
	}
	return s.selections.GetSelections(ctx, friendUid)
}
