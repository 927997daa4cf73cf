package friend

import (
	"context"
	"sync"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	friends map[string][]string
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{friends: make(map[string][]string)}
}

func (r *RepositoryStub) AreFriends(ctx context.Context, userId string, friendId string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.friends[userId] {
		if f == friendId {
			return true, nil
		}
	}
	return false, nil
}

func (r *RepositoryStub) ListFriends(ctx context.Context, userId string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, len(r.friends[userId]))
	copy(result, r.friends[userId])
	return result, nil
}

func (r *RepositoryStub) AddFriendship(ctx context.Context, userId string, friendId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(userId, friendId)
	r.add(friendId, userId)
	return nil
}

func (r *RepositoryStub) add(userId, friendId string) {
	for _, f := range r.friends[userId] {
		if f == friendId {
			return
		}
	}
	r.friends[userId] = append(r.friends[userId], friendId)
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friends = make(map[string][]string)
}
