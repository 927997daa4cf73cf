package schedule

import (
	"context"
	"errors"
	"sync"

	"github.com/klokku/courseplan/pkg/selection"
)

var errNotFriends = errors.New("not friends")

// RemoteStub is an in-memory Remote and FriendFetcher. Fetches can be held
// back with Hold to interleave them with other operations.
type RemoteStub struct {
	mu          sync.Mutex
	selections  *selection.RepositoryStub
	friends     map[string]map[string]bool
	gates       map[string]*gate
	fetchErr    error
	createErr   error
	deleteErr   error
	friendErr   error
	fetchCalls  int
	friendCalls int
}

type gate struct {
	entered chan struct{}
	once    sync.Once
	release chan struct{}
}

func NewRemoteStub() *RemoteStub {
	return &RemoteStub{
		selections: selection.NewRepositoryStub(),
		friends:    make(map[string]map[string]bool),
		gates:      make(map[string]*gate),
	}
}

func (r *RemoteStub) FetchSelections(ctx context.Context, userId string) ([]selection.SelectedSection, error) {
	r.mu.Lock()
	r.fetchCalls++
	err := r.fetchErr
	g := r.take(userId)
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	// the snapshot is taken before waiting, like a response already on its way
	sections, err := r.selections.GetSelections(ctx, userId)
	if err != nil {
		return nil, err
	}
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *RemoteStub) CreateSelection(ctx context.Context, s selection.SelectedSection) error {
	r.mu.Lock()
	err := r.createErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = r.selections.CreateSelection(ctx, s)
	return err
}

func (r *RemoteStub) DeleteSelection(ctx context.Context, userId string, courseId string, sectionIndex *int) error {
	r.mu.Lock()
	err := r.deleteErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = r.selections.DeleteSelection(ctx, userId, courseId, sectionIndex)
	return err
}

func (r *RemoteStub) FetchFriendSelections(ctx context.Context, userId string, friendId string) ([]selection.SelectedSection, error) {
	r.mu.Lock()
	r.friendCalls++
	err := r.friendErr
	isFriend := r.friends[userId][friendId]
	g := r.take(friendId)
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !isFriend {
		return nil, errNotFriends
	}
	sections, err := r.selections.GetSelections(ctx, friendId)
	if err != nil {
		return nil, err
	}
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return sections, nil
}

// Put stores a selection directly, bypassing the store.
func (r *RemoteStub) Put(s selection.SelectedSection) error {
	_, err := r.selections.CreateSelection(context.Background(), s)
	return err
}

func (r *RemoteStub) Befriend(userId string, friendId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pair := range [][2]string{{userId, friendId}, {friendId, userId}} {
		if r.friends[pair[0]] == nil {
			r.friends[pair[0]] = make(map[string]bool)
		}
		r.friends[pair[0]][pair[1]] = true
	}
}

// Hold makes the next fetch for userId wait until release is called. entered
// is closed once that fetch is waiting. Later fetches are not held.
func (r *RemoteStub) Hold(userId string) (entered <-chan struct{}, release func()) {
	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	r.mu.Lock()
	r.gates[userId] = g
	r.mu.Unlock()
	var once sync.Once
	return g.entered, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.gates, userId)
			r.mu.Unlock()
			close(g.release)
		})
	}
}

// take hands out the gate of id to a single fetch. Callers hold r.mu.
func (r *RemoteStub) take(id string) *gate {
	g := r.gates[id]
	delete(r.gates, id)
	return g
}

func (g *gate) wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RemoteStub) SetFetchError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchErr = err
}

func (r *RemoteStub) SetCreateError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createErr = err
}

func (r *RemoteStub) SetDeleteError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteErr = err
}

func (r *RemoteStub) SetFriendError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friendErr = err
}

func (r *RemoteStub) FetchCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchCalls
}

func (r *RemoteStub) FriendCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.friendCalls
}
