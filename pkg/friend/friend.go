package friend

import "errors"

var ErrNotFriends = errors.New("users are not friends")
var ErrSelfFriendship = errors.New("user cannot befriend themselves")

// Friend is an entry of a user's roster.
type Friend struct {
	Uid         string
	Username    string
	DisplayName string
	School      string
}
