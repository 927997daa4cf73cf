package user

import "errors"

var ErrUserNotFound = errors.New("user not found")
var ErrUserDataInvalid = errors.New("user data invalid")
var ErrUsernameTaken = errors.New("username already taken")

type User struct {
	Id          int
	Uid         string // identity used by selections and friendships
	Username    string
	DisplayName string
	School      string // e.g. "SEAS", "CC", "Barnard"
}
