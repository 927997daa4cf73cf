package friend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	AreFriends(ctx context.Context, userId string, friendId string) (bool, error)
	ListFriends(ctx context.Context, userId string) ([]string, error)
	// AddFriendship stores the relationship in both directions. Adding an existing one is a no-op.
	AddFriendship(ctx context.Context, userId string, friendId string) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) AreFriends(ctx context.Context, userId string, friendId string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friendship WHERE user_id = $1 AND friend_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userId, friendId).Scan(&exists); err != nil {
		err := fmt.Errorf("could not check friendship: %w", err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *RepositoryImpl) ListFriends(ctx context.Context, userId string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT friend_id FROM friendship WHERE user_id = $1 ORDER BY created_at, friend_id`, userId)
	if err != nil {
		err := fmt.Errorf("could not query friends: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	friends := make([]string, 0)
	for rows.Next() {
		var friendId string
		if err := rows.Scan(&friendId); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		friends = append(friends, friendId)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return friends, nil
}

func (r *RepositoryImpl) AddFriendship(ctx context.Context, userId string, friendId string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO friendship (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, query, userId, friendId); err != nil {
		err := fmt.Errorf("could not insert friendship: %w", err)
		log.Error(err)
		return err
	}
	if _, err := tx.Exec(ctx, query, friendId, userId); err != nil {
		err := fmt.Errorf("could not insert friendship: %w", err)
		log.Error(err)
		return err
	}
	return tx.Commit(ctx)
}
