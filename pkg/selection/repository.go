package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/courseplan/pkg/timeslot"
	log "github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type Repository interface {
	GetSelections(ctx context.Context, userId string) ([]SelectedSection, error)
	// CreateSelection returns ErrDuplicateSelection when (userId, courseId, sectionIndex) already exists.
	CreateSelection(ctx context.Context, selection SelectedSection) (uuid.UUID, error)
	// DeleteSelection removes one section, or every section of the course when sectionIndex is nil.
	// Deleting nothing is not an error.
	DeleteSelection(ctx context.Context, userId string, courseId string, sectionIndex *int) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) GetSelections(ctx context.Context, userId string) ([]SelectedSection, error) {
	query := `SELECT user_id, course_id, course_name, section_index, section_data, credits
			  FROM course_selection
			  WHERE user_id = $1
			  ORDER BY created_at, course_id, section_index`

	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query selections: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	selections := make([]SelectedSection, 0, 8)
	for rows.Next() {
		var s SelectedSection
		var sectionData string
		if err := rows.Scan(&s.UserId, &s.CourseId, &s.CourseName, &s.SectionIndex, &sectionData, &s.Credits); err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		s.SectionData, err = timeslot.DecodeString(sectionData)
		if err != nil {
			// rendered as a section without time data
			log.Warnf("could not decode section data of %s/%d for user %s: %v", s.CourseId, s.SectionIndex, userId, err)
			s.SectionData = timeslot.TimeSlot{}
		}
		selections = append(selections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return selections, nil
}

func (r *RepositoryImpl) CreateSelection(ctx context.Context, selection SelectedSection) (uuid.UUID, error) {
	sectionData, err := timeslot.Encode(selection.SectionData)
	if err != nil {
		return uuid.Nil, err
	}

	query := `INSERT INTO course_selection (
                            uid,
                            user_id,
                            course_id,
                            course_name,
                            section_index,
                            section_data,
                            credits
						) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	uid := uuid.New()
	_, err = r.db.Exec(ctx, query,
		uid,
		selection.UserId,
		selection.CourseId,
		selection.CourseName,
		selection.SectionIndex,
		sectionData,
		selection.Credits,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, ErrDuplicateSelection
		}
		err := fmt.Errorf("could not insert selection: %w", err)
		log.Error(err)
		return uuid.Nil, err
	}
	return uid, nil
}

func (r *RepositoryImpl) DeleteSelection(ctx context.Context, userId string, courseId string, sectionIndex *int) (int, error) {
	var tag pgconn.CommandTag
	var err error
	if sectionIndex == nil {
		tag, err = r.db.Exec(ctx,
			`DELETE FROM course_selection WHERE user_id = $1 AND course_id = $2`,
			userId, courseId)
	} else {
		tag, err = r.db.Exec(ctx,
			`DELETE FROM course_selection WHERE user_id = $1 AND course_id = $2 AND section_index = $3`,
			userId, courseId, *sectionIndex)
	}
	if err != nil {
		err := fmt.Errorf("could not delete selection: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
