package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

var teacherRowColumns = []string{"id", "full_name", "email", "teacher_type", "timezone", "status", "role", "created_at", "updated_at"}

func TestTeacherRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM teachers WHERE id = \\$1").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).AddRow("t1", "Amal", "amal@example.com", "kids", "saudi", "approved", "teacher", now, now))

	teacher, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TeacherTypeKids, teacher.TeacherType)
	assert.True(t, teacher.Bookable())

	mock.ExpectQuery("SELECT (.+) FROM teachers WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns))
	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM teachers WHERE id = ANY\\(\\$1\\)").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).
			AddRow("t1", "Amal", "a@example.com", "kids", "saudi", "approved", "teacher", now, now).
			AddRow("t2", "Basma", "b@example.com", "mixed", "uae", "pending", "teacher", now, now))

	teachers, err := repo.FindByIDs(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.False(t, teachers[1].Bookable())

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
