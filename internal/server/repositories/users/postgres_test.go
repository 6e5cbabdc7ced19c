package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userColumns = []string{
	"id", "username", "password_hash", "password_salt",
	"first_name", "last_name", "email", "phone_number",
	"role_id", "title", "registered_at", "last_login_at",
}

const (
	qInsert     = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*password_salt,\s*first_name,\s*last_name,\s*email,\s*phone_number,\s*role_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8\)\s*RETURNING\s+id,\s*registered_at\s*$`
	qByUsername = `(?s)^SELECT\s+u\.id,.*u\.last_login_at\s+FROM\s+users\s+u\s+JOIN\s+roles\s+r\s+ON\s+r\.id\s*=\s*u\.role_id\s+WHERE\s+u\.username\s*=\s*\$1\s*$`
	qByID       = `(?s)^SELECT\s+u\.id,.*FROM\s+users\s+u\s+JOIN\s+roles\s+r\s+ON\s+r\.id\s*=\s*u\.role_id\s+WHERE\s+u\.id\s*=\s*\$1\s*$`
	qLastLogin  = `(?s)^UPDATE\s+users\s+SET\s+last_login_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
	qLock       = `(?s)^SELECT\s+id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE\s*$`
	qRole       = `(?s)^SELECT\s+id\s+FROM\s+roles\s+WHERE\s+title\s*=\s*\$1\s*$`
)

func newUser() *models.User {
	return &models.User{
		UserName: "alice", PasswordHash: "$argon2id$...", PasswordSalt: "a1b2",
		FirstName: "Alice", LastName: "Liddell", Email: "alice@example.com", PhoneNumber: "123", RoleID: 2,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	registered := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(qInsert).
		WithArgs("alice", "$argon2id$...", "a1b2", "Alice", "Liddell", "alice@example.com", "123", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "registered_at"}).AddRow("u-42", registered))

	got, err := repo.Create(context.Background(), newUser())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-42" || !got.RegisteredAt.Equal(registered) || got.UserName != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), newUser())
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	registered := time.Now().Add(-time.Hour).UTC()
	lastLogin := time.Now().UTC()
	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "alice", "hash", "salt", "Alice", "Liddell", "a@x", "1", int64(1), "ADMIN", registered, lastLogin)
	mock.ExpectQuery(qByUsername).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername error: %v", err)
	}
	if got.ID != "u-1" || got.Role != "ADMIN" || got.PasswordSalt != "salt" || got.RoleID != 1 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(lastLogin) {
		t.Fatalf("unexpected last login: %v", got.LastLoginAt)
	}
}

func TestGetUserByUsername_NeverLoggedIn(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "alice", "hash", "salt", "", "", "", "", int64(2), "EDITOR", time.Now(), nil)
	mock.ExpectQuery(qByUsername).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername error: %v", err)
	}
	if got.LastLoginAt != nil {
		t.Fatalf("expected nil LastLoginAt, got %v", got.LastLoginAt)
	}
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByUsername).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-9", "bob", "hash", "salt", "Bob", "B", "b@x", "2", int64(2), "EDITOR", time.Now(), nil)
	mock.ExpectQuery(qByID).WithArgs("u-9").WillReturnRows(rows)
	mock.ExpectQuery(qByID).WithArgs("u-0").WillReturnError(errors.New("db err"))

	got, err := repo.GetUserByID(context.Background(), "u-9")
	if err != nil || got.UserName != "bob" {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}

	_, err = repo.GetUserByID(context.Background(), "u-0")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(qLastLogin).WithArgs("u-1", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qLastLogin).WithArgs("u-2", at).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qLastLogin).WithArgs("u-3", at).WillReturnError(errors.New("db err"))

	if err := repo.UpdateLastLogin(context.Background(), "u-1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.UpdateLastLogin(context.Background(), "u-2", at); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := repo.UpdateLastLogin(context.Background(), "u-3", at); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLockByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qLock).WithArgs("u-1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(qLock).WithArgs("u-2").WillReturnError(sql.ErrNoRows)

	if err := repo.LockByID(context.Background(), "u-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.LockByID(context.Background(), "u-2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetRoleID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qRole).WithArgs("ADMIN").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(qRole).WithArgs("OWNER").WillReturnError(sql.ErrNoRows)

	id, err := repo.GetRoleID(context.Background(), "ADMIN")
	if err != nil || id != 1 {
		t.Fatalf("unexpected result: %d, %v", id, err)
	}
	if _, err := repo.GetRoleID(context.Background(), "OWNER"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
