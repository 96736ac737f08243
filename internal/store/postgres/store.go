package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/bensin/internal/models"
	"github.com/shrimpsizemoose/bensin/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

func (s *PostgresStore) CreateGroup(name string) (int64, error) {
	var id int64
	err := s.DB.Get(&id, `INSERT INTO groups (name) VALUES ($1) RETURNING id`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create group: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) CreateUser(user *models.User) (int64, error) {
	var id int64
	err := s.DB.Get(&id, `
		INSERT INTO users (name, code, username, password, role, group_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, user.Name, user.Code, user.Username, user.Password, user.Role, user.GroupID)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) CreateRequest(req *models.Request) (int64, error) {
	var id int64
	err := s.DB.Get(&id, `
		INSERT INTO requests (student_id, committee, description, points, week_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, req.StudentID, req.Committee, req.Description, req.Points, req.WeekNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return id, nil
}
