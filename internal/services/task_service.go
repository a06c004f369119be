package services

import (
	"database/sql"
	"time"
	"unicode/utf8"

	"github.com/isdelr/taskdeck-be/internal/models"
)

// TaskUpdate carries a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	ListTasks(userID, status, sortBy string) ([]models.Task, error)
	CreateTask(userID, title, description string) (models.Task, error)
	GetTask(userID string, id int64) (models.Task, error)
	UpdateTask(userID string, id int64, upd TaskUpdate) (models.Task, error)
	DeleteTask(userID string, id int64) error
	ToggleComplete(userID string, id int64) (models.Task, error)
}

// TaskService provides CRUD over task records scoped to a user. It trusts
// the path-supplied user id for scoping, but every single-task operation
// also verifies the record's owner against it.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

// ListTasks returns a user's tasks. status filters by completion
// ("pending"/"completed"); sortBy "title" sorts ascending by title.
// Unrecognized values fall back to showing all tasks, newest first.
func (s *TaskService) ListTasks(userID, status, sortBy string) ([]models.Task, error) {
	query := "SELECT id, user_id, title, description, completed, created_at, updated_at FROM tasks WHERE user_id = ?"

	switch status {
	case "pending":
		query += " AND completed = 0"
	case "completed":
		query += " AND completed = 1"
	}

	switch sortBy {
	case "title":
		query += " ORDER BY title ASC"
	default:
		query += " ORDER BY created_at DESC"
	}

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CreateTask validates and inserts a new task for the user.
func (s *TaskService) CreateTask(userID, title, description string) (models.Task, error) {
	if err := validateTitle(title); err != nil {
		return models.Task{}, err
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLen {
		return models.Task{}, ErrDescriptionTooLong
	}

	now := time.Now().UTC()
	task := models.Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := s.db.Exec(
		"INSERT INTO tasks(user_id, title, description, completed, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)",
		task.UserID, task.Title, task.Description, task.Completed, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	task.ID, err = res.LastInsertId()
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// GetTask fetches a single task. The task must exist and belong to userID.
func (s *TaskService) GetTask(userID string, id int64) (models.Task, error) {
	var task models.Task
	row := s.db.QueryRow("SELECT id, user_id, title, description, completed, created_at, updated_at FROM tasks WHERE id = ?", id)
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	if task.UserID != userID {
		return models.Task{}, ErrNotTaskOwner
	}
	return task, nil
}

// UpdateTask applies a partial update. Only supplied fields mutate; the
// title is re-validated when supplied, and updated_at is always refreshed.
func (s *TaskService) UpdateTask(userID string, id int64, upd TaskUpdate) (models.Task, error) {
	task, err := s.GetTask(userID, id)
	if err != nil {
		return models.Task{}, err
	}

	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			return models.Task{}, err
		}
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		if utf8.RuneCountInString(*upd.Description) > models.MaxDescriptionLen {
			return models.Task{}, ErrDescriptionTooLong
		}
		task.Description = *upd.Description
	}
	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		"UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ?",
		task.Title, task.Description, task.Completed, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task. Deleting an already-deleted task reports
// ErrTaskNotFound.
func (s *TaskService) DeleteTask(userID string, id int64) error {
	if _, err := s.GetTask(userID, id); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	return err
}

// ToggleComplete flips the completion flag and refreshes updated_at.
func (s *TaskService) ToggleComplete(userID string, id int64) (models.Task, error) {
	task, err := s.GetTask(userID, id)
	if err != nil {
		return models.Task{}, err
	}

	task.Completed = !task.Completed
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		"UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?",
		task.Completed, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Limits are in characters, not bytes; multibyte titles within the limit
// must pass.
func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}
