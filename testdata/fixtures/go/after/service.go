package project

import (
	"errors"
	"fmt"
)

var errNotFound = errors.New("user not found")

// UserService handles user business logic.
type UserService struct {
	repo Repository
}

// NewUserService creates a new UserService.
func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo}
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(id int) (*User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errNotFound
	}
	return user, nil
}

// DeleteUser removes a user by ID.
func (s *UserService) DeleteUser(id int) error {
	if _, err := s.GetUser(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}
