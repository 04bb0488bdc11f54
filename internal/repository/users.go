package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/larestrepo/cardanoapi/internal/models"
)

// CreateUser inserts a user row. The password must already be hashed.
func (s *Store) CreateUser(u *models.User) error {
	log.Infof("CreateUser: creating user %q", u.Username)

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.db.Create(u).Error; err != nil {
		log.Errorf("CreateUser: failed to create user %q: %v", u.Username, err)
		return err
	}
	return nil
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(username string) (*models.User, error) {
	log.Debugf("UserByUsername: retrieving user %q", username)

	u := &models.User{}
	if err := s.db.Where("username = ?", username).First(u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Errorf("UserByUsername: query failed for %q: %v", username, err)
		return nil, err
	}
	return u, nil
}

// Users lists all stored users.
func (s *Store) Users() ([]*models.User, error) {
	var items []models.User
	if err := s.db.Find(&items).Error; err != nil {
		log.Errorf("Users: failed to query users: %v", err)
		return nil, err
	}

	result := make([]*models.User, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}
