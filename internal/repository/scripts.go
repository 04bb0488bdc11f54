package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/larestrepo/cardanoapi/internal/models"
)

// CreateScript inserts a script row, assigning an id if absent.
func (s *Store) CreateScript(sc *models.Script) error {
	log.Infof("CreateScript: saving script %q (purpose %s)", sc.Name, sc.Purpose)

	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if err := s.db.Create(sc).Error; err != nil {
		log.Errorf("CreateScript: failed to create script %q: %v", sc.Name, err)
		return err
	}

	log.Infof("CreateScript: successfully saved script %s, policy %s", sc.ID, sc.PolicyID)
	return nil
}

// ScriptByID returns the script with the given id.
func (s *Store) ScriptByID(id string) (*models.Script, error) {
	log.Debugf("ScriptByID: retrieving script %s", id)

	sc := &models.Script{}
	if err := s.db.Where("id = ?", id).First(sc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("ScriptByID: script %s not found", id)
			return nil, ErrScriptNotFound
		}
		log.Errorf("ScriptByID: query failed for %s: %v", id, err)
		return nil, err
	}
	return sc, nil
}

// Scripts lists all stored scripts.
func (s *Store) Scripts() ([]*models.Script, error) {
	log.Debug("Scripts: retrieving all scripts")

	var items []models.Script
	if err := s.db.Find(&items).Error; err != nil {
		log.Errorf("Scripts: failed to query scripts: %v", err)
		return nil, err
	}

	result := make([]*models.Script, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}
