package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/larestrepo/cardanoapi/internal/models"
)

// CreateTransactionIfAbsent inserts the record unless a row with the
// same TxID exists. The uniqueness check rides on the database's unique
// index, so two concurrent requests producing the same transaction id
// cannot both insert; the loser gets ErrDuplicateTransaction.
func (s *Store) CreateTransactionIfAbsent(tx *models.Transaction) error {
	log.Infof("CreateTransactionIfAbsent: recording transaction %s", tx.TxID)

	if err := s.db.Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			log.Warnf("CreateTransactionIfAbsent: transaction %s already recorded", tx.TxID)
			return ErrDuplicateTransaction
		}
		log.Errorf("CreateTransactionIfAbsent: failed to record %s: %v", tx.TxID, err)
		return err
	}

	log.Infof("CreateTransactionIfAbsent: successfully recorded transaction %s", tx.TxID)
	return nil
}

// TransactionByTxID returns the record with the given ledger-assigned id.
func (s *Store) TransactionByTxID(txID string) (*models.Transaction, error) {
	log.Debugf("TransactionByTxID: retrieving transaction %s", txID)

	tx := &models.Transaction{}
	if err := s.db.Where("tx_id = ?", txID).First(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTxNotFound
		}
		log.Errorf("TransactionByTxID: query failed for %s: %v", txID, err)
		return nil, err
	}
	return tx, nil
}

// Transactions lists all recorded transactions.
func (s *Store) Transactions() ([]*models.Transaction, error) {
	log.Debug("Transactions: retrieving all transactions")

	var items []models.Transaction
	if err := s.db.Order("submission desc").Find(&items).Error; err != nil {
		log.Errorf("Transactions: failed to query transactions: %v", err)
		return nil, err
	}

	result := make([]*models.Transaction, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite driver versions that predate gorm error translation.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
