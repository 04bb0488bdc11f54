package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/larestrepo/cardanoapi/internal/models"
)

// CreateWallet inserts a wallet row, encrypting the payment and stake
// signing keys before they are stored. The wallet id is assigned here if
// the caller did not set one.
func (s *Store) CreateWallet(w *models.Wallet) error {
	log.Infof("CreateWallet: saving wallet %q", w.Name)

	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	paymentSkey, err := s.encrypt(w.PaymentSkey)
	if err != nil {
		log.Errorf("CreateWallet: failed to encrypt payment skey: %v", err)
		return err
	}
	stakeSkey, err := s.encrypt(w.StakeSkey)
	if err != nil {
		log.Errorf("CreateWallet: failed to encrypt stake skey: %v", err)
		return err
	}

	row := *w
	row.PaymentSkey = paymentSkey
	row.StakeSkey = stakeSkey

	if err := s.db.Create(&row).Error; err != nil {
		log.Errorf("CreateWallet: failed to create wallet %q: %v", w.Name, err)
		return err
	}

	log.Infof("CreateWallet: successfully saved wallet %s", w.ID)
	return nil
}

// WalletByID returns the wallet with the given id, with signing keys
// decrypted for use by the node client.
func (s *Store) WalletByID(id string) (*models.Wallet, error) {
	log.Debugf("WalletByID: retrieving wallet %s", id)

	w := &models.Wallet{}
	if err := s.db.Where("id = ?", id).First(w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("WalletByID: wallet %s not found", id)
			return nil, ErrWalletNotFound
		}
		log.Errorf("WalletByID: query failed for %s: %v", id, err)
		return nil, err
	}

	paymentSkey, err := s.decrypt(w.PaymentSkey)
	if err != nil {
		log.Errorf("WalletByID: failed to decrypt payment skey for %s: %v", id, err)
		return nil, err
	}
	stakeSkey, err := s.decrypt(w.StakeSkey)
	if err != nil {
		log.Errorf("WalletByID: failed to decrypt stake skey for %s: %v", id, err)
		return nil, err
	}
	w.PaymentSkey = paymentSkey
	w.StakeSkey = stakeSkey

	return w, nil
}

// Wallets lists all stored wallets. Signing-key material stays sealed;
// listing never needs it.
func (s *Store) Wallets() ([]*models.Wallet, error) {
	log.Debug("Wallets: retrieving all wallets")

	var items []models.Wallet
	if err := s.db.Find(&items).Error; err != nil {
		log.Errorf("Wallets: failed to query wallets: %v", err)
		return nil, err
	}

	result := make([]*models.Wallet, 0, len(items))
	for i := range items {
		w := items[i]
		w.PaymentSkey = nil
		w.StakeSkey = nil
		result = append(result, &w)
	}

	log.Infof("Wallets: found %d wallets", len(result))
	return result, nil
}
