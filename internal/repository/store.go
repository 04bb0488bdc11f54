package repository

import (
	"errors"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	crypto2 "github.com/larestrepo/cardanoapi/internal/crypto"
	"github.com/larestrepo/cardanoapi/internal/models"
)

var log = logging.Logger("repository")

var (
	// ErrDuplicateTransaction is returned when a transaction with the
	// same ledger-assigned id is already recorded.
	ErrDuplicateTransaction = errors.New("transaction id already exists in database")

	ErrWalletNotFound = errors.New("wallet not found")
	ErrScriptNotFound = errors.New("script not found")
	ErrTxNotFound     = errors.New("transaction not found")
	ErrUserNotFound   = errors.New("user not found")
)

// Store wraps the GORM database handle together with the cipher key used
// to protect signing-key material at rest. It is constructed once at
// process start and passed down; there is no package-level engine.
type Store struct {
	db        *gorm.DB
	cipherKey []byte
}

// OpenStore opens the SQLite database at dbPath, migrating the schema on
// the way. cipherKey encrypts wallet signing keys before they hit disk;
// derive it with crypto2.GenerateEncryptKey from the configured seed.
func OpenStore(dbPath string, cipherKey []byte) (*Store, error) {
	log.Debug("OpenStore: opening SQLite database connection")

	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Errorf("OpenStore: failed to get home directory: %v", err)
			return nil, err
		}
		dbPath = filepath.Join(homeDir, ".cardanoapi", "cardanoapi.db")
	}

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Errorf("OpenStore: failed to create directory %s: %v", dir, err)
			return nil, err
		}
	}

	gormLogger := logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		log.Errorf("OpenStore: failed to open database: %v", err)
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.Wallet{},
		&models.Transaction{},
		&models.Script{},
		&models.User{},
	); err != nil {
		log.Errorf("OpenStore: auto migration failed: %v", err)
		return nil, err
	}

	log.Debugf("OpenStore: SQLite database opened successfully at %s", dbPath)
	return &Store{db: db, cipherKey: cipherKey}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	return crypto2.EncryptGCM(plain, s.cipherKey)
}

func (s *Store) decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	return crypto2.DecryptGCM(sealed, s.cipherKey)
}
