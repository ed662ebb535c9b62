package repositories

import (
	"context"
	"fmt"

	"sabiflow/internal/encryption"
	"sabiflow/internal/models"
)

// encryptedWalletRepository wraps a WalletRepository so that every write
// carrying a balance encrypts it first and every read decrypts it before
// returning. Higher layers never see ciphertext; a decryption failure
// surfaces as ErrCorruptBalance instead of leaking the stored blob.
type encryptedWalletRepository struct {
	inner  WalletRepository
	cipher *encryption.Cipher
}

// NewEncryptedWalletRepository decorates a wallet repository with
// balance encryption at rest.
func NewEncryptedWalletRepository(inner WalletRepository, cipher *encryption.Cipher) WalletRepository {
	return &encryptedWalletRepository{inner: inner, cipher: cipher}
}

func (r *encryptedWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	encrypted, err := r.cipher.Encrypt(wallet.Balance)
	if err != nil {
		return fmt.Errorf("failed to encrypt balance: %w", err)
	}

	stored := *wallet
	stored.Balance = encrypted
	if err := r.inner.Create(ctx, &stored); err != nil {
		return err
	}

	wallet.ID = stored.ID
	wallet.Status = stored.Status
	wallet.CreatedAt = stored.CreatedAt
	wallet.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *encryptedWalletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	return r.decrypted(r.inner.GetByID(ctx, id))
}

func (r *encryptedWalletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	return r.decrypted(r.inner.GetByUserID(ctx, userID))
}

func (r *encryptedWalletRepository) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return r.decrypted(r.inner.GetByAddress(ctx, address))
}

func (r *encryptedWalletRepository) GetForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	return r.decrypted(r.inner.GetForUpdate(ctx, id))
}

func (r *encryptedWalletRepository) UpdateBalance(ctx context.Context, id string, balance string) error {
	encrypted, err := r.cipher.Encrypt(balance)
	if err != nil {
		return fmt.Errorf("failed to encrypt balance: %w", err)
	}
	return r.inner.UpdateBalance(ctx, id, encrypted)
}

func (r *encryptedWalletRepository) UpdateStatus(ctx context.Context, id string, status models.WalletStatus) error {
	return r.inner.UpdateStatus(ctx, id, status)
}

func (r *encryptedWalletRepository) decrypted(wallet *models.Wallet, err error) (*models.Wallet, error) {
	if err != nil {
		return nil, err
	}
	plain, err := r.cipher.Decrypt(wallet.Balance)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet %s: %v", ErrCorruptBalance, wallet.ID, err)
	}
	wallet.Balance = plain
	return wallet, nil
}
