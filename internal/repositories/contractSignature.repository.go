package repositories

import (
	"context"

	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractSignatureRepository is insert and read only. A second signature
// for the same (contract, role) fails with gorm.ErrDuplicatedKey.
type ContractSignatureRepository interface {
	Create(ctx context.Context, tx *gorm.DB, signature *ContractSignature) error
	ListByContract(
		ctx context.Context,
		tx *gorm.DB,
		contractID uuid.UUID,
	) ([]ContractSignature, error)
}

type contractSignatureRepository struct {
	log logger.Logger
}

func NewContractSignatureRepository() ContractSignatureRepository {
	return &contractSignatureRepository{
		log: logger.New("contractSignatureRepository"),
	}
}

func (r *contractSignatureRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	signature *ContractSignature,
) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if err := tx.WithContext(ctx).Omit("Contract").Create(signature).Error; err != nil {
		return log.Err(
			"failed to insert signature",
			err,
			"contractID", signature.ContractID,
			"signedBy", signature.SignedBy,
		)
	}

	return nil
}

func (r *contractSignatureRepository) ListByContract(
	ctx context.Context,
	tx *gorm.DB,
	contractID uuid.UUID,
) ([]ContractSignature, error) {
	log := r.log.TraceFromContext(ctx).Function("ListByContract")

	var signatures []ContractSignature
	if err := tx.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("signed_at DESC").
		Find(&signatures).Error; err != nil {
		return nil, log.Err("failed to list signatures", err, "contractID", contractID)
	}

	return signatures, nil
}
