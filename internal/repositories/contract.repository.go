package repositories

import (
	"context"
	"errors"
	"time"

	"martinspocos/internal/constants"
	"martinspocos/internal/database"
	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const contractNumberSequence = "contract_number_seq"

type ContractRepository interface {
	Create(ctx context.Context, tx *gorm.DB, contract *Contract) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error)
	GetDetail(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error)
	ExistsForRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) (bool, error)
	NextContractNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	UpdateTerms(ctx context.Context, tx *gorm.DB, contract *Contract) error
	UpdateStatus(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		status ContractStatus,
		signedAt *time.Time,
	) error
	ListWithRequest(ctx context.Context, tx *gorm.DB) ([]*Contract, error)
	ListForPrincipal(ctx context.Context, tx *gorm.DB, principal *Principal) ([]*Contract, error)
	ListAwaitingSignature(
		ctx context.Context,
		tx *gorm.DB,
		updatedBefore time.Time,
	) ([]*Contract, error)

	ClearCache(ctx context.Context, id uuid.UUID) error
	ClearCacheForRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error
}

type contractRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewContractRepository(cache database.CacheClient) ContractRepository {
	return &contractRepository{
		cache: cache,
		log:   logger.New("contractRepository"),
	}
}

func (r *contractRepository) Create(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(contract).Error; err != nil {
		return log.Err(
			"failed to create contract",
			err,
			"serviceRequestID", contract.ServiceRequestID,
			"contractNumber", contract.ContractNumber,
		)
	}

	return nil
}

func (r *contractRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Contract, error) {
	return r.first(ctx, tx.WithContext(ctx), id, "GetByID")
}

// GetByIDForUpdate holds a row lock until the surrounding transaction ends.
func (r *contractRepository) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Contract, error) {
	return r.first(
		ctx,
		tx.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}),
		id,
		"GetByIDForUpdate",
	)
}

func (r *contractRepository) first(
	ctx context.Context,
	query *gorm.DB,
	id uuid.UUID,
	function string,
) (*Contract, error) {
	log := r.log.TraceFromContext(ctx).Function(function)

	var contract Contract
	if err := query.First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get contract", err, "id", id)
	}

	return &contract, nil
}

// GetDetail loads the contract with its service request and signatures,
// read through the contract cache.
func (r *contractRepository) GetDetail(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Contract, error) {
	log := r.log.TraceFromContext(ctx).Function("GetDetail")

	var contract Contract
	if r.cache != nil {
		found, err := database.NewCacheBuilder(r.cache, id).
			WithHash(constants.ContractCachePrefix).
			WithContext(ctx).
			Get(&contract)
		if err != nil {
			log.Warn("failed to read contract cache", "id", id, "error", err)
		} else if found {
			return &contract, nil
		}
	}

	if err := tx.WithContext(ctx).
		Preload("ServiceRequest").
		Preload("Signatures", func(db *gorm.DB) *gorm.DB {
			return db.Order("signed_at DESC")
		}).
		First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get contract detail", err, "id", id)
	}

	if r.cache != nil {
		if err := database.NewCacheBuilder(r.cache, id).
			WithHash(constants.ContractCachePrefix).
			WithStruct(contract).
			WithTTL(constants.ContractCacheExpiry).
			WithContext(ctx).
			Set(); err != nil {
			log.Warn("failed to cache contract", "id", id, "error", err)
		}
	}

	return &contract, nil
}

func (r *contractRepository) ExistsForRequest(
	ctx context.Context,
	tx *gorm.DB,
	requestID uuid.UUID,
) (bool, error) {
	log := r.log.TraceFromContext(ctx).Function("ExistsForRequest")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Contract{}).
		Where("service_request_id = ?", requestID).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to count contracts for request", err, "requestID", requestID)
	}

	return count > 0, nil
}

// NextContractNumber draws from a database sequence, so concurrent callers
// never see the same value even across processes.
func (r *contractRepository) NextContractNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	log := r.log.TraceFromContext(ctx).Function("NextContractNumber")

	var next int64
	if err := tx.WithContext(ctx).
		Raw("SELECT nextval(?)", contractNumberSequence).
		Scan(&next).Error; err != nil {
		return 0, log.Err("failed to draw contract number", err)
	}

	return next, nil
}

func (r *contractRepository) UpdateTerms(
	ctx context.Context,
	tx *gorm.DB,
	contract *Contract,
) error {
	log := r.log.TraceFromContext(ctx).Function("UpdateTerms")

	result := tx.WithContext(ctx).
		Model(&Contract{}).
		Where("id = ?", contract.ID).
		Updates(map[string]any{
			"client_name":        contract.ClientName,
			"client_document":    contract.ClientDocument,
			"client_address":     contract.ClientAddress,
			"service_value":      contract.ServiceValue,
			"payment_conditions": contract.PaymentConditions,
			"has_guarantee":      contract.HasGuarantee,
			"requirements":       contract.Requirements,
			"materials":          contract.Materials,
			"additional_notes":   contract.AdditionalNotes,
			"pdf_content":        contract.PDFContent,
		})
	if result.Error != nil {
		return log.Err("failed to update contract terms", result.Error, "id", contract.ID)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// UpdateStatus leaves signed_at untouched when signedAt is nil.
func (r *contractRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status ContractStatus,
	signedAt *time.Time,
) error {
	log := r.log.TraceFromContext(ctx).Function("UpdateStatus")

	updates := map[string]any{"status": status}
	if signedAt != nil {
		updates["signed_at"] = *signedAt
	}

	result := tx.WithContext(ctx).Model(&Contract{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update contract status", result.Error, "id", id, "status", status)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *contractRepository) ListWithRequest(ctx context.Context, tx *gorm.DB) ([]*Contract, error) {
	log := r.log.TraceFromContext(ctx).Function("ListWithRequest")

	var contracts []*Contract
	if err := tx.WithContext(ctx).
		Omit("pdf_content").
		Preload("ServiceRequest").
		Preload("Signatures", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "contract_id", "signed_by", "signed_at")
		}).
		Order("created_at DESC").
		Find(&contracts).Error; err != nil {
		return nil, log.Err("failed to list contracts", err)
	}

	return contracts, nil
}

func (r *contractRepository) ListForPrincipal(
	ctx context.Context,
	tx *gorm.DB,
	principal *Principal,
) ([]*Contract, error) {
	log := r.log.TraceFromContext(ctx).Function("ListForPrincipal")

	var contracts []*Contract
	if err := tx.WithContext(ctx).
		Joins("JOIN service_requests ON service_requests.id = contracts.service_request_id").
		Where(
			"service_requests.user_id = ? OR service_requests.whatsapp = ?",
			principal.ID,
			principal.Whatsapp,
		).
		Preload("ServiceRequest").
		Preload("Signatures", func(db *gorm.DB) *gorm.DB {
			return db.Order("signed_at DESC")
		}).
		Order("contracts.created_at DESC").
		Find(&contracts).Error; err != nil {
		return nil, log.Err("failed to list contracts for user", err, "userID", principal.ID)
	}

	return contracts, nil
}

func (r *contractRepository) ListAwaitingSignature(
	ctx context.Context,
	tx *gorm.DB,
	updatedBefore time.Time,
) ([]*Contract, error) {
	log := r.log.TraceFromContext(ctx).Function("ListAwaitingSignature")

	var contracts []*Contract
	if err := tx.WithContext(ctx).
		Select("id", "service_request_id", "contract_number", "client_name", "status", "updated_at").
		Where("status IN ?", []ContractStatus{
			ContractStatusApproved,
			ContractStatusSignedSupervisor,
			ContractStatusSignedClient,
		}).
		Where("updated_at < ?", updatedBefore).
		Order("updated_at ASC").
		Find(&contracts).Error; err != nil {
		return nil, log.Err("failed to list contracts awaiting signature", err)
	}

	return contracts, nil
}

func (r *contractRepository) ClearCache(ctx context.Context, id uuid.UUID) error {
	if r.cache == nil {
		return nil
	}

	if err := database.NewCacheBuilder(r.cache, id).
		WithHash(constants.ContractCachePrefix).
		WithContext(ctx).
		Delete(); err != nil {
		return r.log.TraceFromContext(ctx).
			Function("ClearCache").
			Err("failed to clear contract cache", err, "id", id)
	}

	return nil
}

// ClearCacheForRequest drops the cached detail of the contract generated from
// requestID, if any. The detail embeds the service request.
func (r *contractRepository) ClearCacheForRequest(
	ctx context.Context,
	tx *gorm.DB,
	requestID uuid.UUID,
) error {
	if r.cache == nil {
		return nil
	}

	log := r.log.TraceFromContext(ctx).Function("ClearCacheForRequest")

	var ids []uuid.UUID
	if err := tx.WithContext(ctx).
		Model(&Contract{}).
		Where("service_request_id = ?", requestID).
		Pluck("id", &ids).Error; err != nil {
		return log.Err("failed to find contract for request", err, "requestID", requestID)
	}

	for _, id := range ids {
		if err := r.ClearCache(ctx, id); err != nil {
			return err
		}
	}

	return nil
}
