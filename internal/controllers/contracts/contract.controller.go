package contractController

import (
	"bytes"
	"context"
	"time"

	"martinspocos/internal/apperrors"
	"martinspocos/internal/database"
	"martinspocos/internal/events"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"
	"martinspocos/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractController struct {
	contractRepo  repositories.ContractRepository
	signatureRepo repositories.ContractSignatureRepository
	requestRepo   repositories.ServiceRequestRepository
	transaction   services.Transactor
	export        *services.ExportService
	events        events.Publisher
	db            database.DB
	now           func() time.Time
	log           logger.Logger
}

type ContractTerms struct {
	ClientName        string          `json:"clientName"        validate:"required,max=255"`
	ClientDocument    string          `json:"clientDocument"    validate:"required,max=20"`
	ClientAddress     string          `json:"clientAddress"     validate:"required"`
	ServiceValue      decimal.Decimal `json:"serviceValue"      validate:"required,gt=0"`
	PaymentConditions string          `json:"paymentConditions" validate:"required"`
	HasGuarantee      bool            `json:"hasGuarantee"`
	Requirements      string          `json:"requirements"`
	Materials         string          `json:"materials"`
	AdditionalNotes   string          `json:"additionalNotes"`
	PDFContent        string          `json:"pdfContent"`
}

type GenerateContractRequest struct {
	ServiceRequestID string `json:"serviceRequestId" validate:"required,uuid"`
	ContractTerms
}

type UpdateContractRequest struct {
	ContractTerms
}

type SetStatusRequest struct {
	Status ContractStatus `json:"status" validate:"required"`
}

type SignContractRequest struct {
	Signature string      `json:"signature" validate:"required,startswith=data:"`
	SignedBy  *SignerRole `json:"signedBy,omitempty"`
}

type ContractControllerInterface interface {
	Generate(ctx context.Context, request *GenerateContractRequest) (*Contract, error)
	Get(ctx context.Context, principal *Principal, id uuid.UUID) (*Contract, error)
	UpdateTerms(ctx context.Context, id uuid.UUID, request *UpdateContractRequest) (*Contract, error)
	SetStatus(ctx context.Context, id uuid.UUID, request *SetStatusRequest) (*Contract, error)
	Approve(ctx context.Context, id uuid.UUID) (*Contract, error)
	Sign(
		ctx context.Context,
		principal *Principal,
		id uuid.UUID,
		role SignerRole,
		request *SignContractRequest,
	) (*Contract, error)
	ListSignatures(
		ctx context.Context,
		principal *Principal,
		id uuid.UUID,
	) ([]ContractSignature, error)
	ListSupervisory(ctx context.Context) ([]*Contract, error)
	ListForClient(ctx context.Context, principal *Principal) ([]*Contract, error)
	Export(ctx context.Context) (*bytes.Buffer, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Publisher,
	db database.DB,
) ContractControllerInterface {
	return &ContractController{
		contractRepo:  repos.Contract,
		signatureRepo: repos.ContractSignature,
		requestRepo:   repos.ServiceRequest,
		transaction:   services.Transaction,
		export:        services.Export,
		events:        eventBus,
		db:            db,
		now:           time.Now,
		log:           logger.New("contractController"),
	}
}

func (t *ContractTerms) normalize() {
	t.ClientName = utils.SanitizeText(t.ClientName)
	t.ClientDocument = utils.SanitizeText(t.ClientDocument)
	t.ClientAddress = utils.SanitizeText(t.ClientAddress)
	t.PaymentConditions = utils.SanitizeText(t.PaymentConditions)
	t.Requirements = utils.SanitizeText(t.Requirements)
	t.Materials = utils.SanitizeText(t.Materials)
	t.AdditionalNotes = utils.SanitizeText(t.AdditionalNotes)
	t.ServiceValue = t.ServiceValue.Round(2)
}

func (t *ContractTerms) apply(contract *Contract) {
	contract.ClientName = t.ClientName
	contract.ClientDocument = t.ClientDocument
	contract.ClientAddress = t.ClientAddress
	contract.ServiceValue = t.ServiceValue
	contract.PaymentConditions = t.PaymentConditions
	contract.HasGuarantee = t.HasGuarantee
	contract.Requirements = t.Requirements
	contract.Materials = t.Materials
	contract.AdditionalNotes = t.AdditionalNotes
	contract.PDFContent = t.PDFContent
}

// Generate creates the single contract of a completed service request.
// Nothing is written unless every required term is present.
func (c *ContractController) Generate(
	ctx context.Context,
	request *GenerateContractRequest,
) (*Contract, error) {
	log := c.log.TraceFromContext(ctx).Function("Generate")

	request.normalize()
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	requestID := uuid.MustParse(request.ServiceRequestID)

	var contract *Contract
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		serviceRequest, err := c.requestRepo.GetByID(ctx, tx, requestID)
		if err != nil {
			return apperrors.FromDB(err, "Service request")
		}

		if serviceRequest.Status != RequestStatusCompleted {
			return apperrors.NewValidationError(
				"Service request must be completed before a contract is generated",
				"status is "+string(serviceRequest.Status),
			)
		}

		exists, err := c.contractRepo.ExistsForRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewConflictError("A contract already exists for this service request")
		}

		sequence, err := c.contractRepo.NextContractNumber(ctx, tx)
		if err != nil {
			return err
		}

		contract = &Contract{
			ServiceRequestID: requestID,
			ContractNumber:   FormatContractNumber(c.now().UTC().Year(), sequence),
			Status:           ContractStatusGenerated,
		}
		request.apply(contract)

		if err := c.contractRepo.Create(ctx, tx, contract); err != nil {
			return apperrors.FromDB(err, "Contract")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info(
		"Contract generated",
		"contractID", contract.ID,
		"contractNumber", contract.ContractNumber,
		"serviceRequestID", requestID,
	)
	events.Notify(c.events, log, events.CONTRACT_GENERATED, map[string]any{
		"contractId":       contract.ID,
		"contractNumber":   contract.ContractNumber,
		"serviceRequestId": requestID,
		"status":           contract.Status,
	})

	return contract, nil
}

// Get returns the contract with its request and signatures. Customers may
// only read contracts of their own requests.
func (c *ContractController) Get(
	ctx context.Context,
	principal *Principal,
	id uuid.UUID,
) (*Contract, error) {
	contract, err := c.contractRepo.GetDetail(ctx, c.db.SQL, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "Contract")
	}

	if !principal.IsStaff() && !contract.ServiceRequest.IsOwnedBy(principal) {
		return nil, apperrors.NewForbiddenError("You do not have access to this contract")
	}

	return contract, nil
}

// UpdateTerms edits the commercial terms until the first signature lands.
func (c *ContractController) UpdateTerms(
	ctx context.Context,
	id uuid.UUID,
	request *UpdateContractRequest,
) (*Contract, error) {
	log := c.log.TraceFromContext(ctx).Function("UpdateTerms")

	request.normalize()
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		contract, err := c.contractRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return apperrors.FromDB(err, "Contract")
		}

		if !contract.Status.AllowsTermEdit() {
			return apperrors.NewConflictError(
				"Contract terms can no longer be edited",
				"status is "+string(contract.Status),
			)
		}

		request.apply(contract)
		return apperrors.FromDB(c.contractRepo.UpdateTerms(ctx, tx, contract), "Contract")
	})
	if err != nil {
		return nil, err
	}

	c.clearCache(ctx, log, id)
	log.Info("Contract terms updated", "contractID", id)

	return c.detail(ctx, id)
}

// SetStatus applies the direct transitions that do not involve the
// signature ledger.
func (c *ContractController) SetStatus(
	ctx context.Context,
	id uuid.UUID,
	request *SetStatusRequest,
) (*Contract, error) {
	log := c.log.TraceFromContext(ctx).Function("SetStatus")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	if !request.Status.IsValid() {
		return nil, apperrors.NewValidationError("Invalid contract status", string(request.Status))
	}

	var previous ContractStatus
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		contract, err := c.contractRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return apperrors.FromDB(err, "Contract")
		}

		previous = contract.Status
		if !contract.Status.CanTransitionTo(request.Status) {
			return apperrors.NewValidationError(
				"Invalid status transition",
				string(contract.Status)+" -> "+string(request.Status),
			)
		}

		return apperrors.FromDB(
			c.contractRepo.UpdateStatus(ctx, tx, id, request.Status, nil),
			"Contract",
		)
	})
	if err != nil {
		return nil, err
	}

	c.clearCache(ctx, log, id)
	log.Info("Contract status changed", "contractID", id, "from", previous, "to", request.Status)
	events.Notify(c.events, log, events.CONTRACT_STATUS_CHANGED, map[string]any{
		"contractId": id,
		"from":       previous,
		"status":     request.Status,
	})

	return c.detail(ctx, id)
}

func (c *ContractController) Approve(ctx context.Context, id uuid.UUID) (*Contract, error) {
	return c.SetStatus(ctx, id, &SetStatusRequest{Status: ContractStatusApproved})
}

// Sign records one party's signature and re-derives the contract status from
// the full ledger, all inside one transaction holding the contract row lock.
// A second signature for the same role violates the ledger's unique index
// and rolls everything back. Only supervisors may choose the signer role.
func (c *ContractController) Sign(
	ctx context.Context,
	principal *Principal,
	id uuid.UUID,
	role SignerRole,
	request *SignContractRequest,
) (*Contract, error) {
	log := c.log.TraceFromContext(ctx).Function("Sign")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	if request.SignedBy != nil && principal.IsSupervisor() {
		role = *request.SignedBy
	}
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("Invalid signer role", string(role))
	}

	var signed *Contract
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		contract, err := c.contractRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return apperrors.FromDB(err, "Contract")
		}

		if !principal.IsStaff() {
			serviceRequest, err := c.requestRepo.GetByID(ctx, tx, contract.ServiceRequestID)
			if err != nil {
				return apperrors.FromDB(err, "Service request")
			}
			if !serviceRequest.IsOwnedBy(principal) {
				return apperrors.NewForbiddenError("You do not have access to this contract")
			}
		}

		signedAt := c.now().UTC()
		signature := &ContractSignature{
			ContractID:    contract.ID,
			SignedBy:      role,
			SignatureData: request.Signature,
			SignatureHash: utils.HashPayload(request.Signature),
			SignedAt:      signedAt,
		}
		if err := c.signatureRepo.Create(ctx, tx, signature); err != nil {
			if apperrors.IsConflict(err) {
				return apperrors.NewConflictError(
					"Contract already signed by this party",
					string(role),
				).Wrap(err)
			}
			return err
		}

		signatures, err := c.signatureRepo.ListByContract(ctx, tx, contract.ID)
		if err != nil {
			return err
		}

		status := DeriveContractStatus(SignerRoles(signatures))
		if err := c.contractRepo.UpdateStatus(ctx, tx, contract.ID, status, &signedAt); err != nil {
			return apperrors.FromDB(err, "Contract")
		}

		contract.Status = status
		contract.SignedAt = &signedAt
		contract.Signatures = signatures
		signed = contract
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.clearCache(ctx, log, id)
	log.Info("Contract signed", "contractID", id, "signedBy", role, "status", signed.Status)
	events.Notify(c.events, log, events.CONTRACT_SIGNED, map[string]any{
		"contractId":     id,
		"contractNumber": signed.ContractNumber,
		"signedBy":       role,
		"status":         signed.Status,
	})

	return signed, nil
}

func (c *ContractController) ListSignatures(
	ctx context.Context,
	principal *Principal,
	id uuid.UUID,
) ([]ContractSignature, error) {
	contract, err := c.contractRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "Contract")
	}

	if !principal.IsStaff() {
		serviceRequest, err := c.requestRepo.GetByID(ctx, c.db.SQL, contract.ServiceRequestID)
		if err != nil {
			return nil, apperrors.FromDB(err, "Service request")
		}
		if !serviceRequest.IsOwnedBy(principal) {
			return nil, apperrors.NewForbiddenError("You do not have access to this contract")
		}
	}

	return c.signatureRepo.ListByContract(ctx, c.db.SQL, id)
}

func (c *ContractController) ListSupervisory(ctx context.Context) ([]*Contract, error) {
	return c.contractRepo.ListWithRequest(ctx, c.db.SQL)
}

func (c *ContractController) ListForClient(
	ctx context.Context,
	principal *Principal,
) ([]*Contract, error) {
	return c.contractRepo.ListForPrincipal(ctx, c.db.SQL, principal)
}

func (c *ContractController) Export(ctx context.Context) (*bytes.Buffer, error) {
	contracts, err := c.contractRepo.ListWithRequest(ctx, c.db.SQL)
	if err != nil {
		return nil, err
	}
	return c.export.ContractsWorkbook(contracts)
}

func (c *ContractController) detail(ctx context.Context, id uuid.UUID) (*Contract, error) {
	contract, err := c.contractRepo.GetDetail(ctx, c.db.SQL, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "Contract")
	}
	return contract, nil
}

func (c *ContractController) clearCache(ctx context.Context, log logger.Logger, id uuid.UUID) {
	if err := c.contractRepo.ClearCache(ctx, id); err != nil {
		log.Warn("failed to clear contract cache", "contractID", id, "error", err)
	}
}
