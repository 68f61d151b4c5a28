package repositories

import (
	"context"
	"errors"
	"time"

	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceRequestFilter narrows staff listings. Dates bound preferred_date
// inclusively; nil fields are ignored.
type ServiceRequestFilter struct {
	Status *ServiceRequestStatus
	From   *time.Time
	To     *time.Time
}

type ServiceRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *ServiceRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ServiceRequest, error)
	List(
		ctx context.Context,
		tx *gorm.DB,
		filter ServiceRequestFilter,
	) ([]*ServiceRequest, error)
	ListForUser(ctx context.Context, tx *gorm.DB, principal *Principal) ([]*ServiceRequest, error)
	UpdateStatus(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		status ServiceRequestStatus,
	) error
	Reschedule(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		date datatypes.Date,
		timeOfDay datatypes.Time,
	) error
	ListCompletedWithContracts(
		ctx context.Context,
		tx *gorm.DB,
		filter ServiceRequestFilter,
	) ([]*ServiceRequest, error)
}

type serviceRequestRepository struct {
	log logger.Logger
}

func NewServiceRequestRepository() ServiceRequestRepository {
	return &serviceRequestRepository{
		log: logger.New("serviceRequestRepository"),
	}
}

func (r *serviceRequestRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	request *ServiceRequest,
) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if err := tx.WithContext(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create service request", err, "whatsapp", request.Whatsapp)
	}

	return nil
}

func (r *serviceRequestRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*ServiceRequest, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByID")

	var request ServiceRequest
	if err := tx.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get service request", err, "id", id)
	}

	return &request, nil
}

func (r *serviceRequestRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	filter ServiceRequestFilter,
) ([]*ServiceRequest, error) {
	log := r.log.TraceFromContext(ctx).Function("List")

	var requests []*ServiceRequest
	if err := applyRequestFilter(tx.WithContext(ctx), filter).
		Order("submitted_at DESC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list service requests", err)
	}

	return requests, nil
}

func (r *serviceRequestRepository) ListForUser(
	ctx context.Context,
	tx *gorm.DB,
	principal *Principal,
) ([]*ServiceRequest, error) {
	log := r.log.TraceFromContext(ctx).Function("ListForUser")

	var requests []*ServiceRequest
	if err := tx.WithContext(ctx).
		Preload("Contract", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "service_request_id", "contract_number", "status")
		}).
		Where("user_id = ? OR whatsapp = ?", principal.ID, principal.Whatsapp).
		Order("submitted_at DESC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list service requests for user", err, "userID", principal.ID)
	}

	return requests, nil
}

func (r *serviceRequestRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status ServiceRequestStatus,
) error {
	log := r.log.TraceFromContext(ctx).Function("UpdateStatus")

	result := tx.WithContext(ctx).
		Model(&ServiceRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return log.Err("failed to update service request status", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *serviceRequestRepository) Reschedule(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	date datatypes.Date,
	timeOfDay datatypes.Time,
) error {
	log := r.log.TraceFromContext(ctx).Function("Reschedule")

	result := tx.WithContext(ctx).
		Model(&ServiceRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"preferred_date": date,
			"preferred_time": timeOfDay,
			"status":         RequestStatusRescheduled,
		})
	if result.Error != nil {
		return log.Err("failed to reschedule service request", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *serviceRequestRepository) ListCompletedWithContracts(
	ctx context.Context,
	tx *gorm.DB,
	filter ServiceRequestFilter,
) ([]*ServiceRequest, error) {
	log := r.log.TraceFromContext(ctx).Function("ListCompletedWithContracts")

	completed := RequestStatusCompleted
	filter.Status = &completed

	var requests []*ServiceRequest
	if err := applyRequestFilter(tx.WithContext(ctx), filter).
		Preload("Contract", func(db *gorm.DB) *gorm.DB {
			return db.Select(
				"id",
				"service_request_id",
				"contract_number",
				"status",
				"pdf_content",
			)
		}).
		Order("preferred_date DESC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list completed service requests", err)
	}

	return requests, nil
}

func applyRequestFilter(query *gorm.DB, filter ServiceRequestFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("preferred_date >= ?", filter.From.Format(time.DateOnly))
	}
	if filter.To != nil {
		query = query.Where("preferred_date <= ?", filter.To.Format(time.DateOnly))
	}
	return query
}
