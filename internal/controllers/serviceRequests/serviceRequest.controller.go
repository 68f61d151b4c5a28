package serviceRequestController

import (
	"context"

	"martinspocos/internal/apperrors"
	"martinspocos/internal/database"
	"martinspocos/internal/events"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"
	"martinspocos/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ServiceRequestController struct {
	requestRepo  repositories.ServiceRequestRepository
	contractRepo repositories.ContractRepository
	events       events.Publisher
	db           database.DB
	log          logger.Logger
}

type CreateServiceRequest struct {
	Name            string      `json:"name"            validate:"required,max=255"`
	Whatsapp        string      `json:"whatsapp"        validate:"required,min=10,max=13"`
	Email           *string     `json:"email"           validate:"omitempty,email"`
	CEP             string      `json:"cep"             validate:"required,len=8"`
	Street          string      `json:"street"          validate:"required,max=255"`
	Number          string      `json:"number"          validate:"required,max=20"`
	Neighborhood    string      `json:"neighborhood"    validate:"required,max=255"`
	City            string      `json:"city"            validate:"required,max=255"`
	State           string      `json:"state"           validate:"required,len=2,alpha"`
	TerrainType     TerrainType `json:"terrainType"     validate:"required,oneof=plano inclinado rochoso"`
	HasWaterNetwork bool        `json:"hasWaterNetwork"`
	Description     string      `json:"description"`
	PreferredDate   string      `json:"preferredDate"   validate:"required,datetime=2006-01-02"`
	PreferredTime   string      `json:"preferredTime"   validate:"required"`
}

// ListQuery carries the staff listing filters. Dates apply only as a pair.
type ListQuery struct {
	Status    string `query:"status"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

type UpdateStatusRequest struct {
	Status ServiceRequestStatus `json:"status" validate:"required"`
}

type RescheduleRequest struct {
	PreferredDate string `json:"preferredDate" validate:"required,datetime=2006-01-02"`
	PreferredTime string `json:"preferredTime" validate:"required"`
}

type ServiceRequestControllerInterface interface {
	Create(
		ctx context.Context,
		principal *Principal,
		request *CreateServiceRequest,
	) (*ServiceRequest, error)
	ListForUser(ctx context.Context, principal *Principal) ([]*ServiceRequest, error)
	List(ctx context.Context, query ListQuery) ([]*ServiceRequest, error)
	UpdateStatus(
		ctx context.Context,
		id uuid.UUID,
		request *UpdateStatusRequest,
	) (*ServiceRequest, error)
	Reschedule(ctx context.Context, id uuid.UUID, request *RescheduleRequest) (*ServiceRequest, error)
	ListToGenerate(ctx context.Context, query ListQuery) ([]*ServiceRequest, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Publisher,
	db database.DB,
) ServiceRequestControllerInterface {
	return &ServiceRequestController{
		requestRepo:  repos.ServiceRequest,
		contractRepo: repos.Contract,
		events:       eventBus,
		db:           db,
		log:          logger.New("serviceRequestController"),
	}
}

func (r *CreateServiceRequest) normalize() {
	r.Name = utils.TitleCase(r.Name)
	r.Whatsapp = utils.DigitsOnly(r.Whatsapp)
	if r.Email != nil && *r.Email == "" {
		r.Email = nil
	}
	r.CEP = utils.DigitsOnly(r.CEP)
	r.Street = utils.SanitizeText(r.Street)
	r.Number = utils.SanitizeText(r.Number)
	r.Neighborhood = utils.SanitizeText(r.Neighborhood)
	r.City = utils.TitleCase(r.City)
	r.State = utils.NormalizeState(r.State)
	r.Description = utils.SanitizeText(r.Description)
}

func parseSchedule(date, timeOfDay string) (datatypes.Date, datatypes.Time, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return datatypes.Date{}, 0, apperrors.NewValidationError("Invalid preferred date", err.Error())
	}
	hour, minute, second, err := utils.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return datatypes.Date{}, 0, apperrors.NewValidationError("Invalid preferred time", err.Error())
	}
	return datatypes.Date(day), datatypes.NewTime(hour, minute, second, 0), nil
}

// Create stores a request from the public form. A logged-in customer becomes
// its owner; anyone else submits anonymously.
func (c *ServiceRequestController) Create(
	ctx context.Context,
	principal *Principal,
	request *CreateServiceRequest,
) (*ServiceRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	request.normalize()
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	date, timeOfDay, err := parseSchedule(request.PreferredDate, request.PreferredTime)
	if err != nil {
		return nil, err
	}

	serviceRequest := &ServiceRequest{
		Name:            request.Name,
		Whatsapp:        request.Whatsapp,
		Email:           request.Email,
		CEP:             request.CEP,
		Street:          request.Street,
		Number:          request.Number,
		Neighborhood:    request.Neighborhood,
		City:            request.City,
		State:           request.State,
		TerrainType:     request.TerrainType,
		HasWaterNetwork: request.HasWaterNetwork,
		Description:     request.Description,
		PreferredDate:   date,
		PreferredTime:   timeOfDay,
		Status:          RequestStatusPending,
	}
	if principal != nil && principal.Role == RoleUser {
		userID := principal.ID
		serviceRequest.UserID = &userID
	}

	if err := c.requestRepo.Create(ctx, c.db.SQL, serviceRequest); err != nil {
		return nil, err
	}

	log.Info("Service request created", "requestID", serviceRequest.ID, "attributed", serviceRequest.UserID != nil)
	events.Notify(c.events, log, events.REQUEST_CREATED, map[string]any{
		"requestId": serviceRequest.ID,
		"name":      serviceRequest.Name,
		"city":      serviceRequest.City,
		"status":    serviceRequest.Status,
	})

	return serviceRequest, nil
}

func (c *ServiceRequestController) ListForUser(
	ctx context.Context,
	principal *Principal,
) ([]*ServiceRequest, error) {
	return c.requestRepo.ListForUser(ctx, c.db.SQL, principal)
}

func (c *ServiceRequestController) List(
	ctx context.Context,
	query ListQuery,
) ([]*ServiceRequest, error) {
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	return c.requestRepo.List(ctx, c.db.SQL, filter)
}

func (c *ServiceRequestController) ListToGenerate(
	ctx context.Context,
	query ListQuery,
) ([]*ServiceRequest, error) {
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	return c.requestRepo.ListCompletedWithContracts(ctx, c.db.SQL, filter)
}

func (q ListQuery) filter() (repositories.ServiceRequestFilter, error) {
	var filter repositories.ServiceRequestFilter

	if q.Status != "" {
		status := ServiceRequestStatus(q.Status)
		if !status.IsValid() {
			return filter, apperrors.NewValidationError("Invalid status", q.Status)
		}
		filter.Status = &status
	}

	from, to, err := utils.ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		return filter, apperrors.NewValidationError("Invalid date range", err.Error())
	}
	filter.From, filter.To = from, to

	return filter, nil
}

func (c *ServiceRequestController) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	request *UpdateStatusRequest,
) (*ServiceRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("UpdateStatus")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}
	if !request.Status.IsValid() {
		return nil, apperrors.NewValidationError("Invalid status", string(request.Status))
	}

	if err := c.requestRepo.UpdateStatus(ctx, c.db.SQL, id, request.Status); err != nil {
		return nil, apperrors.FromDB(err, "Service request")
	}

	log.Info("Service request status updated", "requestID", id, "status", request.Status)
	return c.updated(ctx, log, id)
}

// Reschedule moves the visit and marks the request remarcado.
func (c *ServiceRequestController) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	request *RescheduleRequest,
) (*ServiceRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("Reschedule")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	date, timeOfDay, err := parseSchedule(request.PreferredDate, request.PreferredTime)
	if err != nil {
		return nil, err
	}

	if err := c.requestRepo.Reschedule(ctx, c.db.SQL, id, date, timeOfDay); err != nil {
		return nil, apperrors.FromDB(err, "Service request")
	}

	log.Info("Service request rescheduled", "requestID", id, "date", request.PreferredDate)
	return c.updated(ctx, log, id)
}

func (c *ServiceRequestController) updated(
	ctx context.Context,
	log logger.Logger,
	id uuid.UUID,
) (*ServiceRequest, error) {
	if err := c.contractRepo.ClearCacheForRequest(ctx, c.db.SQL, id); err != nil {
		log.Warn("failed to clear contract cache", "requestID", id, "error", err)
	}

	serviceRequest, err := c.requestRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "Service request")
	}

	events.Notify(c.events, log, events.REQUEST_UPDATED, map[string]any{
		"requestId":     serviceRequest.ID,
		"status":        serviceRequest.Status,
		"preferredDate": serviceRequest.PreferredDate,
	})

	return serviceRequest, nil
}
