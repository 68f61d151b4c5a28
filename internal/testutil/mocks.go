package testutil

import (
	"context"
	"time"

	"martinspocos/internal/events"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	_ repositories.ContractRepository       = (*MockContractRepository)(nil)
	_ repositories.ServiceRequestRepository = (*MockServiceRequestRepository)(nil)
	_ repositories.UserRepository           = (*MockUserRepository)(nil)
	_ events.Publisher                      = (*MockPublisher)(nil)
)

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) Create(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	args := m.Called(ctx, tx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Contract), args.Error(1)
}

func (m *MockContractRepository) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Contract, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Contract), args.Error(1)
}

func (m *MockContractRepository) GetDetail(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Contract), args.Error(1)
}

func (m *MockContractRepository) ExistsForRequest(
	ctx context.Context,
	tx *gorm.DB,
	requestID uuid.UUID,
) (bool, error) {
	args := m.Called(ctx, tx, requestID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractRepository) NextContractNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContractRepository) UpdateTerms(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	args := m.Called(ctx, tx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status ContractStatus,
	signedAt *time.Time,
) error {
	args := m.Called(ctx, tx, id, status, signedAt)
	return args.Error(0)
}

func (m *MockContractRepository) ListWithRequest(ctx context.Context, tx *gorm.DB) ([]*Contract, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Contract), args.Error(1)
}

func (m *MockContractRepository) ListForPrincipal(
	ctx context.Context,
	tx *gorm.DB,
	principal *Principal,
) ([]*Contract, error) {
	args := m.Called(ctx, tx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Contract), args.Error(1)
}

func (m *MockContractRepository) ListAwaitingSignature(
	ctx context.Context,
	tx *gorm.DB,
	updatedBefore time.Time,
) ([]*Contract, error) {
	args := m.Called(ctx, tx, updatedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Contract), args.Error(1)
}

func (m *MockContractRepository) ClearCache(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContractRepository) ClearCacheForRequest(
	ctx context.Context,
	tx *gorm.DB,
	requestID uuid.UUID,
) error {
	args := m.Called(ctx, tx, requestID)
	return args.Error(0)
}

type MockServiceRequestRepository struct {
	mock.Mock
}

func (m *MockServiceRequestRepository) Create(ctx context.Context, tx *gorm.DB, request *ServiceRequest) error {
	args := m.Called(ctx, tx, request)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*ServiceRequest, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	filter repositories.ServiceRequestFilter,
) ([]*ServiceRequest, error) {
	args := m.Called(ctx, tx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) ListForUser(
	ctx context.Context,
	tx *gorm.DB,
	principal *Principal,
) ([]*ServiceRequest, error) {
	args := m.Called(ctx, tx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status ServiceRequestStatus,
) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) Reschedule(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	date datatypes.Date,
	timeOfDay datatypes.Time,
) error {
	args := m.Called(ctx, tx, id, date, timeOfDay)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) ListCompletedWithContracts(
	ctx context.Context,
	tx *gorm.DB,
	filter repositories.ServiceRequestFilter,
) ([]*ServiceRequest, error) {
	args := m.Called(ctx, tx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ServiceRequest), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) GetByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (*User, error) {
	args := m.Called(ctx, tx, whatsapp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) ExistsByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (bool, error) {
	args := m.Called(ctx, tx, whatsapp)
	return args.Bool(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(channel events.Channel, event events.Event) error {
	args := m.Called(channel, event)
	return args.Error(0)
}

// EventOfType matches a published event by its message type.
func EventOfType(eventType events.MessageType) any {
	return mock.MatchedBy(func(event events.Event) bool {
		return event.Type == eventType
	})
}
