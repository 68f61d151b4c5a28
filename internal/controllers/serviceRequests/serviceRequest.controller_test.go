package serviceRequestController

import (
	"context"
	"errors"
	"testing"
	"time"

	"martinspocos/internal/apperrors"
	"martinspocos/internal/events"
	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/testutil"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type testDeps struct {
	requests  *testutil.MockServiceRequestRepository
	contracts *testutil.MockContractRepository
	publisher *testutil.MockPublisher
}

func newTestController() (*ServiceRequestController, *testDeps) {
	deps := &testDeps{
		requests:  new(testutil.MockServiceRequestRepository),
		contracts: new(testutil.MockContractRepository),
		publisher: new(testutil.MockPublisher),
	}
	return &ServiceRequestController{
		requestRepo:  deps.requests,
		contractRepo: deps.contracts,
		events:       deps.publisher,
		log:          logger.New("serviceRequestControllerTest"),
	}, deps
}

func validRequest() *CreateServiceRequest {
	return &CreateServiceRequest{
		Name:          "  joão   da silva ",
		Whatsapp:      "(35) 99999-8888",
		CEP:           "37701-000",
		Street:        "Rua Assis Figueiredo",
		Number:        "100",
		Neighborhood:  "Centro",
		City:          "poços de caldas",
		State:         "mg",
		TerrainType:   TerrainSloped,
		Description:   "<script>alert(1)</script>Poço para irrigação",
		PreferredDate: "2026-04-15",
		PreferredTime: "08:30",
	}
}

func TestCreate_Normalizes(t *testing.T) {
	controller, deps := newTestController()

	deps.requests.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.ServiceRequest")).
		Return(nil)
	deps.publisher.On("Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.REQUEST_CREATED)).
		Return(nil)

	created, err := controller.Create(context.Background(), nil, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "João Da Silva", created.Name)
	assert.Equal(t, "35999998888", created.Whatsapp)
	assert.Equal(t, "37701000", created.CEP)
	assert.Equal(t, "Poços De Caldas", created.City)
	assert.Equal(t, "MG", created.State)
	assert.Equal(t, "Poço para irrigação", created.Description)
	assert.Equal(t, RequestStatusPending, created.Status)
	assert.Nil(t, created.UserID)
	assert.Equal(t, datatypes.NewTime(8, 30, 0, 0), created.PreferredTime)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), time.Time(created.PreferredDate))

	deps.requests.AssertExpectations(t)
	deps.publisher.AssertExpectations(t)
}

func TestCreate_EncodedMarkupIsStripped(t *testing.T) {
	controller, deps := newTestController()

	deps.requests.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.ServiceRequest")).
		Return(nil)
	deps.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	request := validRequest()
	request.Street = "&lt;img src=x onerror=alert(1)&gt;Rua Assis"
	request.Description = "&lt;script&gt;alert(1)&lt;/script&gt;Poço"

	created, err := controller.Create(context.Background(), nil, request)
	require.NoError(t, err)
	assert.Equal(t, "Rua Assis", created.Street)
	assert.Equal(t, "Poço", created.Description)
}

func TestCreate_AttributesOnlyCustomers(t *testing.T) {
	customer := &Principal{ID: uuid.New(), Whatsapp: "35999998888", Role: RoleUser}
	staff := &Principal{ID: uuid.New(), Role: RoleSales}

	tests := []struct {
		name      string
		principal *Principal
		wantOwner *uuid.UUID
	}{
		{"customer owns the request", customer, &customer.ID},
		{"staff submits anonymously", staff, nil},
		{"anonymous form", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, deps := newTestController()
			deps.requests.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.ServiceRequest")).
				Return(nil)
			deps.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

			created, err := controller.Create(context.Background(), tt.principal, validRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, created.UserID)
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateServiceRequest)
	}{
		{"short whatsapp", func(r *CreateServiceRequest) { r.Whatsapp = "9999" }},
		{"short cep", func(r *CreateServiceRequest) { r.CEP = "3770" }},
		{"state too long", func(r *CreateServiceRequest) { r.State = "MGS" }},
		{"unknown terrain", func(r *CreateServiceRequest) { r.TerrainType = "arenoso" }},
		{"bad date", func(r *CreateServiceRequest) { r.PreferredDate = "15/04/2026" }},
		{"bad time", func(r *CreateServiceRequest) { r.PreferredTime = "8h" }},
		{"missing street", func(r *CreateServiceRequest) { r.Street = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, deps := newTestController()
			request := validRequest()
			tt.mutate(request)

			_, err := controller.Create(context.Background(), nil, request)
			assert.True(t, apperrors.IsValidation(err), "%v", err)
			deps.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	controller, deps := newTestController()
	deps.requests.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	_, err := controller.Create(context.Background(), nil, validRequest())
	assert.Error(t, err)
	deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestListForUser(t *testing.T) {
	controller, deps := newTestController()
	customer := &Principal{ID: uuid.New(), Whatsapp: "35999998888", Role: RoleUser}
	mine := []*ServiceRequest{{Name: "A"}, {Name: "B"}}

	deps.requests.On("ListForUser", mock.Anything, mock.Anything, customer).Return(mine, nil)

	requests, err := controller.ListForUser(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, mine, requests)
}

func TestList_Filters(t *testing.T) {
	day := func(s string) time.Time {
		parsed, _ := time.Parse("2006-01-02", s)
		return parsed
	}

	tests := []struct {
		name       string
		query      ListQuery
		wantStatus *ServiceRequestStatus
		wantFrom   *time.Time
	}{
		{name: "no filter", query: ListQuery{}},
		{
			name:       "status",
			query:      ListQuery{Status: "concluido"},
			wantStatus: ptr(RequestStatusCompleted),
		},
		{
			name:     "date range",
			query:    ListQuery{StartDate: "2026-04-01", EndDate: "2026-04-30"},
			wantFrom: ptr(day("2026-04-01")),
		},
		{name: "lone bound ignored", query: ListQuery{StartDate: "2026-05-01"}},
		{
			name:       "status and range",
			query:      ListQuery{Status: "concluido", StartDate: "2026-04-01", EndDate: "2026-04-30"},
			wantStatus: ptr(RequestStatusCompleted),
			wantFrom:   ptr(day("2026-04-01")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, deps := newTestController()

			var got repositories.ServiceRequestFilter
			deps.requests.On("List", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					got = args.Get(2).(repositories.ServiceRequestFilter)
				}).
				Return([]*ServiceRequest{}, nil)

			_, err := controller.List(context.Background(), tt.query)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantFrom == nil {
				assert.Nil(t, got.From)
				assert.Nil(t, got.To)
				return
			}
			require.NotNil(t, got.From)
			require.NotNil(t, got.To)
			assert.True(t, tt.wantFrom.Equal(*got.From))
		})
	}
}

func TestList_RejectsBadFilters(t *testing.T) {
	controller, deps := newTestController()

	_, err := controller.List(context.Background(), ListQuery{Status: "finished"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = controller.List(context.Background(), ListQuery{StartDate: "2026-05-01", EndDate: "2026-04-01"})
	assert.True(t, apperrors.IsValidation(err))

	deps.requests.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestListToGenerate(t *testing.T) {
	controller, deps := newTestController()
	status := RequestStatusPending

	deps.requests.On("ListCompletedWithContracts", mock.Anything, mock.Anything,
		repositories.ServiceRequestFilter{Status: &status}).
		Return([]*ServiceRequest{{Name: "A", Status: RequestStatusCompleted}}, nil)

	requests, err := controller.ListToGenerate(context.Background(), ListQuery{Status: "pendente"})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	deps.requests.AssertExpectations(t)
}

func TestUpdateStatus(t *testing.T) {
	id := uuid.New()

	t.Run("updates and clears the contract detail cache", func(t *testing.T) {
		controller, deps := newTestController()
		deps.requests.On("UpdateStatus", mock.Anything, mock.Anything, id, RequestStatusConfirmed).Return(nil)
		deps.contracts.On("ClearCacheForRequest", mock.Anything, mock.Anything, id).Return(nil)
		deps.requests.On("GetByID", mock.Anything, mock.Anything, id).
			Return(&ServiceRequest{Name: "A", Status: RequestStatusConfirmed}, nil)
		deps.publisher.On("Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.REQUEST_UPDATED)).
			Return(nil)

		updated, err := controller.UpdateStatus(context.Background(), id, &UpdateStatusRequest{
			Status: RequestStatusConfirmed,
		})
		require.NoError(t, err)
		assert.Equal(t, RequestStatusConfirmed, updated.Status)

		deps.requests.AssertExpectations(t)
		deps.contracts.AssertExpectations(t)
		deps.publisher.AssertExpectations(t)
	})

	t.Run("cache failure does not fail the update", func(t *testing.T) {
		controller, deps := newTestController()
		deps.requests.On("UpdateStatus", mock.Anything, mock.Anything, id, RequestStatusCancelled).Return(nil)
		deps.contracts.On("ClearCacheForRequest", mock.Anything, mock.Anything, id).
			Return(errors.New("valkey down"))
		deps.requests.On("GetByID", mock.Anything, mock.Anything, id).
			Return(&ServiceRequest{Status: RequestStatusCancelled}, nil)
		deps.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		_, err := controller.UpdateStatus(context.Background(), id, &UpdateStatusRequest{
			Status: RequestStatusCancelled,
		})
		assert.NoError(t, err)
	})

	t.Run("unknown status", func(t *testing.T) {
		controller, deps := newTestController()

		_, err := controller.UpdateStatus(context.Background(), id, &UpdateStatusRequest{Status: "done"})
		assert.True(t, apperrors.IsValidation(err))
		deps.requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing request", func(t *testing.T) {
		controller, deps := newTestController()
		deps.requests.On("UpdateStatus", mock.Anything, mock.Anything, id, RequestStatusCancelled).
			Return(gorm.ErrRecordNotFound)

		_, err := controller.UpdateStatus(context.Background(), id, &UpdateStatusRequest{
			Status: RequestStatusCancelled,
		})
		assert.True(t, apperrors.IsNotFound(err))
		deps.contracts.AssertNotCalled(t, "ClearCacheForRequest", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReschedule(t *testing.T) {
	id := uuid.New()
	date := datatypes.Date(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	afternoon := datatypes.NewTime(14, 0, 0, 0)

	controller, deps := newTestController()
	deps.requests.On("Reschedule", mock.Anything, mock.Anything, id, date, afternoon).Return(nil)
	deps.contracts.On("ClearCacheForRequest", mock.Anything, mock.Anything, id).Return(nil)
	deps.requests.On("GetByID", mock.Anything, mock.Anything, id).Return(&ServiceRequest{
		Status:        RequestStatusRescheduled,
		PreferredDate: date,
		PreferredTime: afternoon,
	}, nil)
	deps.publisher.On("Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.REQUEST_UPDATED)).
		Return(nil)

	rescheduled, err := controller.Reschedule(context.Background(), id, &RescheduleRequest{
		PreferredDate: "2026-06-01",
		PreferredTime: "14:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, RequestStatusRescheduled, rescheduled.Status)
	assert.Equal(t, afternoon, rescheduled.PreferredTime)

	_, err = controller.Reschedule(context.Background(), id, &RescheduleRequest{
		PreferredDate: "2026-06-01",
		PreferredTime: "25:00",
	})
	assert.True(t, apperrors.IsValidation(err))

	deps.requests.AssertNumberOfCalls(t, "Reschedule", 1)
	deps.contracts.AssertExpectations(t)
	deps.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func ptr[T any](v T) *T { return &v }
