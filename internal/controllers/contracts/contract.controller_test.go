package contractController

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"martinspocos/internal/apperrors"
	"martinspocos/internal/events"
	. "martinspocos/internal/models"
	"martinspocos/internal/services"
	"martinspocos/internal/testutil"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const signaturePayload = "data:image/png;base64,iVBORw0KGgo="

type fixture struct {
	controller *ContractController
	store      *testutil.Store
	publisher  *testutil.MockPublisher
	supervisor *Principal
	client     *Principal
	request    ServiceRequest
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewStore()
	repos := store.Repository()
	publisher := new(testutil.MockPublisher)
	publisher.On("Publish", events.LIFECYCLE_CHANNEL, mock.Anything).Return(nil)

	user := store.AddUser(User{Name: "João", Whatsapp: "35999998888"})
	request := store.AddRequest(ServiceRequest{
		UserID:   &user.ID,
		Name:     "João",
		Whatsapp: user.Whatsapp,
		City:     "Poços de Caldas",
		Status:   RequestStatusCompleted,
	})

	return &fixture{
		controller: &ContractController{
			contractRepo:  repos.Contract,
			signatureRepo: repos.ContractSignature,
			requestRepo:   repos.ServiceRequest,
			transaction:   store.Transactor(),
			export:        services.NewExportService(),
			events:        publisher,
			now:           func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) },
			log:           logger.New("contractControllerTest"),
		},
		store:      store,
		publisher:  publisher,
		supervisor: &Principal{ID: uuid.New(), Name: "Ana", Role: RoleSupervisor},
		client:     user.ToPrincipal(),
		request:    request,
	}
}

func (f *fixture) contract(status ContractStatus) Contract {
	return f.store.AddContract(Contract{
		ServiceRequestID:  f.request.ID,
		ClientName:        "João",
		ClientDocument:    "12345678900",
		ClientAddress:     "Rua A, 1",
		ServiceValue:      decimal.NewFromInt(15000),
		PaymentConditions: "50% na assinatura",
		ContractNumber:    "CTR-20260001",
		Status:            status,
	})
}

func terms() ContractTerms {
	return ContractTerms{
		ClientName:        "João da Silva",
		ClientDocument:    "123.456.789-00",
		ClientAddress:     "Rua das Flores, 10",
		ServiceValue:      decimal.RequireFromString("15000.505"),
		PaymentConditions: "50% na assinatura, 50% na entrega",
		HasGuarantee:      true,
	}
}

func (f *fixture) sign(principal *Principal, id uuid.UUID, role SignerRole) (*Contract, error) {
	return f.controller.Sign(
		context.Background(),
		principal,
		id,
		role,
		&SignContractRequest{Signature: signaturePayload},
	)
}

func TestSign_BothOrdersEndCompleted(t *testing.T) {
	tests := []struct {
		name  string
		order []SignerRole
		first ContractStatus
	}{
		{
			name:  "supervisor then client",
			order: []SignerRole{SignerSupervisor, SignerClient},
			first: ContractStatusSignedSupervisor,
		},
		{
			name:  "client then supervisor",
			order: []SignerRole{SignerClient, SignerSupervisor},
			first: ContractStatusSignedClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			contract := f.contract(ContractStatusApproved)

			principals := map[SignerRole]*Principal{
				SignerSupervisor: f.supervisor,
				SignerClient:     f.client,
			}

			result, err := f.sign(principals[tt.order[0]], contract.ID, tt.order[0])
			require.NoError(t, err)
			assert.Equal(t, tt.first, result.Status)
			assert.Len(t, result.Signatures, 1)

			stored, _ := f.store.Contract(contract.ID)
			assert.Equal(t, DeriveContractStatus(SignerRoles(f.store.Signatures(contract.ID))), stored.Status)

			result, err = f.sign(principals[tt.order[1]], contract.ID, tt.order[1])
			require.NoError(t, err)
			assert.Equal(t, ContractStatusCompleted, result.Status)
			assert.Len(t, result.Signatures, 2)

			stored, _ = f.store.Contract(contract.ID)
			assert.Equal(t, ContractStatusCompleted, stored.Status)
			assert.NotNil(t, stored.SignedAt)
		})
	}
}

func TestSign_FullScenarioRejectsRepeatSignature(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)

	result, err := f.sign(f.supervisor, contract.ID, SignerSupervisor)
	require.NoError(t, err)
	assert.Equal(t, ContractStatusSignedSupervisor, result.Status)

	result, err = f.sign(f.client, contract.ID, SignerClient)
	require.NoError(t, err)
	assert.Equal(t, ContractStatusCompleted, result.Status)

	_, err = f.sign(f.supervisor, contract.ID, SignerSupervisor)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 409, apperrors.StatusCode(err))

	stored, _ := f.store.Contract(contract.ID)
	assert.Equal(t, ContractStatusCompleted, stored.Status)
	assert.Len(t, f.store.Signatures(contract.ID), 2)
}

func TestSign_DuplicateLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)

	_, err := f.sign(f.client, contract.ID, SignerClient)
	require.NoError(t, err)
	before, _ := f.store.Contract(contract.ID)

	_, err = f.sign(f.client, contract.ID, SignerClient)
	assert.True(t, apperrors.IsConflict(err))

	after, _ := f.store.Contract(contract.ID)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.SignedAt, after.SignedAt)
	assert.Len(t, f.store.Signatures(contract.ID), 1)
}

func TestSign_StatusWriteFailureRollsBackSignature(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)
	f.store.FailContractStatusUpdate = errors.New("connection reset")

	_, err := f.sign(f.supervisor, contract.ID, SignerSupervisor)
	require.Error(t, err)

	assert.Empty(t, f.store.Signatures(contract.ID))
	stored, _ := f.store.Contract(contract.ID)
	assert.Equal(t, ContractStatusApproved, stored.Status)
	assert.Nil(t, stored.SignedAt)
	f.publisher.AssertNotCalled(t, "Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.CONTRACT_SIGNED))

	// the same party can sign once the store recovers
	result, err := f.sign(f.supervisor, contract.ID, SignerSupervisor)
	require.NoError(t, err)
	assert.Equal(t, ContractStatusSignedSupervisor, result.Status)
}

func TestSign_ConcurrentPartiesBothLand(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, role := range []SignerRole{SignerSupervisor, SignerClient} {
		wg.Add(1)
		go func(i int, role SignerRole) {
			defer wg.Done()
			principal := f.supervisor
			if role == SignerClient {
				principal = f.client
			}
			_, errs[i] = f.sign(principal, contract.ID, role)
		}(i, role)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	stored, _ := f.store.Contract(contract.ID)
	assert.Equal(t, ContractStatusCompleted, stored.Status)
}

func TestSign_Access(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)
	stranger := &Principal{ID: uuid.New(), Whatsapp: "11988887777", Role: RoleUser}

	_, err := f.sign(stranger, contract.ID, SignerClient)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	assert.Empty(t, f.store.Signatures(contract.ID))

	_, err = f.sign(f.supervisor, uuid.New(), SignerSupervisor)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSign_SignerRoleSelection(t *testing.T) {
	supervisorRole := SignerSupervisor
	clientRole := SignerClient

	t.Run("client cannot sign as supervisor", func(t *testing.T) {
		f := newFixture(t)
		contract := f.contract(ContractStatusApproved)

		result, err := f.controller.Sign(context.Background(), f.client, contract.ID, SignerClient,
			&SignContractRequest{Signature: signaturePayload, SignedBy: &supervisorRole})
		require.NoError(t, err)
		assert.Equal(t, SignerClient, result.Signatures[0].SignedBy)
	})

	t.Run("supervisor may record the client signature", func(t *testing.T) {
		f := newFixture(t)
		contract := f.contract(ContractStatusApproved)

		result, err := f.controller.Sign(context.Background(), f.supervisor, contract.ID, SignerSupervisor,
			&SignContractRequest{Signature: signaturePayload, SignedBy: &clientRole})
		require.NoError(t, err)
		assert.Equal(t, SignerClient, result.Signatures[0].SignedBy)
		assert.Equal(t, ContractStatusSignedClient, result.Status)
	})
}

func TestSign_RejectsBadPayload(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)

	for _, payload := range []string{"", "iVBORw0KGgo="} {
		_, err := f.controller.Sign(context.Background(), f.supervisor, contract.ID, SignerSupervisor,
			&SignContractRequest{Signature: payload})
		assert.True(t, apperrors.IsValidation(err), payload)
	}
	assert.Empty(t, f.store.Signatures(contract.ID))
}

func TestSign_StoresPayloadHash(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)

	_, err := f.sign(f.supervisor, contract.ID, SignerSupervisor)
	require.NoError(t, err)

	signatures := f.store.Signatures(contract.ID)
	require.Len(t, signatures, 1)
	assert.Len(t, signatures[0].SignatureHash, 64)
	assert.Equal(t, signaturePayload, signatures[0].SignatureData)
	f.publisher.AssertCalled(t, "Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.CONTRACT_SIGNED))
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)

	contract, err := f.controller.Generate(context.Background(), &GenerateContractRequest{
		ServiceRequestID: f.request.ID.String(),
		ContractTerms:    terms(),
	})
	require.NoError(t, err)

	assert.Equal(t, "CTR-20260001", contract.ContractNumber)
	assert.Equal(t, ContractStatusGenerated, contract.Status)
	assert.Equal(t, "15000.51", contract.ServiceValue.StringFixed(2))
	f.publisher.AssertCalled(t, "Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.CONTRACT_GENERATED))

	_, err = f.controller.Generate(context.Background(), &GenerateContractRequest{
		ServiceRequestID: f.request.ID.String(),
		ContractTerms:    terms(),
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestGenerate_Rejections(t *testing.T) {
	f := newFixture(t)
	pending := f.store.AddRequest(ServiceRequest{Name: "Ana", Status: RequestStatusPending})

	missingName := terms()
	missingName.ClientName = "  "
	zeroValue := terms()
	zeroValue.ServiceValue = decimal.Zero

	tests := []struct {
		name      string
		requestID string
		terms     ContractTerms
		check     func(error) bool
	}{
		{"request not completed", pending.ID.String(), terms(), apperrors.IsValidation},
		{"request missing", uuid.NewString(), terms(), apperrors.IsNotFound},
		{"bad request id", "abc", terms(), apperrors.IsValidation},
		{"client name required", f.request.ID.String(), missingName, apperrors.IsValidation},
		{"value must be positive", f.request.ID.String(), zeroValue, apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.Generate(context.Background(), &GenerateContractRequest{
				ServiceRequestID: tt.requestID,
				ContractTerms:    tt.terms,
			})
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}

	contracts, err := f.controller.ListSupervisory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestGenerate_ConcurrentNumbersAreDistinct(t *testing.T) {
	f := newFixture(t)

	const n = 25
	requests := make([]ServiceRequest, n)
	for i := range requests {
		requests[i] = f.store.AddRequest(ServiceRequest{
			Name:   fmt.Sprintf("Cliente %d", i),
			Status: RequestStatusCompleted,
		})
	}

	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contract, err := f.controller.Generate(context.Background(), &GenerateContractRequest{
				ServiceRequestID: requests[i].ID.String(),
				ContractTerms:    terms(),
			})
			errs[i] = err
			if err == nil {
				numbers[i] = contract.ContractNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := range numbers {
		require.NoError(t, errs[i])
		assert.Regexp(t, `^CTR-2026\d{4}$`, numbers[i])
		assert.False(t, seen[numbers[i]], "duplicate %s", numbers[i])
		seen[numbers[i]] = true
	}
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    ContractStatus
		to      ContractStatus
		wantErr func(error) bool
	}{
		{"approve generated", ContractStatusGenerated, ContractStatusApproved, nil},
		{"complete after client signature", ContractStatusSignedClient, ContractStatusCompleted, nil},
		{"skip approval", ContractStatusGenerated, ContractStatusCompleted, apperrors.IsValidation},
		{"complete without signatures", ContractStatusApproved, ContractStatusCompleted, apperrors.IsValidation},
		{"unknown status", ContractStatusGenerated, ContractStatus("archived"), apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			contract := f.contract(tt.from)

			updated, err := f.controller.SetStatus(context.Background(), contract.ID, &SetStatusRequest{Status: tt.to})
			stored, _ := f.store.Contract(contract.ID)

			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err))
				assert.Equal(t, tt.from, stored.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
			assert.Equal(t, tt.to, stored.Status)
			f.publisher.AssertCalled(t, "Publish", events.LIFECYCLE_CHANNEL, testutil.EventOfType(events.CONTRACT_STATUS_CHANGED))
		})
	}

	f := newFixture(t)
	_, err := f.controller.Approve(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateTerms(t *testing.T) {
	f := newFixture(t)
	contract := f.contract(ContractStatusApproved)

	updatedTerms := terms()
	updatedTerms.Materials = "<b>Tubo</b> 6 pol"
	updated, err := f.controller.UpdateTerms(context.Background(), contract.ID, &UpdateContractRequest{updatedTerms})
	require.NoError(t, err)
	assert.Equal(t, "Tubo 6 pol", updated.Materials)
	assert.Equal(t, "João da Silva", updated.ClientName)

	_, err = f.sign(f.supervisor, contract.ID, SignerSupervisor)
	require.NoError(t, err)

	_, err = f.controller.UpdateTerms(context.Background(), contract.ID, &UpdateContractRequest{terms()})
	assert.True(t, apperrors.IsConflict(err))
}

type mockDeps struct {
	contracts *testutil.MockContractRepository
	requests  *testutil.MockServiceRequestRepository
	publisher *testutil.MockPublisher
}

func newMockController() (*ContractController, *mockDeps) {
	deps := &mockDeps{
		contracts: new(testutil.MockContractRepository),
		requests:  new(testutil.MockServiceRequestRepository),
		publisher: new(testutil.MockPublisher),
	}
	return &ContractController{
		contractRepo: deps.contracts,
		requestRepo:  deps.requests,
		events:       deps.publisher,
		now:          time.Now,
		log:          logger.New("contractControllerTest"),
	}, deps
}

func TestGet_Ownership(t *testing.T) {
	owner := &Principal{ID: uuid.New(), Whatsapp: "35999998888", Role: RoleUser}
	sameWhatsapp := &Principal{ID: uuid.New(), Whatsapp: "35999998888", Role: RoleUser}
	stranger := &Principal{ID: uuid.New(), Whatsapp: "11988887777", Role: RoleUser}
	sales := &Principal{ID: uuid.New(), Role: RoleSales}

	contractID := uuid.New()
	detail := &Contract{
		ServiceRequestID: uuid.New(),
		ServiceRequest:   &ServiceRequest{UserID: &owner.ID, Whatsapp: owner.Whatsapp},
	}
	detail.ID = contractID

	tests := []struct {
		name      string
		principal *Principal
		forbidden bool
	}{
		{"owner by id", owner, false},
		{"owner by whatsapp", sameWhatsapp, false},
		{"staff", sales, false},
		{"stranger", stranger, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, deps := newMockController()
			deps.contracts.On("GetDetail", mock.Anything, mock.Anything, contractID).Return(detail, nil)

			contract, err := controller.Get(context.Background(), tt.principal, contractID)
			if tt.forbidden {
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
				assert.Nil(t, contract)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, contractID, contract.ID)
			deps.contracts.AssertExpectations(t)
		})
	}

	t.Run("missing contract", func(t *testing.T) {
		controller, deps := newMockController()
		deps.contracts.On("GetDetail", mock.Anything, mock.Anything, contractID).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := controller.Get(context.Background(), owner, contractID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestListSignatures_StrangerIsForbidden(t *testing.T) {
	controller, deps := newMockController()
	stranger := &Principal{ID: uuid.New(), Whatsapp: "11988887777", Role: RoleUser}
	contract := &Contract{ServiceRequestID: uuid.New()}
	contract.ID = uuid.New()

	deps.contracts.On("GetByID", mock.Anything, mock.Anything, contract.ID).Return(contract, nil)
	deps.requests.On("GetByID", mock.Anything, mock.Anything, contract.ServiceRequestID).
		Return(&ServiceRequest{Whatsapp: "35999998888"}, nil)

	_, err := controller.ListSignatures(context.Background(), stranger, contract.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	deps.requests.AssertExpectations(t)
}

func TestListForClient(t *testing.T) {
	controller, deps := newMockController()
	client := &Principal{ID: uuid.New(), Whatsapp: "35999998888", Role: RoleUser}
	mine := []*Contract{{ContractNumber: "CTR-20260001"}}

	deps.contracts.On("ListForPrincipal", mock.Anything, mock.Anything, client).Return(mine, nil)

	contracts, err := controller.ListForClient(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, mine, contracts)
}
