package userController

import (
	"context"
	"testing"

	"martinspocos/config"
	"martinspocos/internal/apperrors"
	. "martinspocos/internal/models"
	"martinspocos/internal/services"
	"martinspocos/internal/testutil"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestController() (*UserController, *testutil.MockUserRepository, *services.TokenService) {
	cfg := config.Config{
		JWTSecret:      "user-controller-test-secret",
		JWTExpiryHours: 1,
		BcryptCost:     bcrypt.MinCost,
	}
	token := services.NewTokenService(cfg)
	mockRepo := new(testutil.MockUserRepository)

	return &UserController{
		userRepo: mockRepo,
		token:    token,
		password: services.NewPasswordService(cfg),
		log:      logger.New("userControllerTest"),
	}, mockRepo, token
}

func TestRegister(t *testing.T) {
	controller, mockRepo, token := newTestController()
	empty := ""

	mockRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(user *User) bool {
		return user.Whatsapp == "35999998888"
	})).
		Run(func(args mock.Arguments) {
			args.Get(2).(*User).ID = uuid.New()
		}).
		Return(nil)

	response, err := controller.Register(context.Background(), &RegisterRequest{
		Name:     "  maria   das dores ",
		Whatsapp: "(35) 99999-8888",
		Email:    &empty,
		Password: "segredo1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Maria Das Dores", response.User.Name)
	assert.Equal(t, "35999998888", response.User.Whatsapp)
	assert.Nil(t, response.User.Email)
	assert.NotEqual(t, "segredo1", response.User.Password)
	assert.NoError(t, controller.password.Compare(response.User.Password, "segredo1"))

	principal, err := token.Verify(response.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, principal.Role)
	assert.Equal(t, response.User.ID, principal.ID)
	mockRepo.AssertExpectations(t)
}

func TestRegister_DuplicateWhatsapp(t *testing.T) {
	controller, mockRepo, _ := newTestController()
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.User")).
		Return(gorm.ErrDuplicatedKey)

	_, err := controller.Register(context.Background(), &RegisterRequest{
		Name:     "Outra",
		Whatsapp: "35999998888",
		Password: "segredo2",
	})
	require.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "Whatsapp already registered", apperrors.GetAppError(err).PublicMessage())
}

func TestCheck(t *testing.T) {
	controller, mockRepo, _ := newTestController()
	mockRepo.On("ExistsByWhatsapp", mock.Anything, mock.Anything, "35999998888").Return(true, nil)
	mockRepo.On("ExistsByWhatsapp", mock.Anything, mock.Anything, "11900000000").Return(false, nil)

	check, err := controller.Check(context.Background(), &CheckRequest{Whatsapp: "35 99999 8888"})
	require.NoError(t, err)
	assert.True(t, check.Exists)

	check, err = controller.Check(context.Background(), &CheckRequest{Whatsapp: "11900000000"})
	require.NoError(t, err)
	assert.False(t, check.Exists)

	mockRepo.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	controller, mockRepo, _ := newTestController()
	badEmail := "not-an-email"

	tests := []struct {
		name    string
		request RegisterRequest
	}{
		{"short whatsapp", RegisterRequest{Name: "Ana", Whatsapp: "1234", Password: "segredo1"}},
		{"short password", RegisterRequest{Name: "Ana", Whatsapp: "35999998888", Password: "123"}},
		{"missing name", RegisterRequest{Whatsapp: "35999998888", Password: "segredo1"}},
		{"bad email", RegisterRequest{Name: "Ana", Whatsapp: "35999998888", Email: &badEmail, Password: "segredo1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.Register(context.Background(), &tt.request)
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	_, err := controller.Check(context.Background(), &CheckRequest{})
	assert.True(t, apperrors.IsValidation(err))

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "ExistsByWhatsapp", mock.Anything, mock.Anything, mock.Anything)
}
