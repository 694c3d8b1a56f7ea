package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	domain "user-console/internal/domain/user"
	pkgerrors "user-console/pkg/errors"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// Test helper to build a usecase with a mock repo
func setupTestUsecase(t *testing.T) (*Usecase, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	return uc, mockRepo
}

var validInput = UserInput{Name: "Bo", Email: "b@x.com", Password: "pw2"}

// ==================== CREATE USER TESTS ====================

func TestCreateUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, validInput.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == 0 && u.Name == "Bo" && u.Email == "b@x.com" && u.Password == "pw2"
	})).Return(int64(2), nil)

	got, err := uc.CreateUser(ctx, validInput)

	assert.NoError(t, err)
	assert.Equal(t, &domain.User{ID: 2, Name: "Bo", Email: "b@x.com", Password: "pw2"}, got)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      UserInput
		message string
	}{
		{"name required", UserInput{Email: "b@x.com", Password: "p"}, "Name is required"},
		{"email required", UserInput{Name: "Bo", Password: "p"}, "Email is required"},
		{"email invalid", UserInput{Name: "Bo", Email: "nope", Password: "p"}, "Email must be a valid email"},
		{"password required", UserInput{Name: "Bo", Email: "b@x.com"}, "Password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)

			got, err := uc.CreateUser(context.Background(), tt.in)

			assert.Nil(t, got)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, 400, pkgerrors.StatusOf(err))
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_EmailAlreadyExists(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, validInput.Email).Return(&domain.User{ID: 1, Email: validInput.Email}, nil)

	got, err := uc.CreateUser(ctx, validInput)

	assert.Nil(t, got)
	assert.EqualError(t, err, "email already exists")
	assert.Equal(t, 409, pkgerrors.StatusOf(err))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_EmailLookupFails(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, validInput.Email).Return(nil, errors.New("db down"))

	_, err := uc.CreateUser(ctx, validInput)

	assert.Equal(t, 500, pkgerrors.StatusOf(err))
}

func TestCreateUser_RepositoryError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, validInput.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(int64(0), errors.New("insert failed"))

	_, err := uc.CreateUser(ctx, validInput)

	assert.Equal(t, 500, pkgerrors.StatusOf(err))
	assert.Contains(t, err.Error(), "insert failed")
}

// ==================== UPDATE USER TESTS ====================

func TestUpdateUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	in := UserInput{Name: "Ann", Email: "ann@new.com", Password: "pw1"}

	mockRepo.On("GetByEmail", ctx, in.Email).Return(nil, nil)
	mockRepo.On("Update", ctx, &domain.User{ID: 1, Name: "Ann", Email: "ann@new.com", Password: "pw1"}).Return(nil)

	got, err := uc.UpdateUser(ctx, 1, in)

	assert.NoError(t, err)
	assert.Equal(t, "ann@new.com", got.Email)
	assert.Equal(t, int64(1), got.ID)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_KeepOwnEmail(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	in := UserInput{Name: "Annie", Email: "a@x.com", Password: "pw1"}

	mockRepo.On("GetByEmail", ctx, in.Email).Return(&domain.User{ID: 1, Email: in.Email}, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(nil)

	_, err := uc.UpdateUser(ctx, 1, in)

	assert.NoError(t, err)
}

func TestUpdateUser_EmailTakenByOther(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, validInput.Email).Return(&domain.User{ID: 2, Email: validInput.Email}, nil)

	_, err := uc.UpdateUser(ctx, 1, validInput)

	assert.Equal(t, 409, pkgerrors.StatusOf(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, validInput.Email).Return(nil, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(pkgerrors.NewNotFoundError("user", ""))

	_, err := uc.UpdateUser(ctx, 9, validInput)

	assert.Equal(t, 404, pkgerrors.StatusOf(err))
}

func TestUpdateUser_InvalidID(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	_, err := uc.UpdateUser(context.Background(), 0, validInput)

	assert.Equal(t, 400, pkgerrors.StatusOf(err))
}

// ==================== DELETE / GET / LIST TESTS ====================

func TestDeleteUser(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("Delete", ctx, int64(1)).Return(nil)
	mockRepo.On("Delete", ctx, int64(2)).Return(pkgerrors.NewNotFoundError("user", ""))

	assert.NoError(t, uc.DeleteUser(ctx, 1))
	assert.Equal(t, 404, pkgerrors.StatusOf(uc.DeleteUser(ctx, 2)))
	assert.Equal(t, 400, pkgerrors.StatusOf(uc.DeleteUser(ctx, -1)))
}

func TestGetUser(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	ann := &domain.User{ID: 1, Name: "Ann", Email: "a@x.com", Password: "pw1"}

	mockRepo.On("GetByID", ctx, int64(1)).Return(ann, nil)
	mockRepo.On("GetByID", ctx, int64(2)).Return(nil, pkgerrors.NewNotFoundError("user", ""))

	got, err := uc.GetUser(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, ann, got)

	_, err = uc.GetUser(ctx, 2)
	assert.Equal(t, 404, pkgerrors.StatusOf(err))
}

func TestListUsers(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(nil, errors.New("db down")).Once()

	users, err := uc.ListUsers(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	_, err = uc.ListUsers(ctx)
	assert.Error(t, err)
}
