package detail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	domain "user-console/internal/domain/user"
	"user-console/internal/route"
	"user-console/internal/usecase/loop"
	pkgerrors "user-console/pkg/errors"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Get(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockBackend) Update(ctx context.Context, id int64, d domain.Draft) (*domain.User, error) {
	args := m.Called(ctx, id, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func ann() *domain.User {
	return &domain.User{ID: 1, Name: "Ann", Email: "a@x.com", Password: "pw1"}
}

type ControllerSuite struct {
	suite.Suite

	loop    *loop.Loop
	backend *MockBackend
	visited []string
	c       *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.loop = loop.New(zaptest.NewLogger(s.T()))
	s.backend = new(MockBackend)
	s.visited = nil
	nav := route.NavigatorFunc(func(path string) { s.visited = append(s.visited, path) })
	s.c = New(context.Background(), s.loop, s.backend, nav, 1, time.Hour, zaptest.NewLogger(s.T()))
}

func (s *ControllerSuite) TearDownTest() {
	s.loop.Close()
}

func (s *ControllerSuite) settle() State {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(s.loop.Wait(ctx))
	st, err := s.c.Snapshot(ctx)
	s.Require().NoError(err)
	return st
}

// viewing brings the controller to Viewing with Ann loaded.
func (s *ControllerSuite) viewing() {
	s.backend.On("Get", mock.Anything, int64(1)).Return(ann(), nil).Once()
	s.c.Initialize()
	s.Require().Equal(Viewing, s.settle().Mode)
}

// ==================== LOAD TESTS ====================

func (s *ControllerSuite) TestInitialize_Found() {
	s.viewing()
	st := s.settle()

	s.Equal(ann(), st.User)
	s.Equal("•••", st.MaskedPassword)
	s.False(st.IsLoading)
	s.Empty(st.ErrorMessage)
}

func (s *ControllerSuite) TestInitialize_NotFound() {
	s.backend.On("Get", mock.Anything, int64(1)).
		Return(nil, pkgerrors.NewFailure(pkgerrors.NotFound, 404, "", nil)).Once()

	s.c.Initialize()
	st := s.settle()

	s.Equal(NotFound, st.Mode)
	s.Nil(st.User)
	s.Equal(NotFoundMessage, st.ErrorMessage)
}

func (s *ControllerSuite) TestInitialize_TransportFailureIsNotFound() {
	s.backend.On("Get", mock.Anything, int64(1)).
		Return(nil, pkgerrors.NewFailure(pkgerrors.Transport, 0, "", errors.New("refused"))).Once()

	s.c.Initialize()
	s.Equal(NotFound, s.settle().Mode)

	// NotFound is terminal: editing and deleting are ignored, going back still works.
	s.c.EnableEdit()
	s.c.DeleteUser()
	s.c.GoBack()
	st := s.settle()
	s.Equal(NotFound, st.Mode)
	s.Equal([]string{route.List}, s.visited)
	s.backend.AssertNumberOfCalls(s.T(), "Get", 1)
}

// ==================== EDIT TESTS ====================

func (s *ControllerSuite) TestEnableEdit_CopiesUser() {
	s.viewing()

	s.c.EnableEdit()
	st := s.settle()

	s.Equal(Editing, st.Mode)
	s.Equal(domain.Draft{Name: "Ann", Email: "a@x.com", Password: "pw1"}, st.EditedUser)
}

func (s *ControllerSuite) TestCancelEdit_LeavesUserUnchanged() {
	s.viewing()

	s.c.EnableEdit()
	s.c.SetEmail("ann@new.com")
	s.c.SetName("Annie")
	s.c.CancelEdit()
	st := s.settle()

	s.Equal(Viewing, st.Mode)
	s.Equal(ann(), st.User)
	s.Equal(domain.EmptyDraft(), st.EditedUser)
	s.backend.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ControllerSuite) TestUpdateUser_Success() {
	s.viewing()
	want := domain.Draft{Name: "Ann", Email: "ann@new.com", Password: "pw1"}
	updated := &domain.User{ID: 1, Name: "Ann", Email: "ann@new.com", Password: "pw1"}
	s.backend.On("Update", mock.Anything, int64(1), want).Return(updated, nil).Once()

	s.c.EnableEdit()
	s.c.SetEmail("ann@new.com")
	s.c.UpdateUser()
	st := s.settle()

	s.Equal(Viewing, st.Mode)
	s.Equal(updated, st.User)
	s.Equal(UpdateSucceedMessage, st.SuccessMessage)
	s.False(st.IsLoading)
	s.backend.AssertExpectations(s.T())
}

func (s *ControllerSuite) TestUpdateUser_FailureStaysEditing() {
	s.viewing()
	s.backend.On("Update", mock.Anything, int64(1), mock.Anything).
		Return(nil, pkgerrors.NewFailure(pkgerrors.Validation, 409, "email already exists", nil)).Once()

	s.c.EnableEdit()
	s.c.SetEmail("b@x.com")
	s.c.UpdateUser()
	st := s.settle()

	s.Equal(Editing, st.Mode)
	s.Equal(ann(), st.User, "displayed user changes only on success")
	s.Equal("b@x.com", st.EditedUser.Email)
	s.Equal("email already exists", st.ErrorMessage)
	s.False(st.IsLoading)
}

func (s *ControllerSuite) TestUpdateUser_FallbackMessage() {
	s.viewing()
	s.backend.On("Update", mock.Anything, int64(1), mock.Anything).
		Return(nil, pkgerrors.NewFailure(pkgerrors.Unknown, 500, "", nil)).Once()

	s.c.EnableEdit()
	s.c.UpdateUser()

	s.Equal(UpdateFailedMessage, s.settle().ErrorMessage)
}

func (s *ControllerSuite) TestUpdateUser_RequiresCompleteBuffer() {
	s.viewing()

	s.c.EnableEdit()
	s.c.SetPassword("")
	s.c.UpdateUser()
	st := s.settle()

	s.Equal(Editing, st.Mode)
	s.Equal("Password is required", st.ErrorMessage)
	s.backend.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ControllerSuite) TestSetters_IgnoredOutsideEditing() {
	s.viewing()

	s.c.SetName("Zed")
	st := s.settle()

	s.Equal(domain.EmptyDraft(), st.EditedUser)
	s.Equal("Ann", st.User.Name)
}

// ==================== DELETE TESTS ====================

func (s *ControllerSuite) TestDelete_ConfirmNavigatesToList() {
	s.viewing()
	s.backend.On("Delete", mock.Anything, int64(1)).Return(nil).Once()

	s.c.DeleteUser()
	s.Equal(PendingDelete, s.settle().Mode)
	s.backend.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)

	s.c.ConfirmDelete()
	s.settle()

	s.Equal([]string{route.List}, s.visited)
	s.backend.AssertExpectations(s.T())
}

func (s *ControllerSuite) TestDelete_Cancel() {
	s.viewing()

	s.c.DeleteUser()
	s.c.CancelDelete()
	st := s.settle()

	s.Equal(Viewing, st.Mode)
	s.Empty(s.visited)
	s.backend.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func (s *ControllerSuite) TestDelete_Failure() {
	s.viewing()
	s.backend.On("Delete", mock.Anything, int64(1)).
		Return(pkgerrors.NewFailure(pkgerrors.Transport, 0, "", errors.New("reset"))).Once()

	s.c.DeleteUser()
	s.c.ConfirmDelete()
	st := s.settle()

	s.Equal(Viewing, st.Mode)
	s.Equal(DeleteFailedMessage, st.ErrorMessage)
	s.False(st.IsLoading)
	s.Equal(ann(), st.User)
	s.Empty(s.visited)
}

func (s *ControllerSuite) TestDelete_LoadingWhileInFlight() {
	s.viewing()
	release := make(chan struct{})
	s.backend.On("Delete", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	s.c.DeleteUser()
	s.c.ConfirmDelete()
	s.Eventually(func() bool {
		st, err := s.c.Snapshot(context.Background())
		return err == nil && st.IsLoading
	}, time.Second, 5*time.Millisecond)

	close(release)
	s.settle()
	s.Equal([]string{route.List}, s.visited)
}

// ==================== DISPOSE TESTS ====================

func (s *ControllerSuite) TestDispose_IgnoresLateCompletion() {
	release := make(chan struct{})
	s.backend.On("Get", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { <-release }).
		Return(ann(), nil).Once()

	s.c.Initialize()
	s.c.Dispose()
	close(release)
	st := s.settle()

	s.Equal(Loading, st.Mode)
	s.Nil(st.User)

	s.c.GoBack()
	s.settle()
	s.Empty(s.visited)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "viewing", Viewing.String())
	assert.Equal(t, "editing", Editing.String())
	assert.Equal(t, "pending_delete", PendingDelete.String())
	assert.Equal(t, "unknown", Mode(99).String())
}

func TestSuccessMessageClears(t *testing.T) {
	l := loop.New(zaptest.NewLogger(t))
	t.Cleanup(l.Close)
	b := new(MockBackend)
	b.On("Get", mock.Anything, int64(1)).Return(ann(), nil).Once()
	b.On("Update", mock.Anything, int64(1), mock.Anything).Return(ann(), nil).Once()

	wait := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, l.Wait(ctx))
	}

	c := New(context.Background(), l, b, route.NavigatorFunc(func(string) {}), 1, 100*time.Millisecond, zaptest.NewLogger(t))
	c.Initialize()
	wait()
	c.EnableEdit()
	c.UpdateUser()
	wait()

	st, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, UpdateSucceedMessage, st.SuccessMessage)

	assert.Eventually(t, func() bool {
		st, err := c.Snapshot(context.Background())
		return err == nil && st.SuccessMessage == ""
	}, time.Second, 5*time.Millisecond)
}
