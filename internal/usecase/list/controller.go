package list

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	domain "user-console/internal/domain/user"
	"user-console/internal/route"
	"user-console/internal/usecase/loop"
	pkgerrors "user-console/pkg/errors"
)

// Messages shown by the list screen.
const (
	LoadFailedMessage = "Failed to load users. Make sure the backend is running."
	AddFailedMessage  = "Failed to add user"
	AddSucceedMessage = "User added successfully!"
	DefaultSuccessTTL = 3 * time.Second
)

// Backend is the part of the resource client the list screen uses.
type Backend interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, d domain.Draft) (*domain.User, error)
}

// State is a snapshot of the list screen for rendering.
type State struct {
	Users          []domain.User
	NewUser        domain.Draft
	IsLoading      bool
	ErrorMessage   string
	SuccessMessage string
}

// Controller owns the user roster and the create-user draft.
//
// Exported methods may be called from any goroutine: each one queues its work on the
// controller's loop, where all state is read and written.
type Controller struct {
	loop       *loop.Loop
	backend    Backend
	nav        route.Navigator
	log        *zap.Logger
	ctx        context.Context
	successTTL time.Duration

	// loop-confined
	active       bool
	users        []domain.User
	newUser      domain.Draft
	isLoading    bool
	errorMessage string
	success      loop.Flash
}

// New creates a list controller bound to l. ctx is passed to backend calls;
// successTTL defaults to DefaultSuccessTTL when zero.
func New(ctx context.Context, l *loop.Loop, backend Backend, nav route.Navigator, successTTL time.Duration, log *zap.Logger) *Controller {
	if successTTL <= 0 {
		successTTL = DefaultSuccessTTL
	}
	return &Controller{
		loop:       l,
		backend:    backend,
		nav:        nav,
		log:        log.Named("list"),
		ctx:        ctx,
		successTTL: successTTL,
		active:     true,
		users:      []domain.User{},
		newUser:    domain.EmptyDraft(),
	}
}

// Initialize loads the roster when the screen is entered.
func (c *Controller) Initialize() {
	c.LoadUsers()
}

// LoadUsers replaces the roster with the backend's current list.
// On failure the previous roster stays visible.
func (c *Controller) LoadUsers() {
	c.loop.Post(c.loadUsers)
}

func (c *Controller) loadUsers() {
	if !c.active {
		return
	}
	c.isLoading = true

	loop.Go(c.loop, c.ctx, c.backend.List, func(users []domain.User, err error) {
		if !c.active {
			return
		}
		c.isLoading = false
		if err != nil {
			c.log.Warn("failed to load users", zap.Error(err))
			c.errorMessage = LoadFailedMessage
			return
		}
		c.users = users
		c.errorMessage = ""
	})
}

// SetName updates the draft name.
func (c *Controller) SetName(name string) {
	c.loop.Post(func() { c.newUser.SetName(name) })
}

// SetEmail updates the draft email.
func (c *Controller) SetEmail(email string) {
	c.loop.Post(func() { c.newUser.SetEmail(email) })
}

// SetPassword updates the draft password.
func (c *Controller) SetPassword(password string) {
	c.loop.Post(func() { c.newUser.SetPassword(password) })
}

// AddUser submits the draft. On success the draft is reset and the roster is reloaded.
func (c *Controller) AddUser() {
	c.loop.Post(c.addUser)
}

func (c *Controller) addUser() {
	if !c.active {
		return
	}
	c.success.Clear()
	c.errorMessage = ""

	if err := c.newUser.Validate(); err != nil {
		c.errorMessage = err.Error()
		return
	}

	draft := c.newUser
	c.isLoading = true
	c.log.Info("adding user", zap.String("name", draft.Name), zap.String("email", draft.Email))

	loop.Go(c.loop, c.ctx, func(ctx context.Context) (*domain.User, error) {
		return c.backend.Create(ctx, draft)
	}, func(u *domain.User, err error) {
		if !c.active {
			return
		}
		if err != nil {
			c.log.Warn("failed to add user", zap.Error(err))
			c.errorMessage = pkgerrors.MessageOr(err, AddFailedMessage)
			c.isLoading = false
			return
		}
		c.log.Info("user added", zap.Int64("id", u.ID))
		c.success.Show(c.loop, AddSucceedMessage, c.successTTL)
		c.newUser = domain.EmptyDraft()
		c.loadUsers()
	})
}

// ViewUser navigates to the detail screen of id.
func (c *Controller) ViewUser(id int64) {
	c.loop.Post(func() {
		if !c.active {
			return
		}
		c.nav.Navigate(route.Detail(id))
	})
}

// Dispose detaches the controller from its screen. Completions of calls still in
// flight are ignored and the pending success-message clear is cancelled.
func (c *Controller) Dispose() {
	c.loop.Post(func() {
		c.active = false
		c.success.Clear()
	})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	var s State
	err := c.loop.Do(ctx, func() {
		s = State{
			Users:          slices.Clone(c.users),
			NewUser:        c.newUser,
			IsLoading:      c.isLoading,
			ErrorMessage:   c.errorMessage,
			SuccessMessage: c.success.Text(),
		}
	})
	return s, err
}
