package detail

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "user-console/internal/domain/user"
	"user-console/internal/route"
	"user-console/internal/usecase/loop"
	pkgerrors "user-console/pkg/errors"
)

// Messages shown by the detail screen.
const (
	NotFoundMessage      = "User not found"
	UpdateFailedMessage  = "Failed to update user"
	UpdateSucceedMessage = "User updated successfully!"
	DeleteFailedMessage  = "Failed to delete user"
	DefaultSuccessTTL    = 3 * time.Second
)

// Mode is the state of the detail screen.
type Mode int

const (
	Loading Mode = iota
	NotFound
	Viewing
	Editing
	PendingDelete
)

func (m Mode) String() string {
	switch m {
	case Loading:
		return "loading"
	case NotFound:
		return "not_found"
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case PendingDelete:
		return "pending_delete"
	default:
		return "unknown"
	}
}

// Backend is the part of the resource client the detail screen uses.
type Backend interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, d domain.Draft) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// State is a snapshot of the detail screen for rendering.
type State struct {
	ID             int64
	Mode           Mode
	User           *domain.User
	EditedUser     domain.Draft
	MaskedPassword string
	IsLoading      bool
	ErrorMessage   string
	SuccessMessage string
}

// Controller drives the view/edit/delete lifecycle of a single user.
// Calls made in a mode that does not accept them are ignored.
type Controller struct {
	loop       *loop.Loop
	backend    Backend
	nav        route.Navigator
	log        *zap.Logger
	ctx        context.Context
	id         int64
	successTTL time.Duration

	// loop-confined
	active       bool
	mode         Mode
	user         *domain.User
	editedUser   domain.Draft
	isLoading    bool
	errorMessage string
	success      loop.Flash
}

// New creates a detail controller for user id, bound to l.
func New(ctx context.Context, l *loop.Loop, backend Backend, nav route.Navigator, id int64, successTTL time.Duration, log *zap.Logger) *Controller {
	if successTTL <= 0 {
		successTTL = DefaultSuccessTTL
	}
	return &Controller{
		loop:       l,
		backend:    backend,
		nav:        nav,
		log:        log.Named("detail").With(zap.Int64("user_id", id)),
		ctx:        ctx,
		id:         id,
		successTTL: successTTL,
		active:     true,
		mode:       Loading,
	}
}

// ID returns the user id the screen was opened for.
func (c *Controller) ID() int64 { return c.id }

// Initialize fetches the user. Any failure leaves the screen in NotFound for good.
func (c *Controller) Initialize() {
	c.post(func() {
		if c.mode != Loading {
			return
		}
		c.isLoading = true

		loop.Go(c.loop, c.ctx, func(ctx context.Context) (*domain.User, error) {
			return c.backend.Get(ctx, c.id)
		}, func(u *domain.User, err error) {
			if !c.active {
				return
			}
			c.isLoading = false
			if err != nil {
				c.log.Warn("failed to load user", zap.Stringer("kind", pkgerrors.KindOf(err)), zap.Error(err))
				c.mode = NotFound
				c.errorMessage = NotFoundMessage
				return
			}
			c.user = u
			c.mode = Viewing
		})
	})
}

// EnableEdit copies the displayed user into the edit buffer.
func (c *Controller) EnableEdit() {
	c.post(func() {
		if c.mode != Viewing {
			return
		}
		c.editedUser = domain.DraftFrom(*c.user)
		c.clearMessages()
		c.mode = Editing
	})
}

// CancelEdit discards the edit buffer without contacting the backend.
func (c *Controller) CancelEdit() {
	c.post(func() {
		if c.mode != Editing {
			return
		}
		c.editedUser = domain.EmptyDraft()
		c.clearMessages()
		c.mode = Viewing
	})
}

// SetName updates the edit buffer name.
func (c *Controller) SetName(name string) {
	c.post(func() {
		if c.mode == Editing {
			c.editedUser.SetName(name)
		}
	})
}

// SetEmail updates the edit buffer email.
func (c *Controller) SetEmail(email string) {
	c.post(func() {
		if c.mode == Editing {
			c.editedUser.SetEmail(email)
		}
	})
}

// SetPassword updates the edit buffer password.
func (c *Controller) SetPassword(password string) {
	c.post(func() {
		if c.mode == Editing {
			c.editedUser.SetPassword(password)
		}
	})
}

// UpdateUser saves the edit buffer. The displayed user changes only once the backend
// confirms the update.
func (c *Controller) UpdateUser() {
	c.post(func() {
		if c.mode != Editing {
			return
		}
		c.clearMessages()
		if err := c.editedUser.Validate(); err != nil {
			c.errorMessage = err.Error()
			return
		}

		draft := c.editedUser
		c.isLoading = true

		loop.Go(c.loop, c.ctx, func(ctx context.Context) (*domain.User, error) {
			return c.backend.Update(ctx, c.id, draft)
		}, func(u *domain.User, err error) {
			if !c.active {
				return
			}
			c.isLoading = false
			if err != nil {
				c.log.Warn("failed to update user", zap.Error(err))
				c.errorMessage = pkgerrors.MessageOr(err, UpdateFailedMessage)
				return
			}
			c.log.Info("user updated")
			c.user = u
			c.editedUser = domain.EmptyDraft()
			c.mode = Viewing
			c.success.Show(c.loop, UpdateSucceedMessage, c.successTTL)
		})
	})
}

// DeleteUser asks for confirmation before deleting.
func (c *Controller) DeleteUser() {
	c.post(func() {
		if c.mode != Viewing {
			return
		}
		c.clearMessages()
		c.mode = PendingDelete
	})
}

// CancelDelete drops the pending confirmation.
func (c *Controller) CancelDelete() {
	c.post(func() {
		if c.mode == PendingDelete {
			c.mode = Viewing
		}
	})
}

// ConfirmDelete deletes the user and returns to the list on success.
func (c *Controller) ConfirmDelete() {
	c.post(func() {
		if c.mode != PendingDelete {
			return
		}
		c.mode = Viewing
		c.isLoading = true

		loop.Go(c.loop, c.ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.backend.Delete(ctx, c.id)
		}, func(_ struct{}, err error) {
			if !c.active {
				return
			}
			c.isLoading = false
			if err != nil {
				c.log.Warn("failed to delete user", zap.Error(err))
				c.errorMessage = DeleteFailedMessage
				return
			}
			c.log.Info("user deleted")
			c.nav.Navigate(route.List)
		})
	})
}

// GoBack returns to the list screen.
func (c *Controller) GoBack() {
	c.post(func() { c.nav.Navigate(route.List) })
}

// Dispose detaches the controller from its screen.
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
			ID:             c.id,
			Mode:           c.mode,
			EditedUser:     c.editedUser,
			IsLoading:      c.isLoading,
			ErrorMessage:   c.errorMessage,
			SuccessMessage: c.success.Text(),
		}
		if c.user != nil {
			u := *c.user
			s.User = &u
			s.MaskedPassword = u.MaskedPassword()
		}
	})
	return s, err
}

// post queues fn, dropping it once the controller is disposed.
func (c *Controller) post(fn func()) {
	c.loop.Post(func() {
		if c.active {
			fn()
		}
	})
}

func (c *Controller) clearMessages() {
	c.errorMessage = ""
	c.success.Clear()
}
