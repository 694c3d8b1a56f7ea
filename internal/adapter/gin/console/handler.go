// Package console serves the browser pages of the user console.
package console

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-console/internal/adapter/gin/session"
	"user-console/internal/route"
	"user-console/internal/usecase/detail"
	"user-console/internal/usecase/list"
	"user-console/internal/usecase/loop"
	"user-console/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Backend is the resource client used by both screens.
type Backend interface {
	list.Backend
	detail.Backend
}

// Config holds the handler settings.
type Config struct {
	// SuccessTTL is how long success messages stay on screen.
	SuccessTTL time.Duration
	// SettleTimeout bounds how long a request waits for the screen's calls to finish
	// before rendering whatever state it has.
	SettleTimeout time.Duration
}

// Handler serves the list and detail screens for the session attached to each request.
type Handler struct {
	ctx     context.Context
	backend Backend
	cfg     Config
	log     *zap.Logger
}

// NewHandler creates a handler. ctx bounds every backend call started by a screen.
func NewHandler(ctx context.Context, backend Backend, cfg Config, log *zap.Logger) *Handler {
	return &Handler{
		ctx:     ctx,
		backend: backend,
		cfg:     cfg,
		log:     log.Named("console"),
	}
}

// userForm is the form posted by the add and save buttons.
type userForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type listPage struct {
	Title string
	State list.State
}

type detailPage struct {
	Title string
	State detail.State
}

func (p detailPage) Loading() bool       { return p.State.Mode == detail.Loading }
func (p detailPage) NotFound() bool      { return p.State.Mode == detail.NotFound }
func (p detailPage) Editing() bool       { return p.State.Mode == detail.Editing }
func (p detailPage) PendingDelete() bool { return p.State.Mode == detail.PendingDelete }

// Action returns the form target of a detail screen button.
func (p detailPage) Action(name string) string {
	return route.Detail(p.State.ID) + "/" + name
}

// ListPage handles GET /
func (h *Handler) ListPage(c *gin.Context) {
	s := session.FromContext(c)
	ctrl := h.mountList(s)
	h.settle(c, s)

	st, err := ctrl.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "list.html", listPage{Title: "Users", State: st})
}

// AddUser handles POST /users
func (h *Handler) AddUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Warn("invalid add user form", zap.Error(err))
	}

	s := session.FromContext(c)
	ctrl := h.mountList(s)
	ctrl.SetName(form.Name)
	ctrl.SetEmail(form.Email)
	ctrl.SetPassword(form.Password)
	ctrl.AddUser()

	h.redirect(c, s)
}

// Refresh handles POST /refresh
func (h *Handler) Refresh(c *gin.Context) {
	s := session.FromContext(c)
	h.mountList(s).LoadUsers()
	h.redirect(c, s)
}

// ViewUser handles POST /users/:id/view
func (h *Handler) ViewUser(c *gin.Context) {
	s := session.FromContext(c)
	id, ok := route.ParseDetailID(c.Param("id"))
	if !ok {
		c.Redirect(http.StatusSeeOther, route.List)
		return
	}

	h.mountList(s).ViewUser(id)
	h.redirect(c, s)
}

// DetailPage handles GET /user/:id
func (h *Handler) DetailPage(c *gin.Context) {
	// one screen per user: /user/007 and /user/7 share a mount
	if target := route.Resolve(c.Request.URL.Path); target != c.Request.URL.Path {
		c.Redirect(http.StatusSeeOther, target)
		return
	}
	id, _ := route.ParseDetailID(c.Param("id"))

	s := session.FromContext(c)
	ctrl := h.mountDetail(s, id)
	h.settle(c, s)

	st, err := ctrl.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if st.Mode == detail.NotFound {
		status = http.StatusNotFound
	}
	c.HTML(status, "detail.html", detailPage{Title: "User Details", State: st})
}

// DetailAction handles POST /user/:id/:action
func (h *Handler) DetailAction(c *gin.Context) {
	id, ok := route.ParseDetailID(c.Param("id"))
	if !ok {
		c.Redirect(http.StatusSeeOther, route.List)
		return
	}

	s := session.FromContext(c)
	ctrl := h.mountDetail(s, id)

	switch action := c.Param("action"); action {
	case "edit":
		ctrl.EnableEdit()
	case "cancel":
		ctrl.CancelEdit()
	case "save":
		var form userForm
		if err := c.ShouldBind(&form); err != nil {
			h.log.Warn("invalid save user form", zap.Error(err))
		}
		ctrl.SetName(form.Name)
		ctrl.SetEmail(form.Email)
		ctrl.SetPassword(form.Password)
		ctrl.UpdateUser()
	case "delete":
		ctrl.DeleteUser()
	case "confirm-delete":
		ctrl.ConfirmDelete()
	case "cancel-delete":
		ctrl.CancelDelete()
	case "back":
		ctrl.GoBack()
	default:
		logger.WithContext(c.Request.Context(), h.log).Warn("unknown detail action", zap.String("action", action))
	}

	h.redirect(c, s)
}

func (h *Handler) mountList(s *session.Session) *list.Controller {
	screen := s.Mount(route.List, func(l *loop.Loop, nav route.Navigator) session.Screen {
		return list.New(h.ctx, l, h.backend, nav, h.cfg.SuccessTTL, h.log)
	})
	return screen.(*list.Controller)
}

func (h *Handler) mountDetail(s *session.Session, id int64) *detail.Controller {
	screen := s.Mount(route.Detail(id), func(l *loop.Loop, nav route.Navigator) session.Screen {
		return detail.New(h.ctx, l, h.backend, nav, id, h.cfg.SuccessTTL, h.log)
	})
	return screen.(*detail.Controller)
}

// settle waits for the mounted screen to finish its calls. When the wait times out the
// page is rendered in its loading state.
func (h *Handler) settle(c *gin.Context, s *session.Session) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.SettleTimeout)
	defer cancel()

	if err := s.Wait(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.WithContext(c.Request.Context(), h.log).Debug("settle interrupted", zap.Error(err))
	}
}

// redirect sends the browser to where the screen navigated, or back to the screen itself.
func (h *Handler) redirect(c *gin.Context, s *session.Session) {
	h.settle(c, s)

	target := s.TakeNavigation()
	if target == "" {
		_, target = s.Current()
	}
	if target == "" {
		target = route.List
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *Handler) fail(c *gin.Context, err error) {
	logger.WithContext(c.Request.Context(), h.log).Error("render failed", zap.Error(err))
	c.String(http.StatusServiceUnavailable, "screen unavailable")
}
