package web

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	authservice "github.com/hailinhs/alumnisite/auth/service"
	"github.com/hailinhs/alumnisite/auth/users"
	"github.com/hailinhs/alumnisite/internal/config"
	"github.com/hailinhs/alumnisite/internal/render"
	"github.com/hailinhs/alumnisite/internal/service"
	"github.com/hailinhs/alumnisite/internal/storage"
	"github.com/hailinhs/alumnisite/internal/web/webpath"
)

type Services struct {
	Auth      *authservice.Service
	News      *service.NewsService
	Events    *service.EventService
	Directory *service.DirectoryService
	Contact   *service.ContactService
	Home      *service.HomeService
}

type Server struct {
	auth      *authservice.Service
	news      *service.NewsService
	events    *service.EventService
	directory *service.DirectoryService
	contact   *service.ContactService
	home      *service.HomeService

	render   *render.Renderer
	validate *validator.Validate
	app      *fiber.App
	cfg      config.Config
	log      *logrus.Entry
}

func New(cfg config.Config, svc Services, l *logrus.Logger) *Server {
	server := Server{
		auth:      svc.Auth,
		news:      svc.News,
		events:    svc.Events,
		directory: svc.Directory,
		contact:   svc.Contact,
		home:      svc.Home,
		render:    render.New(),
		validate:  newValidator(),
		cfg:       cfg,
		log:       l.WithField("from", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.Site.Name,
		DisableStartupMessage: !cfg.Server.Debug,
		CaseSensitive:         true,
		ErrorHandler:          server.handleError,
	})
	app.Use(server.logRequest)
	app.Use(server.guard)

	app.Get(webpath.Home, func(ctx *fiber.Ctx) error {
		return ctx.JSON(newData().With("paths", webpath.Path()))
	})
	app.Post(webpath.Signin, server.handleSignIn)
	app.Post(webpath.Signup, server.handleSignUp)
	app.Post(webpath.Signout, server.handleSignOut)

	app.Get(webpath.ApiSession, server.handleSession)
	app.Get(webpath.ApiHome, server.handleHome)
	app.Get(webpath.ApiAbout, server.handleAbout)
	app.Get(webpath.ApiAlumni, server.handleAlumni)
	app.Get(webpath.ApiEvents, server.handleEvents)
	app.Get(webpath.ApiNews, server.handleNews)
	app.Get(webpath.ApiNewsItem, server.handleNewsItem)
	app.Post(webpath.ApiContact, server.handleContact)

	app.Get(webpath.AdminPending, server.handlePendingList)
	app.Post(webpath.AdminApprove, server.handleApprove)
	app.Post(webpath.AdminReject, server.handleReject)
	app.Get(webpath.AdminUsers, server.handleUsers)
	app.Get(webpath.AdminNews, server.handleAdminNewsList)
	app.Post(webpath.AdminNews, server.handleNewsCreate)
	app.Put(webpath.AdminNewsItem, server.handleNewsUpdate)
	app.Post(webpath.AdminNewsToggle, server.handleNewsToggle)
	app.Delete(webpath.AdminNewsItem, server.handleNewsDelete)
	app.Get(webpath.AdminEvents, server.handleAdminEventsList)
	app.Post(webpath.AdminEvents, server.handleEventCreate)
	app.Put(webpath.AdminEventsItem, server.handleEventUpdate)
	app.Delete(webpath.AdminEventsItem, server.handleEventDelete)
	app.Get(webpath.AdminContact, server.handleContactList)

	server.app = app
	return &server
}

func (s *Server) Serve() error {
	addr := s.cfg.Server.Addr()
	s.log.WithField("addr", addr).Info("listening")
	if s.cfg.Server.TLSCert != "" && s.cfg.Server.TLSKey != "" {
		return s.app.ListenTLS(addr, s.cfg.Server.TLSCert, s.cfg.Server.TLSKey)
	}
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

const sessionKey = "session"

func sessionOf(ctx *fiber.Ctx) users.Session {
	session, _ := ctx.Locals(sessionKey).(users.Session)
	return session
}

var errConfirmRequired = errors.New("删除操作需要确认：请附加 confirm=true")

func statusOf(err error) int {
	var fe *fiber.Error
	var invalid *invalidInput
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &invalid),
		errors.Is(err, errConfirmRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, authservice.ErrInvalidCredentials),
		errors.Is(err, authservice.ErrNotAuthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, authservice.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(ctx *fiber.Ctx, err error) error {
	code := statusOf(err)
	if code == fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", ctx.Path()).Error("request failed")
		err = errors.New(fiber.ErrInternalServerError.Message)
	}
	return ctx.Status(code).JSON(newData().WithErrors(err))
}

func parseYear(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &invalidInput{errs: []error{errors.New("毕业年份无效")}}
	}
	return year, nil
}
