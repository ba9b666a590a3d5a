package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hailinhs/alumnisite/auth/users"
	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/storage"
)

func (s *Server) parse(ctx *fiber.Ctx, req any) error {
	if err := ctx.BodyParser(req); err != nil {
		return &invalidInput{errs: []error{errors.New("请求格式不正确")}}
	}
	return validate(s.validate, req)
}

func (s *Server) handleSession(ctx *fiber.Ctx) error {
	return ctx.JSON(newData().WithSession(sessionOf(ctx)))
}

func (s *Server) handleSignIn(ctx *fiber.Ctx) error {
	var req signInRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	user, err := s.auth.Login(ctx.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	cookie, err := s.auth.GenerateJWTCookie(user.ID, "")
	if err != nil {
		return err
	}
	ctx.Cookie(cookie)
	return ctx.JSON(newData().WithSession(s.auth.Current()))
}

// handleSignUp registers a pending member and signs them in.
func (s *Server) handleSignUp(ctx *fiber.Ctx) error {
	var req signUpRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	user, err := s.auth.Register(ctx.UserContext(), req.toRegisterData())
	if err != nil {
		return err
	}
	cookie, err := s.auth.GenerateJWTCookie(user.ID, "")
	if err != nil {
		return err
	}
	ctx.Cookie(cookie)
	return ctx.Status(fiber.StatusCreated).JSON(newData().WithSession(s.auth.Current()))
}

// handleSignOut ends the site session only for the client holding it.
func (s *Server) handleSignOut(ctx *fiber.Ctx) error {
	ctx.ClearCookie("token")
	if sessionOf(ctx).Authenticated {
		if err := s.auth.Logout(ctx.UserContext()); err != nil {
			return err
		}
	}
	return ctx.JSON(newData().WithSession(users.Session{}))
}

func (s *Server) handleHome(ctx *fiber.Ctx) error {
	home, err := s.home.Get(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().WithSession(sessionOf(ctx)).With("home", home))
}

func (s *Server) handleAbout(ctx *fiber.Ctx) error {
	site := s.cfg.Site
	return ctx.JSON(newData().With("about", fiber.Map{
		"name":        site.Name,
		"about":       site.About,
		"address":     site.Address,
		"phone":       site.Phone,
		"email":       site.Email,
		"officeHours": site.OfficeHours,
	}))
}

func (s *Server) handleAlumni(ctx *fiber.Ctx) error {
	year, err := parseYear(ctx.Query("year"))
	if err != nil {
		return err
	}
	found := s.directory.Search(ctx.Query("q"), year, ctx.Query("location"))
	return ctx.JSON(newData().
		With("alumni", found).
		With("count", len(found)).
		With("years", s.directory.Years()).
		With("locations", s.directory.Locations()))
}

func (s *Server) handleEvents(ctx *fiber.Ctx) error {
	events, err := s.events.Active(ctx.UserContext(), ctx.Query("category"))
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("events", events).With("categories", domain.EventCategories))
}

func (s *Server) handleNews(ctx *fiber.Ctx) error {
	news, err := s.news.Published(ctx.UserContext(), ctx.Query("category"))
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("news", news).With("categories", domain.NewsCategories))
}

// handleNewsItem shows drafts to admins only.
func (s *Server) handleNewsItem(ctx *fiber.Ctx) error {
	n, err := s.news.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if n.Status != domain.NewsPublished && sessionOf(ctx).Role() != users.RoleAdmin {
		return storage.ErrNotFound
	}
	body, err := s.render.HTML(n.Content)
	if err != nil {
		return err
	}
	return ctx.JSON(newData().
		With("news", n).
		With("html", body).
		With("categoryLabel", n.Category.Label()))
}

func (s *Server) handleContact(ctx *fiber.Ctx) error {
	var req contactRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	msg, err := s.contact.Submit(ctx.UserContext(), req.toMessage())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(newData().With("message", msg))
}

func (s *Server) handlePendingList(ctx *fiber.Ctx) error {
	pending, err := s.auth.ListPending(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("pending", pending))
}

func (s *Server) handleApprove(ctx *fiber.Ctx) error {
	if err := s.auth.ApproveAlumni(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return s.handlePendingList(ctx)
}

func (s *Server) handleReject(ctx *fiber.Ctx) error {
	if err := s.auth.RejectAlumni(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return s.handlePendingList(ctx)
}

func (s *Server) handleUsers(ctx *fiber.Ctx) error {
	list, err := s.auth.ListUsers(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("users", list))
}

func (s *Server) handleAdminNewsList(ctx *fiber.Ctx) error {
	list, err := s.news.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("news", list))
}

func (s *Server) handleNewsCreate(ctx *fiber.Ctx) error {
	var req newsRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	n, err := s.news.Create(ctx.UserContext(), req.toForm())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(newData().With("news", n))
}

func (s *Server) handleNewsUpdate(ctx *fiber.Ctx) error {
	var req newsRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	n, err := s.news.Update(ctx.UserContext(), ctx.Params("id"), req.toForm())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("news", n))
}

func (s *Server) handleNewsToggle(ctx *fiber.Ctx) error {
	n, err := s.news.ToggleStatus(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("news", n))
}

func confirmed(ctx *fiber.Ctx) error {
	if ctx.QueryBool("confirm") {
		return nil
	}
	return errConfirmRequired
}

func (s *Server) handleNewsDelete(ctx *fiber.Ctx) error {
	if err := confirmed(ctx); err != nil {
		return err
	}
	if err := s.news.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleAdminEventsList(ctx *fiber.Ctx) error {
	list, err := s.events.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("events", list))
}

func (s *Server) handleEventCreate(ctx *fiber.Ctx) error {
	var req eventRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	e, err := s.events.Create(ctx.UserContext(), req.toForm())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(newData().With("event", e))
}

func (s *Server) handleEventUpdate(ctx *fiber.Ctx) error {
	var req eventRequest
	if err := s.parse(ctx, &req); err != nil {
		return err
	}
	e, err := s.events.Update(ctx.UserContext(), ctx.Params("id"), req.toForm())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("event", e))
}

func (s *Server) handleEventDelete(ctx *fiber.Ctx) error {
	if err := confirmed(ctx); err != nil {
		return err
	}
	if err := s.events.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleContactList(ctx *fiber.Ctx) error {
	list, err := s.contact.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(newData().With("messages", list))
}
