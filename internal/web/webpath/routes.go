package webpath

const (
	Signin  = "/signin"
	Signup  = "/signup"
	Signout = "/signout"
	Home    = "/"

	Api         = "/api"
	ApiHome     = Api + "/home"
	ApiAbout    = Api + "/about"
	ApiAlumni   = Api + "/alumni"
	ApiEvents   = Api + "/events"
	ApiNews     = Api + "/news"
	ApiNewsItem = Api + "/news/:id"
	ApiContact  = Api + "/contact"
	ApiSession  = Api + "/session"

	Admin           = Api + "/admin"
	AdminPending    = Admin + "/pending"
	AdminApprove    = AdminPending + "/:id/approve"
	AdminReject     = AdminPending + "/:id/reject"
	AdminUsers      = Admin + "/users"
	AdminNews       = Admin + "/news"
	AdminNewsItem   = AdminNews + "/:id"
	AdminNewsToggle = AdminNewsItem + "/toggle"
	AdminEvents     = Admin + "/events"
	AdminEventsItem = AdminEvents + "/:id"
	AdminContact    = Admin + "/contact"
)

func Path() map[string]string {
	return map[string]string{
		"SignUp":       Signup,
		"SignIn":       Signin,
		"SignOut":      Signout,
		"Home":         ApiHome,
		"About":        ApiAbout,
		"Alumni":       ApiAlumni,
		"Events":       ApiEvents,
		"News":         ApiNews,
		"Contact":      ApiContact,
		"Session":      ApiSession,
		"AdminPending": AdminPending,
		"AdminUsers":   AdminUsers,
		"AdminNews":    AdminNews,
		"AdminEvents":  AdminEvents,
		"AdminContact": AdminContact,
	}
}
