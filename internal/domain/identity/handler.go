package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /auth on api. register and login are public; the
// rest run behind authn.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)

	private := g.Group("", authn)
	private.POST("/logout", h.Logout)
	private.GET("/me", h.Me)
	private.PUT("/me", h.UpdateMe)
}

type sessionResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	in.Name = middleware.SanitizeString(in.Name)

	sess, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sessionResponse{
		Message: "User registered successfully",
		Token:   sess.Token,
		User:    sess.User,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	sess, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Message: "Login successful",
		Token:   sess.Token,
		User:    sess.User,
	})
}

// Logout only acknowledges; tokens are stateless and the client drops its
// copy.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.GetUser(ctx, UserID(auth.UserIDFromContext(ctx)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": u})
}

func (h *Handler) UpdateMe(c echo.Context) error {
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	for _, f := range []*string{upd.Name, upd.Phone, upd.Specialization} {
		if f != nil {
			*f = middleware.SanitizeString(*f)
		}
	}

	ctx := c.Request().Context()
	u, err := h.svc.UpdateProfile(ctx, UserID(auth.UserIDFromContext(ctx)), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    u,
	})
}
