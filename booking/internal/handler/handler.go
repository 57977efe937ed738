package handler

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/Astemirdum/room-booking/booking/internal/errs"
	"github.com/Astemirdum/room-booking/booking/internal/model"
	"github.com/Astemirdum/room-booking/pkg/auth"
	"github.com/Astemirdum/room-booking/pkg/logger"
	md "github.com/Astemirdum/room-booking/pkg/middleware"
	"github.com/Astemirdum/room-booking/pkg/validate"
	_ "github.com/Astemirdum/room-booking/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	bookingSvc BookingService
	catalogSvc CatalogService
	log        *zap.Logger
}

func New(bookingSvc BookingService, catalogSvc CatalogService, log *zap.Logger) *Handler {
	return &Handler{
		bookingSvc: bookingSvc,
		catalogSvc: catalogSvc,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter(authCfg auth.Config, logCfg logger.Log) *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()

	var identity echo.MiddlewareFunc = md.AuthContext
	if authCfg.JWTKey != "" {
		identity = md.JwtAuthentication([]byte(authCfg.JWTKey))
	}
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(logCfg)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		identity,
	)
	h.register(api)

	return e
}

func (h *Handler) register(api *echo.Group) {
	api.POST("/bookings", h.CreateBooking)
	api.GET("/bookings", h.FilterBookings)
	api.GET("/me/bookings", h.MyBookings)
	api.PUT("/bookings/:roomName/:startTime", h.UpdateBooking)
	api.DELETE("/bookings/:roomName/:startTime", h.DeleteBooking)

	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", h.CreateRoom)
	api.DELETE("/rooms/:roomName", h.DeleteRoom)
	api.GET("/rooms/:roomName/available-hours", h.GetAvailableHours)

	api.POST("/users", h.CreateUser)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var req model.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	b, err := h.bookingSvc.CreateBooking(ctx, caller(c), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) FilterBookings(c echo.Context) error {
	var filter model.BookingFilter
	if v := c.QueryParam("date"); v != "" {
		date, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		filter.Date = &date
	}
	if v := c.QueryParam("username"); v != "" {
		filter.Username = &v
	}
	if v := c.QueryParam("roomName"); v != "" {
		filter.RoomName = &v
	}

	ctx := c.Request().Context()
	items, err := h.bookingSvc.FilterBookings(ctx, filter)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MyBookings(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.bookingSvc.UserBookings(ctx, caller(c))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateBooking(c echo.Context) error {
	roomName, start, err := bookingKey(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.OriginalRoomName = roomName
	req.OriginalStartTime = start
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	b, err := h.bookingSvc.UpdateBooking(ctx, caller(c), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c echo.Context) error {
	roomName, start, err := bookingKey(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.bookingSvc.DeleteBooking(ctx, caller(c), roomName, start); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetAvailableHours(c echo.Context) error {
	roomName, err := pathParam(c, "roomName")
	if err != nil {
		return err
	}
	date, err := time.Parse(time.DateOnly, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	ctx := c.Request().Context()
	hours, err := h.bookingSvc.GetAvailableHours(ctx, date, roomName)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.AvailableHours{
		RoomName: roomName,
		Date:     model.Date{Time: date},
		Hours:    slices.AppendSeq(make([]int, 0, 24), hours),
	})
}

func (h *Handler) ListRooms(c echo.Context) error {
	ctx := c.Request().Context()
	rooms, err := h.catalogSvc.ListRooms(ctx)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *Handler) CreateRoom(c echo.Context) error {
	var room model.Room
	if err := c.Bind(&room); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(room); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	created, err := h.catalogSvc.CreateRoom(ctx, caller(c), room)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) DeleteRoom(c echo.Context) error {
	roomName, err := pathParam(c, "roomName")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.catalogSvc.DeleteRoom(ctx, caller(c), roomName); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var user model.User
	if err := c.Bind(&user); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(user); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	created, err := h.catalogSvc.CreateUser(ctx, caller(c), user)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// caller is the anonymous identity when the request carries none.
func caller(c echo.Context) auth.Identity {
	id, _ := auth.FromContext(c.Request().Context())
	return id
}

func pathParam(c echo.Context, name string) (string, error) {
	v, err := url.PathUnescape(c.Param(name))
	if err != nil || v == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func bookingKey(c echo.Context) (string, time.Time, error) {
	roomName, err := pathParam(c, "roomName")
	if err != nil {
		return "", time.Time{}, err
	}
	raw, err := pathParam(c, "startTime")
	if err != nil {
		return "", time.Time{}, err
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "startTime must be RFC 3339")
	}
	return roomName, start, nil
}

func (h *Handler) httpError(err error) *echo.HTTPError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, errs.ErrPermissionDenied):
		code = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		code = http.StatusConflict
	default:
		h.log.Error("internal", zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error())
}
