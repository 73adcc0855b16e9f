package doctor

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/storage"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/:id", h.UpsertDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)
	api.GET("/doctors/:id/unavailable", h.ListUnavailableDates)
	api.POST("/doctors/:id/unavailable", h.ToggleUnavailableDate)
}

// profileRequest carries hours as HH:MM strings. Omitted fields take the
// clinic defaults.
type profileRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	MorningStart   string `json:"morning_start"`
	MorningEnd     string `json:"morning_end"`
	EveningStart   string `json:"evening_start"`
	EveningEnd     string `json:"evening_end"`
}

type toggleRequest struct {
	Date string `json:"date"`
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpsertDoctor(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hours, err := ParseHours(req.MorningStart, req.MorningEnd, req.EveningStart, req.EveningEnd)
	if err != nil {
		return httpError(err)
	}
	p := &Profile{
		DoctorID:       c.Param("id"),
		Name:           req.Name,
		Specialization: req.Specialization,
		Hours:          hours,
	}
	if err := h.svc.Upsert(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ToggleUnavailableDate(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	action, err := h.svc.ToggleUnavailableDate(c.Request().Context(), c.Param("id"), req.Date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"action": string(action)})
}

func (h *Handler) ListUnavailableDates(c echo.Context) error {
	dates, err := h.svc.UnavailableDates(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dates)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, ErrInvalidDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	case errors.Is(err, storage.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
