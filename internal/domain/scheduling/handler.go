package scheduling

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/professional"
)

type Handler struct {
	co *Coordinator
}

func NewHandler(co *Coordinator) *Handler {
	return &Handler{co: co}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments/validate", h.ValidateAppointment)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments", h.CreateAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.PATCH("/appointments/:id", h.EditAppointmentCell)
	api.POST("/appointments/:id/move", h.MoveAppointment)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)
	api.GET("/professionals/:id/availability", h.ProbeAvailability)
}

// validateRequest is a candidate interval checked without writing.
type validateRequest struct {
	ProfessionalID uuid.UUID  `json:"professional_id" validate:"required"`
	Start          time.Time  `json:"start" validate:"required"`
	End            time.Time  `json:"end" validate:"required"`
	ExcludeID      *uuid.UUID `json:"exclude_id,omitempty"`
}

// ValidateAppointment always answers 200; the outcome says whether the slot
// is bookable.
func (h *Handler) ValidateAppointment(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	out, err := h.co.ValidateCandidate(c.Request().Context(), Candidate{
		ProfessionalID: req.ProfessionalID,
		Start:          req.Start,
		End:            req.End,
		ExcludeID:      req.ExcludeID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var f FormSubmission
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&f); err != nil {
		return err
	}
	a, out, err := h.co.SubmitForm(c.Request().Context(), f)
	return respond(c, http.StatusCreated, a, out, err)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var f FormSubmission
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f.AppointmentID = &id
	if err := c.Validate(&f); err != nil {
		return err
	}
	a, out, err := h.co.SubmitForm(c.Request().Context(), f)
	return respond(c, http.StatusOK, a, out, err)
}

func (h *Handler) EditAppointmentCell(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var e CellEdit
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.AppointmentID = id
	if err := c.Validate(&e); err != nil {
		return err
	}
	a, out, err := h.co.EditCell(c.Request().Context(), e)
	return respond(c, http.StatusOK, a, out, err)
}

func (h *Handler) MoveAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m DragDrop
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.AppointmentID = id
	if err := c.Validate(&m); err != nil {
		return err
	}
	a, out, err := h.co.Reschedule(c.Request().Context(), m)
	return respond(c, http.StatusOK, a, out, err)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.co.Cancel(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.co.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	profID, err := uuid.Parse(c.QueryParam("professional_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid professional_id")
	}
	date, err := professional.ParseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.co.ListDay(c.Request().Context(), profID, date)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"professional_id": profID,
		"date":            date,
		"appointments":    items,
	})
}

func (h *Handler) ProbeAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	at, err := time.Parse(time.RFC3339, c.QueryParam("at"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "at must be an RFC 3339 timestamp")
	}
	out, err := h.co.ProbeAvailability(c.Request().Context(), id, at)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// respond writes the saved appointment, a 422 rejection, or the mapped error.
func respond(c echo.Context, status int, a *Appointment, out Outcome, err error) error {
	if err != nil {
		return httpError(err)
	}
	if !out.Accepted {
		return c.JSON(http.StatusUnprocessableEntity, out)
	}
	return c.JSON(status, a)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProfessionalNotFound), errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrGuardBusy), errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "scheduling request timed out")
	case errors.Is(err, ErrStore):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
