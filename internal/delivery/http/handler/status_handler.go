package handler

import (
	"net/http"
	"strings"

	"pulse/internal/delivery/http/response"
	"pulse/internal/domain/entity"
	"pulse/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// StatusHandler exposes the read-only projection of a running session plus
// the two user actions the core supports: requesting notification permission
// and editing the notification preference.
type StatusHandler struct {
	session usecase.SessionUsecase
}

// StatusHandlerParams holds dependencies for the StatusHandler.
type StatusHandlerParams struct {
	fx.In

	Session usecase.SessionUsecase
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(params StatusHandlerParams) *StatusHandler {
	return &StatusHandler{session: params.Session}
}

// HealthCheck reports process liveness.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetStatus returns the session projection.
func (h *StatusHandler) GetStatus(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.session.Status(), "")
}

// GetAlerts returns the newest-first alert buffer.
func (h *StatusHandler) GetAlerts(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.session.Alerts(), "")
}

// GetIncidents returns the newest-first incident buffer.
func (h *StatusHandler) GetIncidents(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.session.Incidents(), "")
}

// GetSystem returns the newest-first system notification buffer.
func (h *StatusHandler) GetSystem(c echo.Context) error {
	return response.Success(c, http.StatusOK, h.session.System(), "")
}

// MarkRead flags one buffered event read.
func (h *StatusHandler) MarkRead(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.BadRequest(c, "MISSING_ID", "event id is required")
	}
	h.session.MarkRead(id)

	return response.Success(c, http.StatusOK, nil, "")
}

// RequestPermission forwards the explicit user action to the presenter.
func (h *StatusHandler) RequestPermission(c echo.Context) error {
	state, err := h.session.RequestNotificationPermission(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "PERMISSION_REQUEST_FAILED", err.Error())
	}

	return response.Success(c, http.StatusOK, map[string]string{"permission": string(state)}, "")
}

// UpdatePreferenceRequest is the PUT /preferences body. Nil fields are left
// untouched.
type UpdatePreferenceRequest struct {
	Enabled    *bool           `json:"enabled"`
	Volume     *float64        `json:"volume"`
	Severities map[string]bool `json:"severities"`
}

// UpdatePreference mutates the user's notification preference.
func (h *StatusHandler) UpdatePreference(c echo.Context) error {
	var req UpdatePreferenceRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_BODY", "could not parse preference update")
	}
	if req.Volume != nil && (*req.Volume < 0 || *req.Volume > 1) {
		return response.BadRequest(c, "INVALID_PREFERENCE", "volume must lie in [0, 1]")
	}

	severities := make(map[entity.Severity]bool, len(req.Severities))
	for name, enabled := range req.Severities {
		severity, err := entity.ParseSeverity(strings.ToLower(name))
		if err != nil {
			return response.BadRequest(c, "INVALID_PREFERENCE", err.Error())
		}
		severities[severity] = enabled
	}

	h.session.UpdatePreference(func(pref *entity.NotificationPreference) {
		if req.Enabled != nil {
			pref.Enabled = *req.Enabled
		}
		if req.Volume != nil {
			pref.Volume = *req.Volume
		}
		for severity, enabled := range severities {
			pref.PerSeverity[severity] = enabled
		}
	})

	return response.Success(c, http.StatusOK, h.session.Preference(), "")
}
