package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCounter reports how many checkout sessions the process holds
type SessionCounter interface {
	SessionCount() int
}

// SystemHandler handles liveness, readiness and build info endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	sessions  SessionCounter
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, sessions SessionCounter) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		sessions:  sessions,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name         string `json:"name" example:"pos-checkout"`
	Version      string `json:"version" example:"1.0.0"`
	GoVersion    string `json:"go_version" example:"go1.25.5"`
	Uptime       string `json:"uptime" example:"1h30m45s"`
	OpenSessions int    `json:"open_sessions" example:"3"`
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-03-14T11:30:00Z"`
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Description  Returns version, uptime and the number of held checkout sessions
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.sessions != nil {
		info.OpenSessions = h.sessions.SessionCount()
	}
	h.Success(c, info)
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /health [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
