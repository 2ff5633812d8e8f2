package handler

import (
	"log/slog"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AppointmentHandler handles the service catalog and appointments
type AppointmentHandler struct {
	appointmentService service.AppointmentService
	logger             *slog.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(logger *slog.Logger, appointmentService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
		logger:             logger,
	}
}

func (h *AppointmentHandler) ListServices(c *gin.Context) {
	services, err := h.appointmentService.ListServices(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if services == nil {
		services = []*clinic.Service{}
	}
	RespondOK(c, services)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	var params AppointmentListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := clinic.AppointmentFilter{
		Status: clinic.AppointmentStatus(params.Status),
		Limit:  params.Limit,
	}
	if params.PatientID != "" {
		patientID := uuid.MustParse(params.PatientID)
		filter.PatientID = &patientID
	}

	appointments, err := h.appointmentService.ListAppointments(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if appointments == nil {
		appointments = []*clinic.Appointment{}
	}
	RespondOK(c, appointments)
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	appt, err := h.appointmentService.CreateAppointment(c.Request.Context(), service.CreateAppointmentRequest{
		PatientID: uuid.MustParse(req.PatientID),
		ServiceID: uuid.MustParse(req.ServiceID),
		StartTime: req.StartTime,
		Notes:     req.Notes,
		Source:    req.Source,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, appt)
}

// UpdateStatus confirms an appointment or marks it a no-show
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	appointmentID, ok := parseIDParam(c, "id", "Invalid appointment ID")
	if !ok {
		return
	}
	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	appt, err := h.appointmentService.UpdateStatus(c.Request.Context(), appointmentID, clinic.AppointmentStatus(req.Status))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, appt)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appointmentID, ok := parseIDParam(c, "id", "Invalid appointment ID")
	if !ok {
		return
	}
	var req CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	appt, err := h.appointmentService.CancelAppointment(c.Request.Context(), appointmentID, uuid.MustParse(req.PatientID))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, appt)
}
