package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/service"
	"visit-tracking-service/internal/usecase"
	"visit-tracking-service/pkg/response"
	"visit-tracking-service/pkg/validator"
)

type VisitHandler struct {
	visitUsecase   usecase.VisitUsecase
	patientUsecase usecase.PatientUsecase
	validator      *validator.CustomValidator
}

func NewVisitHandler(visitUsecase usecase.VisitUsecase, patientUsecase usecase.PatientUsecase, validator *validator.CustomValidator) *VisitHandler {
	return &VisitHandler{
		visitUsecase:   visitUsecase,
		patientUsecase: patientUsecase,
		validator:      validator,
	}
}

func (h *VisitHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	visit, err := h.visitUsecase.CreateVisit(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPatientNotFound), errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, usecase.ErrInvalidTimeRange),
			errors.Is(err, service.ErrMalformedTimestamp),
			errors.Is(err, service.ErrInvalidTimezone):
			response.BadRequest(w, err.Error())
		case errors.Is(err, usecase.ErrSchedulingConflict):
			response.Conflict(w, err.Error())
		case errors.Is(err, service.ErrDoctorLockTimeout):
			response.ServiceUnavailable(w, "Doctor schedule is busy, try again")
		default:
			response.InternalServerError(w, "Failed to create visit")
		}
		return
	}

	response.JSON(w, http.StatusCreated, visit)
}

func (h *VisitHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	req, fieldErrors := parseListPatientsQuery(r)
	if len(fieldErrors) > 0 {
		response.ValidationError(w, fieldErrors)
		return
	}

	list, err := h.patientUsecase.ListPatients(r.Context(), req)
	if err != nil {
		response.InternalServerError(w, "Failed to list patients")
		return
	}

	response.JSON(w, http.StatusOK, list)
}

// parseListPatientsQuery reads page, size, search and doctorIds.
// doctorIds is a comma-separated list; blank entries are ignored.
func parseListPatientsQuery(r *http.Request) (*dto.ListPatientsRequest, map[string]string) {
	query := r.URL.Query()
	fieldErrors := make(map[string]string)
	req := &dto.ListPatientsRequest{Search: query.Get("search")}

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrors["page"] = "page must be an integer"
		}
		req.Page = page
	}

	if raw := strings.TrimSpace(query.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrors["size"] = "size must be an integer"
		}
		req.Size = size
	}

	for _, value := range query["doctorIds"] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				fieldErrors["doctorIds"] = "doctorIds must be a comma-separated list of integers"
				continue
			}
			req.DoctorIDs = append(req.DoctorIDs, id)
		}
	}

	return req, fieldErrors
}
