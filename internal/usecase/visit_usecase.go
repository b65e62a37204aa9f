package usecase

import (
	"context"
	"errors"
	"fmt"

	"visit-tracking-service/internal/converter"
	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
	"visit-tracking-service/internal/domain/repository"
	"visit-tracking-service/internal/service"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrInvalidTimeRange   = errors.New("start time cannot be after end time")
	ErrSchedulingConflict = errors.New("doctor has conflicting visit at this time")
)

type VisitUsecase interface {
	CreateVisit(ctx context.Context, req *dto.CreateVisitRequest) (*dto.VisitResponse, error)
}

// DoctorLocker serializes bookings for a single doctor
type DoctorLocker interface {
	Lock(ctx context.Context, doctorID int64) (func(), error)
}

type visitUsecase struct {
	log           *logrus.Logger
	patientRepo   repository.PatientRepository
	doctorRepo    repository.DoctorRepository
	visitRepo     repository.VisitRepository
	timeConverter *service.TimeConverter
	doctorLocker  DoctorLocker
	auditService  service.AuditService
}

func NewVisitUsecase(
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	visitRepo repository.VisitRepository,
	timeConverter *service.TimeConverter,
	doctorLocker DoctorLocker,
	auditService service.AuditService,
) VisitUsecase {
	return &visitUsecase{
		log:           log,
		patientRepo:   patientRepo,
		doctorRepo:    doctorRepo,
		visitRepo:     visitRepo,
		timeConverter: timeConverter,
		doctorLocker:  doctorLocker,
		auditService:  auditService,
	}
}

// CreateVisit books a visit in the doctor's local time.
//
// Flow:
// 1. Validate patient exists
// 2. Validate doctor exists
// 3. Parse start/end in the doctor's timezone and convert to canonical time
// 4. Validate start <= end
// 5. Under the doctor lock: check for conflicts, then insert
// 6. Audit log (non-fatal)
//
// Nothing is written unless every check passes.
func (u *visitUsecase) CreateVisit(ctx context.Context, req *dto.CreateVisitRequest) (*dto.VisitResponse, error) {
	patient, err := u.patientRepo.FindByID(ctx, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %d: %+v", req.PatientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, fmt.Errorf("%w with ID: %d", ErrPatientNotFound, req.PatientID)
	}

	doctor, err := u.doctorRepo.FindByID(ctx, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %d: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, fmt.Errorf("%w with ID: %d", ErrDoctorNotFound, req.DoctorID)
	}

	start, err := u.timeConverter.ToCanonical(req.Start, doctor.Timezone)
	if err != nil {
		return nil, err
	}
	end, err := u.timeConverter.ToCanonical(req.End, doctor.Timezone)
	if err != nil {
		return nil, err
	}

	if start.After(end) {
		return nil, ErrInvalidTimeRange
	}

	visit := &entity.Visit{
		StartDateTime: start,
		EndDateTime:   end,
		PatientID:     patient.ID,
		DoctorID:      doctor.ID,
	}

	if err := u.bookLocked(ctx, visit); err != nil {
		return nil, err
	}

	visit.Patient = *patient
	visit.Doctor = *doctor
	response := converter.VisitToResponse(visit)

	if err := u.auditService.LogCreate(ctx, entity.AuditActionVisitCreate, "visit", visit.ID, response); err != nil {
		u.log.Warnf("Failed to create audit log for visit %d: %+v", visit.ID, err)
	}

	u.log.Infof("Visit created: id=%d, doctor=%d, patient=%d, start=%s", visit.ID, doctor.ID, patient.ID, start.Format("2006-01-02T15:04:05Z07:00"))
	return response, nil
}

// bookLocked runs the conflict check and the insert as one critical section per doctor
func (u *visitUsecase) bookLocked(ctx context.Context, visit *entity.Visit) error {
	unlock, err := u.doctorLocker.Lock(ctx, visit.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to lock schedule of doctor %d: %+v", visit.DoctorID, err)
		return err
	}
	defer unlock()

	conflict, err := u.visitRepo.ExistsConflict(ctx, visit.DoctorID, visit.StartDateTime, visit.EndDateTime)
	if err != nil {
		u.log.Warnf("Failed to check conflicts for doctor %d: %+v", visit.DoctorID, err)
		return err
	}
	if conflict {
		return ErrSchedulingConflict
	}

	if err := u.visitRepo.Create(ctx, visit); err != nil {
		// Another process without the shared lock got there first
		if isExclusionViolation(err) {
			return ErrSchedulingConflict
		}
		u.log.Warnf("Failed to create visit: %+v", err)
		return err
	}

	return nil
}

// isExclusionViolation checks for PostgreSQL error code 23P01 (exclusion_violation)
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01"
	}
	return false
}
