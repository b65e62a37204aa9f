package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"visit-tracking-service/internal/converter"
	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
	"visit-tracking-service/internal/domain/repository"
	"visit-tracking-service/internal/service"

	"github.com/sirupsen/logrus"
)

const DefaultPageSize = 20

type PatientUsecase interface {
	ListPatients(ctx context.Context, req *dto.ListPatientsRequest) (*dto.PatientsListResponse, error)
}

type patientUsecase struct {
	log           *logrus.Logger
	patientRepo   repository.PatientRepository
	doctorRepo    repository.DoctorRepository
	visitRepo     repository.VisitRepository
	timeConverter *service.TimeConverter
}

func NewPatientUsecase(
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	visitRepo repository.VisitRepository,
	timeConverter *service.TimeConverter,
) PatientUsecase {
	return &patientUsecase{
		log:           log,
		patientRepo:   patientRepo,
		doctorRepo:    doctorRepo,
		visitRepo:     visitRepo,
		timeConverter: timeConverter,
	}
}

// NewPatientFilter normalizes 1-based paging input. Page and size that are
// not positive fall back to the first page and DefaultPageSize.
func NewPatientFilter(req *dto.ListPatientsRequest) entity.PatientFilter {
	filter := entity.PatientFilter{
		Search:     req.Search,
		DoctorIDs:  req.DoctorIDs,
		PageNumber: max(req.Page-1, 0),
		PageSize:   DefaultPageSize,
	}
	if req.Size > 0 {
		filter.PageSize = req.Size
	}
	return filter
}

type visitKey struct {
	patientID int64
	doctorID  int64
}

// ListPatients returns a page of patients, each with their last visit per
// doctor rendered in that doctor's local time.
func (u *patientUsecase) ListPatients(ctx context.Context, req *dto.ListPatientsRequest) (*dto.PatientsListResponse, error) {
	filter := NewPatientFilter(req)

	patients, total, err := u.patientRepo.FindPatients(ctx, filter)
	if err != nil {
		u.log.Warnf("Failed to find patients: %+v", err)
		return nil, err
	}

	response := &dto.PatientsListResponse{
		Data:  make([]dto.PatientVisitResponse, 0, len(patients)),
		Count: total,
	}
	if len(patients) == 0 {
		return response, nil
	}

	patientIDs := make([]int64, len(patients))
	for i, patient := range patients {
		patientIDs[i] = patient.ID
	}

	visits, err := u.visitRepo.FindByPatientIDs(ctx, patientIDs)
	if err != nil {
		u.log.Warnf("Failed to find visits for %d patients: %+v", len(patientIDs), err)
		return nil, err
	}

	lastVisits := LatestVisitPerDoctor(visits)

	doctorPatientCounts := map[int64]int64{}
	if doctorIDs := distinctDoctorIDs(visits); len(doctorIDs) > 0 {
		doctorPatientCounts, err = u.doctorRepo.CountDistinctPatientsPerDoctor(ctx, doctorIDs)
		if err != nil {
			u.log.Warnf("Failed to count patients per doctor: %+v", err)
			return nil, err
		}
	}

	for _, patient := range patients {
		entries, err := u.buildLastVisits(lastVisits[patient.ID], doctorPatientCounts)
		if err != nil {
			return nil, err
		}
		response.Data = append(response.Data, dto.PatientVisitResponse{
			FirstName:  patient.FirstName,
			LastName:   patient.LastName,
			LastVisits: entries,
		})
	}

	return response, nil
}

func (u *patientUsecase) buildLastVisits(visits []*entity.Visit, doctorPatientCounts map[int64]int64) ([]dto.LastVisitResponse, error) {
	entries := make([]dto.LastVisitResponse, 0, len(visits))
	for _, visit := range visits {
		start, err := u.timeConverter.ToLocal(visit.StartDateTime, visit.Doctor.Timezone)
		if err != nil {
			return nil, fmt.Errorf("render visit %d for doctor %d: %w", visit.ID, visit.DoctorID, err)
		}
		end, err := u.timeConverter.ToLocal(visit.EndDateTime, visit.Doctor.Timezone)
		if err != nil {
			return nil, fmt.Errorf("render visit %d for doctor %d: %w", visit.ID, visit.DoctorID, err)
		}

		entries = append(entries, dto.LastVisitResponse{
			Start:  start,
			End:    end,
			Doctor: converter.DoctorToPatientsSummary(&visit.Doctor, doctorPatientCounts[visit.DoctorID]),
		})
	}
	return entries, nil
}

// LatestVisitPerDoctor keeps, for every (patient, doctor) pair, the visit with
// the latest start. On equal starts the visit that comes later in visits wins.
// The result maps patient id to that patient's kept visits, newest first
// (equal starts ordered by doctor id).
func LatestVisitPerDoctor(visits []entity.Visit) map[int64][]*entity.Visit {
	latest := make(map[visitKey]*entity.Visit)
	for i := range visits {
		visit := &visits[i]
		key := visitKey{patientID: visit.PatientID, doctorID: visit.DoctorID}
		if kept, ok := latest[key]; ok && kept.StartDateTime.After(visit.StartDateTime) {
			continue
		}
		latest[key] = visit
	}

	byPatient := make(map[int64][]*entity.Visit)
	for key, visit := range latest {
		byPatient[key.patientID] = append(byPatient[key.patientID], visit)
	}
	for _, list := range byPatient {
		sort.Slice(list, func(i, j int) bool {
			if !list[i].StartDateTime.Equal(list[j].StartDateTime) {
				return list[i].StartDateTime.After(list[j].StartDateTime)
			}
			return list[i].DoctorID < list[j].DoctorID
		})
	}
	return byPatient
}

func distinctDoctorIDs(visits []entity.Visit) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, visit := range visits {
		if _, ok := seen[visit.DoctorID]; ok {
			continue
		}
		seen[visit.DoctorID] = struct{}{}
		ids = append(ids, visit.DoctorID)
	}
	slices.Sort(ids)
	return ids
}
