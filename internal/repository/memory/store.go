// Package memory is a process-local storage adapter used for development,
// tests and STORAGE_DRIVER=memory deployments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"visit-tracking-service/internal/domain/entity"
	domainRepo "visit-tracking-service/internal/domain/repository"

	"golang.org/x/text/cases"
)

// Store holds every table behind a single RWMutex
type Store struct {
	mu sync.RWMutex

	doctors   map[int64]entity.Doctor
	patients  map[int64]entity.Patient
	visits    map[int64]entity.Visit
	auditLogs []entity.AuditLog

	lastDoctorID  int64
	lastPatientID int64
	lastVisitID   int64
	lastAuditID   int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		doctors:  make(map[int64]entity.Doctor),
		patients: make(map[int64]entity.Patient),
		visits:   make(map[int64]entity.Visit),
		now:      time.Now,
	}
}

func (s *Store) Patients() domainRepo.PatientRepository   { return &patientRepo{s} }
func (s *Store) Doctors() domainRepo.DoctorRepository     { return &doctorRepo{s} }
func (s *Store) Visits() domainRepo.VisitRepository       { return &visitRepo{s} }
func (s *Store) AuditLogs() domainRepo.AuditLogRepository { return &auditLogRepo{s} }
func (s *Store) Seed() domainRepo.SeedRepository          { return &seedRepo{s} }

// AuditLogCount returns how many audit rows were written
func (s *Store) AuditLogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.auditLogs)
}

type patientRepo struct{ s *Store }

func (r *patientRepo) FindByID(ctx context.Context, id int64) (*entity.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *patientRepo) FindPatients(ctx context.Context, filter entity.PatientFilter) ([]entity.Patient, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var search string
	if strings.TrimSpace(filter.Search) != "" {
		search = cases.Fold().String(filter.Search)
	}

	var withDoctor map[int64]bool
	if len(filter.DoctorIDs) > 0 {
		withDoctor = make(map[int64]bool)
		for _, v := range r.s.visits {
			if slices.Contains(filter.DoctorIDs, v.DoctorID) {
				withDoctor[v.PatientID] = true
			}
		}
	}

	matched := make([]entity.Patient, 0)
	for _, p := range r.s.patients {
		if search != "" && !strings.Contains(cases.Fold().String(p.FullName()), search) {
			continue
		}
		if withDoctor != nil && !withDoctor[p.ID] {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	from := min(filter.Offset(), len(matched))
	to := from + min(len(matched)-from, max(filter.PageSize, 0))
	return matched[from:to], total, nil
}

type doctorRepo struct{ s *Store }

func (r *doctorRepo) FindByID(ctx context.Context, id int64) (*entity.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *doctorRepo) CountDistinctPatientsPerDoctor(ctx context.Context, doctorIDs []int64) (map[int64]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[int64]map[int64]struct{})
	for _, v := range r.s.visits {
		if !slices.Contains(doctorIDs, v.DoctorID) {
			continue
		}
		if seen[v.DoctorID] == nil {
			seen[v.DoctorID] = make(map[int64]struct{})
		}
		seen[v.DoctorID][v.PatientID] = struct{}{}
	}

	counts := make(map[int64]int64, len(seen))
	for doctorID, patients := range seen {
		counts[doctorID] = int64(len(patients))
	}
	return counts, nil
}

type visitRepo struct{ s *Store }

func (r *visitRepo) FindByPatientIDs(ctx context.Context, patientIDs []int64) ([]entity.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.Visit, 0)
	for _, v := range r.s.visits {
		if !slices.Contains(patientIDs, v.PatientID) {
			continue
		}
		v.Patient = r.s.patients[v.PatientID]
		v.Doctor = r.s.doctors[v.DoctorID]
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDateTime.Equal(out[j].StartDateTime) {
			return out[i].StartDateTime.After(out[j].StartDateTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *visitRepo) ExistsConflict(ctx context.Context, doctorID int64, start, end time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	candidate := entity.Interval{Start: start, End: end}
	for _, v := range r.s.visits {
		if v.DoctorID == doctorID && entity.Overlaps(v.Interval(), candidate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *visitRepo) Create(ctx context.Context, visit *entity.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertVisit(visit)
}

// insertVisit enforces the foreign keys and start <= end the way the schema does.
// Callers hold the write lock.
func (s *Store) insertVisit(visit *entity.Visit) error {
	if _, ok := s.patients[visit.PatientID]; !ok {
		return fmt.Errorf("visit references unknown patient %d", visit.PatientID)
	}
	if _, ok := s.doctors[visit.DoctorID]; !ok {
		return fmt.Errorf("visit references unknown doctor %d", visit.DoctorID)
	}
	if visit.StartDateTime.After(visit.EndDateTime) {
		return errors.New("visit starts after it ends")
	}

	s.lastVisitID++
	visit.ID = s.lastVisitID
	stored := *visit
	stored.Patient = entity.Patient{}
	stored.Doctor = entity.Doctor{}
	s.visits[stored.ID] = stored
	return nil
}

type auditLogRepo struct{ s *Store }

func (r *auditLogRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.lastAuditID++
	log.ID = r.s.lastAuditID
	log.CreatedAt = r.s.now()
	r.s.auditLogs = append(r.s.auditLogs, *log)
	return nil
}

type seedRepo struct{ s *Store }

func (r *seedRepo) CountDoctors(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.doctors)), nil
}

func (r *seedRepo) CreateDoctors(ctx context.Context, doctors []entity.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range doctors {
		r.s.lastDoctorID++
		doctors[i].ID = r.s.lastDoctorID
		stored := doctors[i]
		stored.Visits = nil
		r.s.doctors[stored.ID] = stored
	}
	return nil
}

func (r *seedRepo) CreatePatients(ctx context.Context, patients []entity.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range patients {
		r.s.lastPatientID++
		patients[i].ID = r.s.lastPatientID
		stored := patients[i]
		stored.Visits = nil
		r.s.patients[stored.ID] = stored
	}
	return nil
}

func (r *seedRepo) CreateVisits(ctx context.Context, visits []entity.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range visits {
		if err := r.s.insertVisit(&visits[i]); err != nil {
			return err
		}
	}
	return nil
}
