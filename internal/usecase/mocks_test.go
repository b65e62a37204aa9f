package usecase

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"visit-tracking-service/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type mockPatientRepository struct {
	findByIDFn     func(ctx context.Context, id int64) (*entity.Patient, error)
	findPatientsFn func(ctx context.Context, filter entity.PatientFilter) ([]entity.Patient, int64, error)

	findByIDCalls     atomic.Int32
	findPatientsCalls atomic.Int32
	lastFilter        entity.PatientFilter
}

func (m *mockPatientRepository) FindByID(ctx context.Context, id int64) (*entity.Patient, error) {
	m.findByIDCalls.Add(1)
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPatientRepository) FindPatients(ctx context.Context, filter entity.PatientFilter) ([]entity.Patient, int64, error) {
	m.findPatientsCalls.Add(1)
	m.lastFilter = filter
	if m.findPatientsFn != nil {
		return m.findPatientsFn(ctx, filter)
	}
	return nil, 0, nil
}

type mockDoctorRepository struct {
	findByIDFn    func(ctx context.Context, id int64) (*entity.Doctor, error)
	countFn       func(ctx context.Context, doctorIDs []int64) (map[int64]int64, error)
	findByIDCalls atomic.Int32
	countCalls    atomic.Int32
}

func (m *mockDoctorRepository) FindByID(ctx context.Context, id int64) (*entity.Doctor, error) {
	m.findByIDCalls.Add(1)
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDoctorRepository) CountDistinctPatientsPerDoctor(ctx context.Context, doctorIDs []int64) (map[int64]int64, error) {
	m.countCalls.Add(1)
	if m.countFn != nil {
		return m.countFn(ctx, doctorIDs)
	}
	return map[int64]int64{}, nil
}

type mockVisitRepository struct {
	findByPatientIDsFn func(ctx context.Context, patientIDs []int64) ([]entity.Visit, error)
	existsConflictFn   func(ctx context.Context, doctorID int64, start, end time.Time) (bool, error)
	createFn           func(ctx context.Context, visit *entity.Visit) error

	findByPatientIDsCalls atomic.Int32
	existsConflictCalls   atomic.Int32
	createCalls           atomic.Int32
}

func (m *mockVisitRepository) FindByPatientIDs(ctx context.Context, patientIDs []int64) ([]entity.Visit, error) {
	m.findByPatientIDsCalls.Add(1)
	if m.findByPatientIDsFn != nil {
		return m.findByPatientIDsFn(ctx, patientIDs)
	}
	return nil, nil
}

func (m *mockVisitRepository) ExistsConflict(ctx context.Context, doctorID int64, start, end time.Time) (bool, error) {
	m.existsConflictCalls.Add(1)
	if m.existsConflictFn != nil {
		return m.existsConflictFn(ctx, doctorID, start, end)
	}
	return false, nil
}

func (m *mockVisitRepository) Create(ctx context.Context, visit *entity.Visit) error {
	m.createCalls.Add(1)
	if m.createFn != nil {
		return m.createFn(ctx, visit)
	}
	visit.ID = 1
	return nil
}

type mockDoctorLocker struct {
	lockFn      func(ctx context.Context, doctorID int64) (func(), error)
	lockCalls   atomic.Int32
	unlockCalls atomic.Int32
}

func (m *mockDoctorLocker) Lock(ctx context.Context, doctorID int64) (func(), error) {
	m.lockCalls.Add(1)
	if m.lockFn != nil {
		return m.lockFn(ctx, doctorID)
	}
	return func() { m.unlockCalls.Add(1) }, nil
}

type mockAuditService struct {
	logCreateFn    func(ctx context.Context, action string, entityName string, entityID int64, newValue interface{}) error
	logCreateCalls atomic.Int32
}

func (m *mockAuditService) LogCreate(ctx context.Context, action string, entityName string, entityID int64, newValue interface{}) error {
	m.logCreateCalls.Add(1)
	if m.logCreateFn != nil {
		return m.logCreateFn(ctx, action, entityName, entityID, newValue)
	}
	return nil
}
