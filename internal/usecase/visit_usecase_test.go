package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
	"visit-tracking-service/internal/service"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visitFixture struct {
	patients *mockPatientRepository
	doctors  *mockDoctorRepository
	visits   *mockVisitRepository
	locker   *mockDoctorLocker
	audit    *mockAuditService
	usecase  VisitUsecase
}

func newVisitFixture() *visitFixture {
	f := &visitFixture{
		patients: &mockPatientRepository{
			findByIDFn: func(_ context.Context, id int64) (*entity.Patient, error) {
				if id == 1 {
					return &entity.Patient{ID: 1, FirstName: "Jane", LastName: "Roe"}, nil
				}
				return nil, nil
			},
		},
		doctors: &mockDoctorRepository{
			findByIDFn: func(_ context.Context, id int64) (*entity.Doctor, error) {
				if id == 2 {
					return &entity.Doctor{ID: 2, FirstName: "John", LastName: "Doe", Timezone: "America/New_York"}, nil
				}
				return nil, nil
			},
		},
		visits: &mockVisitRepository{},
		locker: &mockDoctorLocker{},
		audit:  &mockAuditService{},
	}
	f.usecase = NewVisitUsecase(quietLogger(), f.patients, f.doctors, f.visits,
		service.NewTimeConverter(time.UTC), f.locker, f.audit)
	return f
}

func visitRequest(start, end string) *dto.CreateVisitRequest {
	return &dto.CreateVisitRequest{Start: start, End: end, PatientID: 1, DoctorID: 2}
}

func TestCreateVisit_Success(t *testing.T) {
	f := newVisitFixture()

	var stored *entity.Visit
	f.visits.createFn = func(_ context.Context, visit *entity.Visit) error {
		visit.ID = 42
		stored = visit
		return nil
	}

	resp, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00"))
	require.NoError(t, err)

	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "2024-01-15T15:00:00Z", resp.Start)
	assert.Equal(t, "2024-01-15T16:00:00Z", resp.End)
	require.NotNil(t, resp.Patient)
	assert.Equal(t, "Jane", resp.Patient.FirstName)
	require.NotNil(t, resp.Doctor)
	assert.Equal(t, "America/New_York", resp.Doctor.Timezone)

	require.NotNil(t, stored)
	assert.True(t, stored.StartDateTime.Equal(time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), stored.PatientID)
	assert.Equal(t, int64(2), stored.DoctorID)

	assert.Equal(t, int32(1), f.locker.lockCalls.Load())
	assert.Equal(t, int32(1), f.locker.unlockCalls.Load())
	assert.Equal(t, int32(1), f.audit.logCreateCalls.Load())
}

func TestCreateVisit_PatientNotFoundSkipsDoctorLookup(t *testing.T) {
	f := newVisitFixture()

	req := visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00")
	req.PatientID = 999
	_, err := f.usecase.CreateVisit(context.Background(), req)

	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.Contains(t, err.Error(), "999")
	assert.Equal(t, int32(0), f.doctors.findByIDCalls.Load())
	assert.Equal(t, int32(0), f.visits.createCalls.Load())
}

func TestCreateVisit_DoctorNotFound(t *testing.T) {
	f := newVisitFixture()

	req := visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00")
	req.DoctorID = 77
	_, err := f.usecase.CreateVisit(context.Background(), req)

	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.Contains(t, err.Error(), "77")
	assert.Equal(t, int32(0), f.visits.createCalls.Load())
}

func TestCreateVisit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr error
	}{
		{"start after end", "2024-01-15T11:00:00", "2024-01-15T10:00:00", ErrInvalidTimeRange},
		{"malformed start", "2024-01-15 10:00", "2024-01-15T11:00:00", service.ErrMalformedTimestamp},
		{"malformed end", "2024-01-15T10:00:00", "tomorrow", service.ErrMalformedTimestamp},
		{"offset not allowed", "2024-01-15T10:00:00Z", "2024-01-15T11:00:00", service.ErrMalformedTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVisitFixture()

			_, err := f.usecase.CreateVisit(context.Background(), visitRequest(tt.start, tt.end))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(0), f.locker.lockCalls.Load())
			assert.Equal(t, int32(0), f.visits.createCalls.Load())
		})
	}
}

func TestCreateVisit_InvalidDoctorTimezone(t *testing.T) {
	f := newVisitFixture()
	f.doctors.findByIDFn = func(_ context.Context, id int64) (*entity.Doctor, error) {
		return &entity.Doctor{ID: id, Timezone: "Mars/Olympus"}, nil
	}

	_, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	assert.ErrorIs(t, err, service.ErrInvalidTimezone)
}

func TestCreateVisit_ZeroLengthAllowed(t *testing.T) {
	f := newVisitFixture()

	_, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T10:00:00"))

	assert.NoError(t, err)
	assert.Equal(t, int32(1), f.visits.createCalls.Load())
}

func TestCreateVisit_Conflict(t *testing.T) {
	f := newVisitFixture()

	var gotStart, gotEnd time.Time
	f.visits.existsConflictFn = func(_ context.Context, doctorID int64, start, end time.Time) (bool, error) {
		assert.Equal(t, int64(2), doctorID)
		gotStart, gotEnd = start, end
		return true, nil
	}

	_, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:30:00", "2024-01-15T11:30:00"))

	assert.ErrorIs(t, err, ErrSchedulingConflict)
	assert.True(t, gotStart.Equal(time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC)))
	assert.True(t, gotEnd.Equal(time.Date(2024, 1, 15, 16, 30, 0, 0, time.UTC)))
	assert.Equal(t, int32(0), f.visits.createCalls.Load())
	assert.Equal(t, int32(1), f.locker.unlockCalls.Load())
	assert.Equal(t, int32(0), f.audit.logCreateCalls.Load())
}

func TestCreateVisit_ExclusionViolationIsConflict(t *testing.T) {
	f := newVisitFixture()
	f.visits.createFn = func(context.Context, *entity.Visit) error {
		return &pgconn.PgError{Code: "23P01", ConstraintName: "visits_no_overlap"}
	}

	_, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	assert.ErrorIs(t, err, ErrSchedulingConflict)
	assert.Equal(t, int32(1), f.locker.unlockCalls.Load())
}

func TestCreateVisit_LockTimeout(t *testing.T) {
	f := newVisitFixture()
	f.locker.lockFn = func(context.Context, int64) (func(), error) {
		return nil, service.ErrDoctorLockTimeout
	}

	_, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	assert.ErrorIs(t, err, service.ErrDoctorLockTimeout)
	assert.Equal(t, int32(0), f.visits.existsConflictCalls.Load())
}

func TestCreateVisit_StoreErrorPropagates(t *testing.T) {
	f := newVisitFixture()
	storeErr := errors.New("connection reset")
	f.visits.createFn = func(context.Context, *entity.Visit) error { return storeErr }

	_, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrSchedulingConflict)
}

func TestCreateVisit_AuditFailureIsNotFatal(t *testing.T) {
	f := newVisitFixture()
	f.audit.logCreateFn = func(context.Context, string, string, int64, interface{}) error {
		return errors.New("audit table missing")
	}

	resp, err := f.usecase.CreateVisit(context.Background(), visitRequest("2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	require.NoError(t, err)
	assert.NotNil(t, resp)
}
