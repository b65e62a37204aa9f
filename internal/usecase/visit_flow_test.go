package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
	"visit-tracking-service/internal/repository/memory"
	"visit-tracking-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flow struct {
	store    *memory.Store
	visits   VisitUsecase
	patients PatientUsecase
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	ctx := context.Background()
	log := quietLogger()

	store := memory.NewStore()
	require.NoError(t, store.Seed().CreateDoctors(ctx, []entity.Doctor{
		{FirstName: "Ann", LastName: "Lee", Timezone: "America/New_York"},
		{FirstName: "Bob", LastName: "Kim", Timezone: "America/Los_Angeles"},
	}))
	require.NoError(t, store.Seed().CreatePatients(ctx, []entity.Patient{
		{FirstName: "Jane", LastName: "Roe"},
		{FirstName: "Max", LastName: "Poe"},
	}))

	locks := service.NewDoctorLockService(nil, log, service.DoctorLockConfig{WaitTimeout: 5 * time.Second, RetryInterval: time.Millisecond})
	t.Cleanup(locks.Stop)

	converter := service.NewTimeConverter(time.UTC)
	return &flow{
		store: store,
		visits: NewVisitUsecase(log, store.Patients(), store.Doctors(), store.Visits(),
			converter, locks, service.NewAuditService(log, store.AuditLogs())),
		patients: NewPatientUsecase(log, store.Patients(), store.Doctors(), store.Visits(), converter),
	}
}

func (f *flow) book(patientID, doctorID int64, start, end string) error {
	_, err := f.visits.CreateVisit(context.Background(), &dto.CreateVisitRequest{
		Start: start, End: end, PatientID: patientID, DoctorID: doctorID,
	})
	return err
}

func TestFlow_BookAndListInDoctorLocalTime(t *testing.T) {
	f := newFlow(t)

	require.NoError(t, f.book(1, 1, "2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	list, err := f.patients.ListPatients(context.Background(), &dto.ListPatientsRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), list.Count)
	require.Len(t, list.Data, 2)
	require.Len(t, list.Data[0].LastVisits, 1)
	entry := list.Data[0].LastVisits[0]
	assert.Equal(t, "2024-01-15T10:00:00", entry.Start)
	assert.Equal(t, "2024-01-15T11:00:00", entry.End)
	assert.Equal(t, "Ann", entry.Doctor.FirstName)
	assert.Equal(t, int64(1), entry.Doctor.TotalPatients)
	assert.Empty(t, list.Data[1].LastVisits)
	assert.Equal(t, 1, f.store.AuditLogCount())
}

func TestFlow_ConflictAndAdjacency(t *testing.T) {
	f := newFlow(t)

	require.NoError(t, f.book(1, 1, "2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	err := f.book(2, 1, "2024-01-15T10:30:00", "2024-01-15T11:30:00")
	assert.ErrorIs(t, err, ErrSchedulingConflict)

	// Back-to-back is allowed
	assert.NoError(t, f.book(2, 1, "2024-01-15T11:00:00", "2024-01-15T12:00:00"))

	// Same civil slot for a different doctor is a different instant and a different schedule
	assert.NoError(t, f.book(2, 2, "2024-01-15T10:00:00", "2024-01-15T11:00:00"))

	// 07:00-08:00 in Los Angeles is 10:00-11:00 in New York; different doctors never conflict
	assert.NoError(t, f.book(1, 2, "2024-01-15T07:00:00", "2024-01-15T08:00:00"))
}

func TestFlow_ConcurrentBookingsForOneSlot(t *testing.T) {
	f := newFlow(t)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.book(1, 1, "2024-02-01T09:00:00", "2024-02-01T10:00:00")
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrSchedulingConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
}

func TestFlow_TotalPatientsCountsWholeHistory(t *testing.T) {
	f := newFlow(t)

	require.NoError(t, f.book(1, 1, "2024-01-15T09:00:00", "2024-01-15T10:00:00"))
	require.NoError(t, f.book(2, 1, "2024-01-16T09:00:00", "2024-01-16T10:00:00"))
	require.NoError(t, f.book(1, 1, "2024-01-17T09:00:00", "2024-01-17T10:00:00"))

	// Page of size 1 only contains Jane, but Ann has seen two patients
	list, err := f.patients.ListPatients(context.Background(), &dto.ListPatientsRequest{Page: 1, Size: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(2), list.Count)
	require.Len(t, list.Data, 1)
	require.Len(t, list.Data[0].LastVisits, 1)
	assert.Equal(t, "2024-01-17T09:00:00", list.Data[0].LastVisits[0].Start)
	assert.Equal(t, int64(2), list.Data[0].LastVisits[0].Doctor.TotalPatients)
}

func TestFlow_RejectedBookingWritesNothing(t *testing.T) {
	f := newFlow(t)

	assert.ErrorIs(t, f.book(1, 1, "2024-01-15T11:00:00", "2024-01-15T10:00:00"), ErrInvalidTimeRange)
	assert.ErrorIs(t, f.book(9, 1, "2024-01-15T10:00:00", "2024-01-15T11:00:00"), ErrPatientNotFound)
	assert.ErrorIs(t, f.book(1, 9, "2024-01-15T10:00:00", "2024-01-15T11:00:00"), ErrDoctorNotFound)

	visits, err := f.store.Visits().FindByPatientIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, visits)
	assert.Equal(t, 0, f.store.AuditLogCount())
}
