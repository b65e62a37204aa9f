// Package seed generates reproducible fixture data: doctors across US
// timezones, patients, and two years of one-hour visits.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"visit-tracking-service/internal/domain/entity"
	"visit-tracking-service/internal/domain/repository"
	"visit-tracking-service/internal/service"

	"github.com/sirupsen/logrus"
)

const (
	visitDuration    = time.Hour
	firstStartHour   = 8
	startHourSpan    = 10
	maxDrawsPerVisit = 25
)

var doctorRoster = []entity.Doctor{
	{FirstName: "John", LastName: "Smith", Timezone: "America/New_York"},
	{FirstName: "Emily", LastName: "Johnson", Timezone: "America/Los_Angeles"},
	{FirstName: "Michael", LastName: "Brown", Timezone: "America/Chicago"},
	{FirstName: "Sarah", LastName: "Davis", Timezone: "America/Denver"},
	{FirstName: "David", LastName: "Wilson", Timezone: "America/New_York"},
	{FirstName: "Lisa", LastName: "Anderson", Timezone: "America/Los_Angeles"},
	{FirstName: "Robert", LastName: "Taylor", Timezone: "America/Chicago"},
	{FirstName: "Jennifer", LastName: "Thomas", Timezone: "America/Denver"},
	{FirstName: "William", LastName: "Jackson", Timezone: "America/New_York"},
	{FirstName: "Maria", LastName: "White", Timezone: "America/Los_Angeles"},
}

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
	"William", "Elizabeth", "David", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
	"Thomas", "Sarah", "Christopher", "Karen", "Charles", "Nancy", "Daniel", "Lisa",
	"Matthew", "Betty", "Anthony", "Helen", "Mark", "Sandra", "Donald", "Donna",
	"Steven", "Carol", "Paul", "Ruth", "Andrew", "Sharon", "Joshua", "Michelle",
	"Kenneth", "Laura", "Kevin", "Kimberly", "Brian", "Deborah", "George", "Dorothy",
	"Timothy", "Amy", "Ronald", "Angela", "Jason", "Ashley", "Edward", "Brenda",
	"Jeffrey", "Emma", "Ryan", "Olivia", "Jacob", "Cynthia", "Gary", "Marie",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas",
	"Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson", "White",
	"Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker", "Young",
	"Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
	"Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell",
	"Carter", "Roberts", "Gomez", "Phillips", "Evans", "Turner", "Diaz", "Parker",
	"Cruz", "Edwards", "Collins", "Reyes", "Stewart", "Morris", "Morales", "Murphy",
	"O'Brien", "O'Connor", "McDonald", "Kim", "Patel", "Chen", "Tran", "Silva",
}

type Options struct {
	Doctors    int
	Patients   int
	Visits     int
	RandomSeed int64
}

type Result struct {
	Skipped  bool
	Doctors  int
	Patients int
	Visits   int
}

type Generator struct {
	log           *logrus.Logger
	repo          repository.SeedRepository
	timeConverter *service.TimeConverter
	now           func() time.Time
}

func NewGenerator(log *logrus.Logger, repo repository.SeedRepository, timeConverter *service.TimeConverter) *Generator {
	return &Generator{
		log:           log,
		repo:          repo,
		timeConverter: timeConverter,
		now:           time.Now,
	}
}

// Run loads fixtures unless doctors already exist. Output is fully
// determined by opts and the generator clock.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	existing, err := g.repo.CountDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	if existing > 0 {
		g.log.Infof("Skipping seed, %d doctors already exist", existing)
		return &Result{Skipped: true}, nil
	}

	rng := rand.New(rand.NewSource(opts.RandomSeed))

	doctors := NewDoctors(opts.Doctors)
	if err := g.repo.CreateDoctors(ctx, doctors); err != nil {
		return nil, fmt.Errorf("create doctors: %w", err)
	}

	patients := NewPatients(rng, opts.Patients)
	if err := g.repo.CreatePatients(ctx, patients); err != nil {
		return nil, fmt.Errorf("create patients: %w", err)
	}

	visits, err := g.newVisits(rng, doctors, patients, opts.Visits)
	if err != nil {
		return nil, err
	}
	if err := g.repo.CreateVisits(ctx, visits); err != nil {
		return nil, fmt.Errorf("create visits: %w", err)
	}

	g.log.Infof("Seeded %d doctors, %d patients, %d visits", len(doctors), len(patients), len(visits))
	return &Result{Doctors: len(doctors), Patients: len(patients), Visits: len(visits)}, nil
}

// NewDoctors cycles through the fixed roster
func NewDoctors(n int) []entity.Doctor {
	doctors := make([]entity.Doctor, 0, n)
	for i := 0; i < n; i++ {
		doctors = append(doctors, doctorRoster[i%len(doctorRoster)])
	}
	return doctors
}

func NewPatients(rng *rand.Rand, n int) []entity.Patient {
	patients := make([]entity.Patient, 0, n)
	for i := 0; i < n; i++ {
		patients = append(patients, entity.Patient{
			FirstName: firstNames[rng.Intn(len(firstNames))],
			LastName:  lastNames[rng.Intn(len(lastNames))],
		})
	}
	return patients
}

// newVisits draws one-hour visits on quarter hours between 08:00 and 17:45
// in the doctor's zone, on a day within the last two years. A draw that
// overlaps an earlier visit of the same doctor is redrawn; a visit that keeps
// colliding is dropped.
func (g *Generator) newVisits(rng *rand.Rand, doctors []entity.Doctor, patients []entity.Patient, n int) ([]entity.Visit, error) {
	if len(doctors) == 0 || len(patients) == 0 {
		return []entity.Visit{}, nil
	}

	now := g.now()
	windowStart := now.AddDate(-2, 0, 0)
	days := int(now.Sub(windowStart).Hours() / 24)

	booked := make(map[int64][]entity.Interval, len(doctors))
	visits := make([]entity.Visit, 0, n)
	var dropped int

	for i := 0; i < n; i++ {
		doctor := doctors[rng.Intn(len(doctors))]
		patient := patients[rng.Intn(len(patients))]

		var placed bool
		for draw := 0; draw < maxDrawsPerVisit && !placed; draw++ {
			day := windowStart.AddDate(0, 0, rng.Intn(days))
			hour := firstStartHour + rng.Intn(startHourSpan)
			minute := rng.Intn(4) * 15

			loc, err := g.timeConverter.Location(doctor.Timezone)
			if err != nil {
				return nil, err
			}
			y, m, d := day.In(loc).Date()
			start, err := g.timeConverter.FromCivil(y, m, d, hour, minute, doctor.Timezone)
			if err != nil {
				return nil, err
			}

			candidate := entity.Interval{Start: start, End: start.Add(visitDuration)}
			if entity.OverlapsAny(booked[doctor.ID], candidate) {
				continue
			}

			booked[doctor.ID] = append(booked[doctor.ID], candidate)
			visits = append(visits, entity.Visit{
				StartDateTime: candidate.Start,
				EndDateTime:   candidate.End,
				PatientID:     patient.ID,
				DoctorID:      doctor.ID,
			})
			placed = true
		}
		if !placed {
			dropped++
		}
	}

	if dropped > 0 {
		g.log.Warnf("Dropped %d visits that kept colliding with existing ones", dropped)
	}
	return visits, nil
}
