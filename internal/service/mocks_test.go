package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"gorm.io/gorm"
)

// --- Transactor ---

type fakeTx struct {
	calls int
}

func (f *fakeTx) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

// --- ClassRepository ---

type mockClassRepo struct {
	classes     map[uuid.UUID]models.Class
	locks       int
	lastUpdates map[string]any
	scheduled   []repository.ClassRef
	createFn    func(ctx context.Context, class *models.Class) error
}

func newMockClassRepo(classes ...models.Class) *mockClassRepo {
	m := &mockClassRepo{classes: map[uuid.UUID]models.Class{}}
	for _, c := range classes {
		m.classes[c.ID] = c
	}
	return m
}

func (m *mockClassRepo) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, class); err != nil {
			return err
		}
	}
	if class.ID == uuid.Nil {
		class.ID = uuid.New()
	}
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.Class, error) {
	c, ok := m.classes[id]
	if !ok || c.FacilityID != facilityID {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *mockClassRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, facilityID, id uuid.UUID) (*models.Class, error) {
	m.locks++
	return m.FindByID(ctx, facilityID, id)
}

func (m *mockClassRepo) List(ctx context.Context, facilityID uuid.UUID, offset, limit int) ([]models.Class, int64, error) {
	var all []models.Class
	for _, c := range m.classes {
		if c.FacilityID == facilityID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Class{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockClassRepo) Update(ctx context.Context, facilityID, id uuid.UUID, updates map[string]any) error {
	c, ok := m.classes[id]
	if !ok || c.FacilityID != facilityID {
		return gorm.ErrRecordNotFound
	}
	m.lastUpdates = updates
	if v, ok := updates["name"].(string); ok {
		c.Name = v
	}
	if v, ok := updates["max_capacity"].(int); ok {
		c.MaxCapacity = v
	}
	m.classes[id] = c
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, facilityID, id uuid.UUID) error {
	c, ok := m.classes[id]
	if !ok || c.FacilityID != facilityID {
		return gorm.ErrRecordNotFound
	}
	delete(m.classes, id)
	return nil
}

func (m *mockClassRepo) ListScheduled(ctx context.Context) ([]repository.ClassRef, error) {
	return m.scheduled, nil
}

// --- ScheduleRepository ---

type mockScheduleRepo struct {
	schedules []models.Schedule
}

func (m *mockScheduleRepo) Create(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	m.schedules = append(m.schedules, *schedule)
	return nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, classID, id uuid.UUID) (*models.Schedule, error) {
	for _, s := range m.schedules {
		if s.ID == id && s.ClassID == classID {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) FindByClass(ctx context.Context, classID uuid.UUID) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.schedules {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, classID, id uuid.UUID) error {
	for i, s := range m.schedules {
		if s.ID == id && s.ClassID == classID {
			m.schedules = append(m.schedules[:i], m.schedules[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// --- ExceptionRepository ---

type mockExceptionRepo struct {
	exceptions []models.ScheduleException
	findErr    error
}

func (m *mockExceptionRepo) Create(ctx context.Context, exception *models.ScheduleException) error {
	if exception.ID == uuid.Nil {
		exception.ID = uuid.New()
	}
	m.exceptions = append(m.exceptions, *exception)
	return nil
}

func (m *mockExceptionRepo) FindBySchedule(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]models.ScheduleException, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []models.ScheduleException
	for _, e := range m.exceptions {
		if e.ClassScheduleID == scheduleID && !e.ExceptionDate.Before(from) && !e.ExceptionDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- InstanceRepository ---

type instanceKey struct {
	scheduleID uuid.UUID
	start      int64
}

type mockInstanceRepo struct {
	rows          map[instanceKey]models.ClassInstance
	createErr     error
	updateOK      bool
	lastUpdates   map[string]any
	startDue      int64
	completeDue   int64
	advanceCalled time.Time
}

func newMockInstanceRepo() *mockInstanceRepo {
	return &mockInstanceRepo{rows: map[instanceKey]models.ClassInstance{}, updateOK: true}
}

func (m *mockInstanceRepo) CreateIfAbsent(ctx context.Context, instances []models.ClassInstance) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	var created int64
	for _, inst := range instances {
		k := instanceKey{inst.ClassScheduleID, inst.StartDateTime.Unix()}
		if _, exists := m.rows[k]; exists {
			continue
		}
		inst.ID = uuid.New()
		m.rows[k] = inst
		created++
	}
	return created, nil
}

func (m *mockInstanceRepo) all() []models.ClassInstance {
	out := make([]models.ClassInstance, 0, len(m.rows))
	for _, inst := range m.rows {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	return out
}

func (m *mockInstanceRepo) FindByClass(ctx context.Context, classID uuid.UUID, from, to time.Time) ([]models.ClassInstance, error) {
	var out []models.ClassInstance
	for _, inst := range m.all() {
		if !inst.StartDateTime.Before(from) && inst.StartDateTime.Before(to) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *mockInstanceRepo) FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.ClassInstance, error) {
	for _, inst := range m.rows {
		if inst.ID == id {
			return &inst, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstanceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from models.InstanceStatus, updates map[string]any) (bool, error) {
	m.lastUpdates = updates
	return m.updateOK, nil
}

func (m *mockInstanceRepo) StartDue(ctx context.Context, now time.Time) (int64, error) {
	m.advanceCalled = now
	return m.startDue, nil
}

func (m *mockInstanceRepo) CompleteDue(ctx context.Context, now time.Time) (int64, error) {
	return m.completeDue, nil
}

// --- FacilityRepository ---

type mockFacilityRepo struct {
	facilities map[uuid.UUID]models.Facility
}

func (m *mockFacilityRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &f, nil
}

func (m *mockFacilityRepo) Upsert(ctx context.Context, facility *models.Facility) error {
	if m.facilities == nil {
		m.facilities = map[uuid.UUID]models.Facility{}
	}
	m.facilities[facility.ID] = *facility
	return nil
}

// --- StudentRepository ---

type mockStudentRepo struct {
	students map[uuid.UUID]models.Student
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	m := &mockStudentRepo{students: map[uuid.UUID]models.Student{}}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *mockStudentRepo) FindByID(ctx context.Context, tx *gorm.DB, facilityID, id uuid.UUID) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok || s.FacilityID != facilityID {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (m *mockStudentRepo) Upsert(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.students, id)
	return nil
}

// --- EnrollmentRepository ---

type mockEnrollmentRepo struct {
	rows      []models.Enrollment
	createErr error
}

func (m *mockEnrollmentRepo) live() []int {
	var idx []int
	for i, e := range m.rows {
		if !e.DeletedAt.Valid {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}
	m.rows = append(m.rows, *enrollment)
	return nil
}

func (m *mockEnrollmentRepo) FindActive(ctx context.Context, tx *gorm.DB, classID, studentID uuid.UUID) (*models.Enrollment, error) {
	for _, i := range m.live() {
		e := m.rows[i]
		if e.ClassID == classID && e.StudentID == studentID && e.Status == models.EnrollmentActive {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) CountActive(ctx context.Context, tx *gorm.DB, classID uuid.UUID) (int64, error) {
	var n int64
	for _, i := range m.live() {
		if m.rows[i].ClassID == classID && m.rows[i].Status == models.EnrollmentActive {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	for i := range m.rows {
		if m.rows[i].ID == id && !m.rows[i].DeletedAt.Valid {
			m.rows[i].Status = models.EnrollmentCancelled
			m.rows[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByClass(ctx context.Context, classID uuid.UUID, offset, limit int) ([]models.Enrollment, int64, error) {
	var out []models.Enrollment
	for _, i := range m.live() {
		if m.rows[i].ClassID == classID {
			out = append(out, m.rows[i])
		}
	}
	return out, int64(len(out)), nil
}

// --- TemplateRepository ---

type mockTemplateRepo struct {
	templates map[uuid.UUID]models.ClassTemplate
}

func (m *mockTemplateRepo) Create(ctx context.Context, template *models.ClassTemplate) error {
	if m.templates == nil {
		m.templates = map[uuid.UUID]models.ClassTemplate{}
	}
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	m.templates[template.ID] = *template
	return nil
}

func (m *mockTemplateRepo) FindByID(ctx context.Context, facilityID, id uuid.UUID) (*models.ClassTemplate, error) {
	t, ok := m.templates[id]
	if !ok || t.FacilityID != facilityID {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (m *mockTemplateRepo) List(ctx context.Context, facilityID uuid.UUID) ([]models.ClassTemplate, error) {
	var out []models.ClassTemplate
	for _, t := range m.templates {
		if t.FacilityID == facilityID {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- EventPublisher ---

type published struct {
	routingKey string
	payload    any
}

type mockPublisher struct {
	events []published
	err    error
}

func (m *mockPublisher) Publish(routingKey string, payload any) error {
	m.events = append(m.events, published{routingKey, payload})
	return m.err
}

func mustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
