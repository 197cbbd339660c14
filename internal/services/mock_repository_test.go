package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests. Insertion
// order is preserved so listing order is deterministic.
type mockRepository struct {
	mu sync.Mutex

	users map[string]*models.User

	courses     map[uuid.UUID]*models.Course
	courseOrder []uuid.UUID

	groups     map[uuid.UUID]*models.Group
	groupOrder []uuid.UUID

	memberships   []models.UserGroup
	mainLecturers []models.CourseMainLecturer

	languages map[uuid.UUID]*models.ProgrammingLanguage

	exercises map[uuid.UUID]*models.Exercise
	scopes    []models.ExerciseGroup

	assignments map[uuid.UUID]*models.ExerciseAssignment
	results     []*models.SubmissionResult
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[string]*models.User),
		courses:     make(map[uuid.UUID]*models.Course),
		groups:      make(map[uuid.UUID]*models.Group),
		languages:   make(map[uuid.UUID]*models.ProgrammingLanguage),
		exercises:   make(map[uuid.UUID]*models.Exercise),
		assignments: make(map[uuid.UUID]*models.ExerciseAssignment),
	}
}

// ===== TEST DATA BUILDERS =====

func (m *mockRepository) addUser(id string, role models.UserRole) *models.User {
	u := &models.User{ID: id, FullName: "User " + id, Email: id + "@test.local", Role: role}
	m.users[id] = u
	return u
}

func (m *mockRepository) addCourse(name string) *models.Course {
	c := &models.Course{ID: uuid.New(), Name: name}
	m.courses[c.ID] = c
	m.courseOrder = append(m.courseOrder, c.ID)
	return c
}

func (m *mockRepository) addGroup(courseID uuid.UUID, name string) *models.Group {
	g := &models.Group{ID: uuid.New(), CourseID: courseID, Name: name}
	m.groups[g.ID] = g
	m.groupOrder = append(m.groupOrder, g.ID)
	return g
}

func (m *mockRepository) addMember(groupID uuid.UUID, userID string) {
	m.memberships = append(m.memberships, models.UserGroup{UserID: userID, GroupID: groupID})
}

func (m *mockRepository) addMainLecturer(courseID uuid.UUID, lecturerID string) {
	m.mainLecturers = append(m.mainLecturers, models.CourseMainLecturer{CourseID: courseID, MainLecturerID: lecturerID})
}

func (m *mockRepository) addLanguage(name, compilerURL string) *models.ProgrammingLanguage {
	l := &models.ProgrammingLanguage{ID: uuid.New(), Name: name, CompilerURL: compilerURL}
	m.languages[l.ID] = l
	return l
}

func (m *mockRepository) addExercise(courseID, languageID uuid.UUID, name string, groupIDs []uuid.UUID, tests ...models.CorrectnessTest) *models.Exercise {
	e := &models.Exercise{
		ID:                    uuid.New(),
		CourseID:              courseID,
		ProgrammingLanguageID: languageID,
		Name:                  name,
		Tests:                 tests,
	}
	if lang, ok := m.languages[languageID]; ok {
		e.ProgrammingLanguage = *lang
	}
	m.exercises[e.ID] = e
	for _, gid := range groupIDs {
		m.scopes = append(m.scopes, models.ExerciseGroup{ExerciseID: e.ID, GroupID: gid})
	}
	return e
}

func (m *mockRepository) addAssignment(exerciseID, groupID uuid.UUID, studentID, lecturerID string) *models.ExerciseAssignment {
	a := &models.ExerciseAssignment{
		ID:         uuid.New(),
		ExerciseID: exerciseID,
		GroupID:    groupID,
		StudentID:  studentID,
		LecturerID: lecturerID,
	}
	m.assignments[a.ID] = a
	return a
}

// pairedTest builds one correctness test with positionally matched pairs.
func pairedTest(pairs ...[2]string) models.CorrectnessTest {
	t := models.CorrectnessTest{ID: uuid.New()}
	for i, p := range pairs {
		t.Inputs = append(t.Inputs, models.CorrectnessTestInput{Position: i, Content: p[0]})
		t.Outputs = append(t.Outputs, models.CorrectnessTestOutput{Position: i, Content: p[1]})
	}
	return t
}

// ===== FACADE =====

func (m *mockRepository) Course() repositories.CourseRepository         { return &mockCourseRepo{m} }
func (m *mockRepository) Group() repositories.GroupRepository           { return &mockGroupRepo{m} }
func (m *mockRepository) Language() repositories.LanguageRepository     { return &mockLanguageRepo{m} }
func (m *mockRepository) Exercise() repositories.ExerciseRepository     { return &mockExerciseRepo{m} }
func (m *mockRepository) Assignment() repositories.AssignmentRepository { return &mockAssignmentRepo{m} }
func (m *mockRepository) Result() repositories.ResultRepository         { return &mockResultRepo{m} }
func (m *mockRepository) User() repositories.UserRepository             { return &mockUserRepo{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== SUB-REPOSITORIES =====

type mockCourseRepo struct{ m *mockRepository }

func (r *mockCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.courses[course.ID] = course
	r.m.courseOrder = append(r.m.courseOrder, course.ID)
	return nil
}

func (r *mockCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

func (r *mockCourseRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Course, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Course, 0, len(r.m.courseOrder))
	for _, id := range r.m.courseOrder {
		out = append(out, r.m.courses[id])
	}
	return out, nil
}

func (r *mockCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.courses, id)
	return nil
}

func (r *mockCourseRepo) AddMainLecturer(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, lecturerID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.mainLecturers = append(r.m.mainLecturers, models.CourseMainLecturer{CourseID: courseID, MainLecturerID: lecturerID})
	return nil
}

func (r *mockCourseRepo) GetMainLecturerAssignments(ctx context.Context, tx *gorm.DB, lecturerID string) ([]*models.CourseMainLecturer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.CourseMainLecturer
	for i := range r.m.mainLecturers {
		if r.m.mainLecturers[i].MainLecturerID == lecturerID {
			out = append(out, &r.m.mainLecturers[i])
		}
	}
	return out, nil
}

type mockGroupRepo struct{ m *mockRepository }

func (r *mockGroupRepo) Create(ctx context.Context, tx *gorm.DB, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.groups[group.ID] = group
	r.m.groupOrder = append(r.m.groupOrder, group.ID)
	return nil
}

func (r *mockGroupRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return g, nil
}

func (r *mockGroupRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Group, 0, len(r.m.groupOrder))
	for _, id := range r.m.groupOrder {
		out = append(out, r.m.groups[id])
	}
	return out, nil
}

func (r *mockGroupRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Group
	for _, id := range r.m.groupOrder {
		if r.m.groups[id].CourseID == courseID {
			out = append(out, r.m.groups[id])
		}
	}
	return out, nil
}

func (r *mockGroupRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.groups, id)
	return nil
}

func (r *mockGroupRepo) AddMember(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.memberships = append(r.m.memberships, models.UserGroup{UserID: userID, GroupID: groupID})
	return nil
}

func (r *mockGroupRepo) RemoveMember(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, mem := range r.m.memberships {
		if mem.GroupID == groupID && mem.UserID == userID {
			r.m.memberships = append(r.m.memberships[:i], r.m.memberships[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *mockGroupRepo) GetMembers(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) ([]*models.UserGroup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserGroup
	for i := range r.m.memberships {
		if r.m.memberships[i].GroupID == groupID {
			out = append(out, &r.m.memberships[i])
		}
	}
	return out, nil
}

func (r *mockGroupRepo) GetMembershipsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserGroup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UserGroup
	for i := range r.m.memberships {
		if r.m.memberships[i].UserID == userID {
			out = append(out, &r.m.memberships[i])
		}
	}
	return out, nil
}

type mockLanguageRepo struct{ m *mockRepository }

func (r *mockLanguageRepo) Create(ctx context.Context, tx *gorm.DB, language *models.ProgrammingLanguage) error {
	if language.ID == uuid.Nil {
		language.ID = uuid.New()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.languages[language.ID] = language
	return nil
}

func (r *mockLanguageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ProgrammingLanguage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.languages[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return l, nil
}

func (r *mockLanguageRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.ProgrammingLanguage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.ProgrammingLanguage
	for _, l := range r.m.languages {
		out = append(out, l)
	}
	return out, nil
}

type mockExerciseRepo struct{ m *mockRepository }

func (r *mockExerciseRepo) Create(ctx context.Context, tx *gorm.DB, exercise *models.Exercise) error {
	if exercise.ID == uuid.Nil {
		exercise.ID = uuid.New()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.exercises[exercise.ID] = exercise
	for _, scope := range exercise.GroupScopes {
		r.m.scopes = append(r.m.scopes, models.ExerciseGroup{ExerciseID: exercise.ID, GroupID: scope.GroupID})
	}
	return nil
}

func (r *mockExerciseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Exercise, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.exercises[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return e, nil
}

func (r *mockExerciseRepo) GetByIDWithTests(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Exercise, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockExerciseRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Exercise, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Exercise
	for _, e := range r.m.exercises {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *mockExerciseRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.exercises, id)
	return nil
}

func (r *mockExerciseRepo) GetScopes(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]*models.ExerciseGroup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.ExerciseGroup
	for i := range r.m.scopes {
		if r.m.scopes[i].ExerciseID == exerciseID {
			out = append(out, &r.m.scopes[i])
		}
	}
	return out, nil
}

func (r *mockExerciseRepo) GetScopesByGroups(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*models.ExerciseGroup, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = true
	}
	var out []*models.ExerciseGroup
	for i := range r.m.scopes {
		if wanted[r.m.scopes[i].GroupID] {
			out = append(out, &r.m.scopes[i])
		}
	}
	return out, nil
}

type mockAssignmentRepo struct{ m *mockRepository }

func (r *mockAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *models.ExerciseAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.assignments[assignment.ID] = assignment
	return nil
}

func (r *mockAssignmentRepo) CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*models.ExerciseAssignment) error {
	for _, a := range assignments {
		if err := r.Create(ctx, tx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ExerciseAssignment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *mockAssignmentRepo) Update(ctx context.Context, tx *gorm.DB, assignment *models.ExerciseAssignment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.assignments[assignment.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *assignment
	r.m.assignments[assignment.ID] = &clone
	return nil
}

func (r *mockAssignmentRepo) List(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, filters repositories.AssignmentFilters) ([]*models.ExerciseAssignment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.ExerciseAssignment
	for _, a := range r.m.assignments {
		if exerciseID != uuid.Nil && a.ExerciseID != exerciseID {
			continue
		}
		if filters.GroupID != nil && a.GroupID != *filters.GroupID {
			continue
		}
		if filters.StudentID != nil && a.StudentID != *filters.StudentID {
			continue
		}
		if filters.Graded != nil && a.Graded() != *filters.Graded {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *mockAssignmentRepo) GetByExerciseAndStudent(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string) (*models.ExerciseAssignment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.assignments {
		if a.ExerciseID == exerciseID && a.StudentID == studentID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type mockResultRepo struct{ m *mockRepository }

func (r *mockResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.SubmissionResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.results = append(r.m.results, result)
	return nil
}

func (r *mockResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.SubmissionResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, res := range r.m.results {
		if res.ID == id {
			return res, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockResultRepo) ListByExerciseAndStudent(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string, filters repositories.ResultFilters) ([]*models.SubmissionResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.SubmissionResult
	for _, res := range r.m.results {
		if res.ExerciseID != exerciseID || res.StudentID != studentID {
			continue
		}
		if filters.Status != nil && res.Status != *filters.Status {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *mockResultRepo) GetLatest(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string) (*models.SubmissionResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := len(r.m.results) - 1; i >= 0; i-- {
		if r.m.results[i].ExerciseID == exerciseID && r.m.results[i].StudentID == studentID {
			return r.m.results[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUserRepo) List(ctx context.Context) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.User
	for _, u := range r.m.users {
		out = append(out, u)
	}
	return out, nil
}
