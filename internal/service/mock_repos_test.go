package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/redis"
)

// Every mock embeds its repository interface. Methods a test never reaches
// stay unimplemented and panic if called.

// ── users ──

type mockUserRepo struct {
	repository.UserRepository
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.Username+" "+u.FullName()), strings.ToLower(filter.Search)) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) ListAdmins(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleAdmin && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── catalog ──

type mockCourseRepo struct {
	repository.CourseRepository
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type mockSpecializationRepo struct {
	repository.SpecializationRepository
	specs map[string]*model.Specialization
	hods  map[string]string // specialization id -> user id
	users *mockUserRepo
}

func newMockSpecializationRepo() *mockSpecializationRepo {
	return &mockSpecializationRepo{
		specs: make(map[string]*model.Specialization),
		hods:  make(map[string]string),
	}
}

func (m *mockSpecializationRepo) Create(_ context.Context, spec *model.Specialization) error {
	if _, err := m.GetByCode(context.Background(), spec.Code); err == nil {
		return gorm.ErrDuplicatedKey
	}
	if spec.SpecializationID == "" {
		spec.SpecializationID = uuid.NewString()
	}
	m.specs[spec.SpecializationID] = spec
	return nil
}

func (m *mockSpecializationRepo) GetByID(_ context.Context, id string) (*model.Specialization, error) {
	s, ok := m.specs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s
	if userID, ok := m.hods[id]; ok && m.users != nil {
		out.HoD = &model.HeadOfDepartment{SpecializationID: id, UserID: userID, User: m.users.users[userID]}
	}
	return &out, nil
}

func (m *mockSpecializationRepo) List(_ context.Context, filter repository.SpecializationFilter, offset, limit int) ([]model.Specialization, int64, error) {
	var out []model.Specialization
	for _, s := range m.specs {
		if filter.IDs != nil && !contains(filter.IDs, s.SpecializationID) {
			continue
		}
		if filter.CourseID != "" && s.CourseID != filter.CourseID {
			continue
		}
		if filter.Mode != "" && s.Mode != filter.Mode {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, offset, limit), int64(len(out)), nil
}

// SetHoD replaces the current head, one per specialization
func (m *mockSpecializationRepo) SetHoD(_ context.Context, hod *model.HeadOfDepartment) error {
	m.hods[hod.SpecializationID] = hod.UserID
	return nil
}

func (m *mockSpecializationRepo) GetByCode(_ context.Context, code string) (*model.Specialization, error) {
	for _, s := range m.specs {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSpecializationRepo) ListHoDSpecializations(_ context.Context, userID string) ([]string, error) {
	var out []string
	for spec, user := range m.hods {
		if user == userID {
			out = append(out, spec)
		}
	}
	sort.Strings(out)
	return out, nil
}

type mockPaperRepo struct {
	repository.PaperRepository
	papers map[string]*model.Paper
}

func newMockPaperRepo() *mockPaperRepo {
	return &mockPaperRepo{papers: make(map[string]*model.Paper)}
}

func (m *mockPaperRepo) Create(_ context.Context, paper *model.Paper) error {
	if _, err := m.GetByCode(context.Background(), paper.Code); err == nil {
		return gorm.ErrDuplicatedKey
	}
	if paper.PaperID == "" {
		paper.PaperID = uuid.NewString()
	}
	m.papers[paper.PaperID] = paper
	return nil
}

func (m *mockPaperRepo) GetByID(_ context.Context, id string) (*model.Paper, error) {
	if p, ok := m.papers[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaperRepo) GetByCode(_ context.Context, code string) (*model.Paper, error) {
	for _, p := range m.papers {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaperRepo) List(_ context.Context, filter repository.PaperFilter, offset, limit int) ([]model.Paper, int64, error) {
	var out []model.Paper
	for _, p := range m.papers {
		if filter.SpecializationIDs != nil && !contains(filter.SpecializationIDs, p.SpecializationID) {
			continue
		}
		if filter.SpecializationID != "" && p.SpecializationID != filter.SpecializationID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, offset, limit), int64(len(out)), nil
}

type mockModuleRepo struct {
	repository.ModuleRepository
	modules map[string]*model.Module
	papers  *mockPaperRepo
}

func newMockModuleRepo(papers *mockPaperRepo) *mockModuleRepo {
	return &mockModuleRepo{modules: make(map[string]*model.Module), papers: papers}
}

func (m *mockModuleRepo) Create(_ context.Context, module *model.Module) error {
	if _, err := m.GetByCode(context.Background(), module.Code); err == nil {
		return gorm.ErrDuplicatedKey
	}
	if module.ModuleID == "" {
		module.ModuleID = uuid.NewString()
	}
	m.modules[module.ModuleID] = module
	return nil
}

func (m *mockModuleRepo) GetByID(_ context.Context, id string) (*model.Module, error) {
	mod, ok := m.modules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *mod
	out.Paper = m.papers.papers[mod.PaperID]
	return &out, nil
}

func (m *mockModuleRepo) GetByCode(_ context.Context, code string) (*model.Module, error) {
	for _, mod := range m.modules {
		if mod.Code == code {
			return mod, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModuleRepo) List(_ context.Context, filter repository.ModuleFilter, offset, limit int) ([]model.Module, int64, error) {
	var out []model.Module
	for _, mod := range m.modules {
		if filter.PaperID != "" && mod.PaperID != filter.PaperID {
			continue
		}
		if filter.SpecializationIDs != nil {
			p, ok := m.papers.papers[mod.PaperID]
			if !ok || !contains(filter.SpecializationIDs, p.SpecializationID) {
				continue
			}
		}
		out = append(out, *mod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockModuleRepo) ListByPaper(_ context.Context, paperID string) ([]model.Module, error) {
	var out []model.Module
	for _, mod := range m.modules {
		if mod.PaperID == paperID {
			out = append(out, *mod)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type mockCatCombinationRepo struct {
	repository.CatCombinationRepository
	combos  map[string]*model.CatCombination // keyed by paper id
	modules *mockModuleRepo
}

func newMockCatCombinationRepo(modules *mockModuleRepo) *mockCatCombinationRepo {
	return &mockCatCombinationRepo{combos: make(map[string]*model.CatCombination), modules: modules}
}

func (m *mockCatCombinationRepo) Create(_ context.Context, combo *model.CatCombination) error {
	if _, ok := m.combos[combo.PaperID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if combo.CatCombinationID == "" {
		combo.CatCombinationID = uuid.NewString()
	}
	cp := *combo
	cp.Modules = nil
	for _, row := range combo.Modules {
		row.CatCombinationID = combo.CatCombinationID
		cp.Modules = append(cp.Modules, row)
	}
	m.combos[combo.PaperID] = &cp
	return nil
}

func (m *mockCatCombinationRepo) GetByID(_ context.Context, id string) (*model.CatCombination, error) {
	for _, c := range m.combos {
		if c.CatCombinationID == id {
			return m.hydrate(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatCombinationRepo) List(_ context.Context, specializationIDs []string, offset, limit int) ([]model.CatCombination, int64, error) {
	var out []model.CatCombination
	for _, c := range m.combos {
		h := m.hydrate(c)
		if specializationIDs != nil && (h.Paper == nil || !contains(specializationIDs, h.Paper.SpecializationID)) {
			continue
		}
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaperID < out[j].PaperID })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockCatCombinationRepo) ReplaceModules(_ context.Context, comboID string, rows []model.CatCombinationModule) error {
	for _, c := range m.combos {
		if c.CatCombinationID != comboID {
			continue
		}
		c.Modules = nil
		for _, row := range rows {
			row.CatCombinationID = comboID
			c.Modules = append(c.Modules, row)
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockCatCombinationRepo) ListAssignments(_ context.Context, moduleIDs []string) ([]model.CatCombinationModule, error) {
	var out []model.CatCombinationModule
	for _, c := range m.combos {
		for _, row := range c.Modules {
			if contains(moduleIDs, row.ModuleID) {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (m *mockCatCombinationRepo) Delete(_ context.Context, id string) error {
	for paperID, c := range m.combos {
		if c.CatCombinationID == id {
			delete(m.combos, paperID)
		}
	}
	return nil
}

func (m *mockCatCombinationRepo) hydrate(c *model.CatCombination) *model.CatCombination {
	out := *c
	out.Modules = nil
	if m.modules != nil {
		out.Paper = m.modules.papers.papers[c.PaperID]
	}
	for _, row := range c.Modules {
		if m.modules != nil {
			row.Module = m.modules.modules[row.ModuleID]
		}
		out.Modules = append(out.Modules, row)
	}
	return &out
}

func (m *mockCatCombinationRepo) GetByPaper(_ context.Context, paperID string) (*model.CatCombination, error) {
	if c, ok := m.combos[paperID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── people ──

type mockLecturerRepo struct {
	repository.LecturerRepository
	lecturers map[string]*model.Lecturer
	users     *mockUserRepo
	specs     *mockSpecializationRepo
}

func newMockLecturerRepo() *mockLecturerRepo {
	return &mockLecturerRepo{lecturers: make(map[string]*model.Lecturer)}
}

func (m *mockLecturerRepo) Create(_ context.Context, lec *model.Lecturer) error {
	if lec.LecturerID == "" {
		lec.LecturerID = uuid.NewString()
	}
	m.lecturers[lec.LecturerID] = lec
	return nil
}

func (m *mockLecturerRepo) GetByID(_ context.Context, id string) (*model.Lecturer, error) {
	if l, ok := m.lecturers[id]; ok {
		return m.hydrate(l), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLecturerRepo) GetByUserID(_ context.Context, userID string) (*model.Lecturer, error) {
	for _, l := range m.lecturers {
		if l.UserID == userID {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLecturerRepo) List(_ context.Context, filter repository.LecturerFilter, offset, limit int) ([]model.Lecturer, int64, error) {
	var out []model.Lecturer
	for _, l := range m.lecturers {
		if filter.SpecializationIDs != nil && !contains(filter.SpecializationIDs, l.SpecializationID) {
			continue
		}
		if filter.SpecializationID != "" && l.SpecializationID != filter.SpecializationID {
			continue
		}
		if filter.Role != "" && l.Role != filter.Role {
			continue
		}
		out = append(out, *m.hydrate(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LecturerID < out[j].LecturerID })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockLecturerRepo) hydrate(l *model.Lecturer) *model.Lecturer {
	out := *l
	if m.users != nil {
		out.User = m.users.users[l.UserID]
	}
	if m.specs != nil {
		out.Specialization = m.specs.specs[l.SpecializationID]
	}
	return &out
}

type mockStudentRepo struct {
	repository.StudentRepository
	students map[string]*model.Student
	users    *mockUserRepo
}

func newMockStudentRepo(users *mockUserRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student), users: users}
}

func (m *mockStudentRepo) Create(_ context.Context, st *model.Student) error {
	if _, err := m.GetByAdmission(context.Background(), st.Admission); err == nil {
		return gorm.ErrDuplicatedKey
	}
	if st.StudentID == "" {
		st.StudentID = uuid.NewString()
	}
	m.students[st.StudentID] = st
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return m.hydrate(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return m.hydrate(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByAdmission(_ context.Context, admission string) (*model.Student, error) {
	for _, s := range m.students {
		if s.Admission == admission {
			return m.hydrate(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, filter repository.StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var out []model.Student
	for _, s := range m.students {
		if filter.SpecializationIDs != nil && !contains(filter.SpecializationIDs, s.SpecializationID) {
			continue
		}
		if filter.SpecializationID != "" && s.SpecializationID != filter.SpecializationID {
			continue
		}
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.Mode != "" && s.Mode != filter.Mode {
			continue
		}
		if filter.Year != 0 && s.Year != filter.Year {
			continue
		}
		out = append(out, *m.hydrate(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Admission < out[j].Admission })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockStudentRepo) ListBySpecialization(_ context.Context, specializationID string) ([]model.Student, error) {
	var out []model.Student
	for _, s := range m.students {
		if s.SpecializationID == specializationID {
			out = append(out, *m.hydrate(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Admission < out[j].Admission })
	return out, nil
}

func (m *mockStudentRepo) hydrate(s *model.Student) *model.Student {
	out := *s
	if m.users != nil {
		out.User = m.users.users[s.UserID]
	}
	return &out
}

// ── scores ──

type mockDeadlineRepo struct {
	repository.DeadlineRepository
	deadlines map[string]*model.Deadline
}

func newMockDeadlineRepo() *mockDeadlineRepo {
	return &mockDeadlineRepo{deadlines: make(map[string]*model.Deadline)}
}

func (m *mockDeadlineRepo) Get(_ context.Context, name string) (*model.Deadline, error) {
	if d, ok := m.deadlines[name]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeadlineRepo) List(_ context.Context) ([]model.Deadline, error) {
	var out []model.Deadline
	for _, d := range m.deadlines {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDeadlineRepo) Upsert(_ context.Context, d *model.Deadline) error {
	m.deadlines[d.Name] = d
	return nil
}

type mockModuleScoreRepo struct {
	repository.ModuleScoreRepository
	scores  map[string]*model.ModuleScore
	modules *mockModuleRepo
}

func newMockModuleScoreRepo(modules *mockModuleRepo) *mockModuleScoreRepo {
	return &mockModuleScoreRepo{scores: make(map[string]*model.ModuleScore), modules: modules}
}

func (m *mockModuleScoreRepo) Create(_ context.Context, score *model.ModuleScore) error {
	for _, s := range m.scores {
		if s.StudentID == score.StudentID && s.ModuleID == score.ModuleID {
			return gorm.ErrDuplicatedKey
		}
	}
	if score.ModuleScoreID == "" {
		score.ModuleScoreID = uuid.NewString()
	}
	m.scores[score.ModuleScoreID] = score
	return nil
}

func (m *mockModuleScoreRepo) GetByID(_ context.Context, id string) (*model.ModuleScore, error) {
	s, ok := m.scores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s
	out.Module, _ = m.modules.GetByID(context.Background(), s.ModuleID)
	return &out, nil
}

func (m *mockModuleScoreRepo) Update(_ context.Context, score *model.ModuleScore) error {
	m.scores[score.ModuleScoreID] = score
	return nil
}

func (m *mockModuleScoreRepo) Delete(_ context.Context, id string) error {
	delete(m.scores, id)
	return nil
}

func (m *mockModuleScoreRepo) ListByModules(_ context.Context, moduleIDs []string) ([]model.ModuleScore, error) {
	var out []model.ModuleScore
	for _, s := range m.scores {
		if contains(moduleIDs, s.ModuleID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type mockSitinCatRepo struct {
	repository.SitinCatRepository
	sitins map[string]*model.SitinCat
}

func newMockSitinCatRepo() *mockSitinCatRepo {
	return &mockSitinCatRepo{sitins: make(map[string]*model.SitinCat)}
}

func (m *mockSitinCatRepo) Create(_ context.Context, sitin *model.SitinCat) error {
	for _, s := range m.sitins {
		if s.StudentID == sitin.StudentID && s.PaperID == sitin.PaperID {
			return gorm.ErrDuplicatedKey
		}
	}
	if sitin.SitinCatID == "" {
		sitin.SitinCatID = uuid.NewString()
	}
	m.sitins[sitin.SitinCatID] = sitin
	return nil
}

func (m *mockSitinCatRepo) ListByPaper(_ context.Context, paperID string) ([]model.SitinCat, error) {
	var out []model.SitinCat
	for _, s := range m.sitins {
		if s.PaperID == paperID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type mockResultRepo struct {
	repository.ResultRepository
	results map[[2]string]*model.Result // (student, paper)
}

func newMockResultRepo() *mockResultRepo {
	return &mockResultRepo{results: make(map[[2]string]*model.Result)}
}

// Upsert mirrors the column-scoped upsert: only cat is overwritten on an existing row
func (m *mockResultRepo) Upsert(_ context.Context, result *model.Result, cat string) error {
	key := [2]string{result.StudentID, result.PaperID}
	existing, ok := m.results[key]
	if !ok {
		cp := *result
		if cp.ResultID == "" {
			cp.ResultID = uuid.NewString()
		}
		m.results[key] = &cp
		return nil
	}
	if cat == model.Cat1 {
		existing.Cat1 = result.Cat1
	} else {
		existing.Cat2 = result.Cat2
	}
	return nil
}

func (m *mockResultRepo) List(_ context.Context, filter repository.ResultFilter, offset, limit int) ([]model.Result, int64, error) {
	var out []model.Result
	for _, r := range m.results {
		if filter.PaperID != "" && r.PaperID != filter.PaperID {
			continue
		}
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return page(out, offset, limit), int64(len(out)), nil
}

type mockAuditLogRepo struct {
	repository.AuditLogRepository
	entries []model.AuditLog
}

func (m *mockAuditLogRepo) Create(_ context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

// ── teaching practice ──

type mockPeriodRepo struct {
	repository.PeriodRepository
	periods map[string]*model.Period
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.Period)}
}

func (m *mockPeriodRepo) Create(_ context.Context, p *model.Period) error {
	for _, existing := range m.periods {
		if existing.Name == p.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.PeriodID == "" {
		p.PeriodID = uuid.NewString()
	}
	m.periods[p.PeriodID] = p
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.Period, error) {
	if p, ok := m.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) GetActive(_ context.Context) (*model.Period, error) {
	for _, p := range m.periods {
		if p.IsActive {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) List(_ context.Context) ([]model.Period, error) {
	var out []model.Period
	for _, p := range m.periods {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockPeriodRepo) Update(_ context.Context, p *model.Period) error {
	cp := *p
	m.periods[p.PeriodID] = &cp
	return nil
}

func (m *mockPeriodRepo) ClearActive(_ context.Context) error {
	for _, p := range m.periods {
		p.IsActive = false
	}
	return nil
}

type mockAssessmentTypeRepo struct {
	repository.AssessmentTypeRepository
	types   map[string]*model.AssessmentType
	admins  map[string][]string // type id -> user ids
	courses *mockCourseRepo
	users   *mockUserRepo
}

func newMockAssessmentTypeRepo(courses *mockCourseRepo) *mockAssessmentTypeRepo {
	return &mockAssessmentTypeRepo{
		types:   make(map[string]*model.AssessmentType),
		admins:  make(map[string][]string),
		courses: courses,
	}
}

func (m *mockAssessmentTypeRepo) Create(_ context.Context, at *model.AssessmentType) error {
	for _, t := range m.types {
		if t.ShortName == at.ShortName {
			return gorm.ErrDuplicatedKey
		}
	}
	if at.AssessmentTypeID == "" {
		at.AssessmentTypeID = uuid.NewString()
	}
	m.types[at.AssessmentTypeID] = at
	return nil
}

func (m *mockAssessmentTypeRepo) GetByID(_ context.Context, id string) (*model.AssessmentType, error) {
	t, ok := m.types[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *t
	out.Course = m.courses.courses[t.CourseID]
	out.Admins = nil
	if m.users != nil {
		for _, userID := range m.admins[id] {
			if u, ok := m.users.users[userID]; ok {
				out.Admins = append(out.Admins, *u)
			}
		}
	}
	return &out, nil
}

func (m *mockAssessmentTypeRepo) Update(_ context.Context, at *model.AssessmentType) error {
	for _, t := range m.types {
		if t.ShortName == at.ShortName && t.AssessmentTypeID != at.AssessmentTypeID {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *at
	cp.Course, cp.Admins = nil, nil
	m.types[at.AssessmentTypeID] = &cp
	return nil
}

func (m *mockAssessmentTypeRepo) ReplaceAdmins(_ context.Context, at *model.AssessmentType, admins []model.User) error {
	ids := make([]string, 0, len(admins))
	for _, u := range admins {
		ids = append(ids, u.UserID)
	}
	m.admins[at.AssessmentTypeID] = ids
	return nil
}

func (m *mockAssessmentTypeRepo) ListIDsByAdmin(_ context.Context, userID string) ([]string, error) {
	var out []string
	for typeID, users := range m.admins {
		if contains(users, userID) {
			out = append(out, typeID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type mockRubricRepo struct {
	repository.RubricRepository
	sections    map[string]*model.Section
	subSections map[string]*model.SubSection
	aspects     map[string]*model.Aspect
}

func newMockRubricRepo() *mockRubricRepo {
	return &mockRubricRepo{
		sections:    make(map[string]*model.Section),
		subSections: make(map[string]*model.SubSection),
		aspects:     make(map[string]*model.Aspect),
	}
}

// CreateSection keeps (assessment type, number) unique
func (m *mockRubricRepo) CreateSection(_ context.Context, section *model.Section) error {
	for _, s := range m.sections {
		if s.AssessmentTypeID == section.AssessmentTypeID && s.Number == section.Number {
			return gorm.ErrDuplicatedKey
		}
	}
	if section.SectionID == "" {
		section.SectionID = uuid.NewString()
	}
	cp := *section
	m.sections[section.SectionID] = &cp
	return nil
}

func (m *mockRubricRepo) GetSection(_ context.Context, id string) (*model.Section, error) {
	if s, ok := m.sections[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRubricRepo) CreateSubSection(_ context.Context, sub *model.SubSection) error {
	if sub.SubSectionID == "" {
		sub.SubSectionID = uuid.NewString()
	}
	cp := *sub
	m.subSections[sub.SubSectionID] = &cp
	return nil
}

func (m *mockRubricRepo) GetSubSection(_ context.Context, id string) (*model.SubSection, error) {
	sub, ok := m.subSections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sub
	cp.Section = m.sections[sub.SectionID]
	return &cp, nil
}

func (m *mockRubricRepo) CreateAspect(_ context.Context, aspect *model.Aspect) error {
	if aspect.AspectID == "" {
		aspect.AspectID = uuid.NewString()
	}
	cp := *aspect
	m.aspects[aspect.AspectID] = &cp
	return nil
}

func (m *mockRubricRepo) GetAspect(_ context.Context, id string) (*model.Aspect, error) {
	a, ok := m.aspects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	cp.Section = m.sections[a.SectionID]
	if a.SubSectionID != nil {
		cp.SubSection = m.subSections[*a.SubSectionID]
	}
	return &cp, nil
}

func (m *mockRubricRepo) ListAspects(_ context.Context, filter repository.RubricFilter) ([]model.Aspect, error) {
	var out []model.Aspect
	for _, a := range m.aspects {
		if filter.SectionID != "" && a.SectionID != filter.SectionID {
			continue
		}
		if filter.AssessmentTypeID != "" {
			sec, ok := m.sections[a.SectionID]
			if !ok || sec.AssessmentTypeID != filter.AssessmentTypeID {
				continue
			}
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRubricRepo) UpdateAspect(_ context.Context, aspect *model.Aspect) error {
	cp := *aspect
	cp.Section, cp.SubSection = nil, nil
	m.aspects[aspect.AspectID] = &cp
	return nil
}

func (m *mockRubricRepo) ListSections(_ context.Context, filter repository.RubricFilter) ([]model.Section, error) {
	var out []model.Section
	for _, s := range m.sections {
		if filter.AssessmentTypeID != "" && s.AssessmentTypeID != filter.AssessmentTypeID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *mockRubricRepo) ListActiveAspects(_ context.Context, sectionIDs []string) ([]model.Aspect, error) {
	var out []model.Aspect
	for _, a := range m.aspects {
		if a.IsActive && contains(sectionIDs, a.SectionID) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type mockTPStudentRepo struct {
	repository.TPStudentRepository
	students map[string]*model.TPStudent
	specs    *mockSpecializationRepo
	courses  *mockCourseRepo
}

func newMockTPStudentRepo() *mockTPStudentRepo {
	return &mockTPStudentRepo{students: make(map[string]*model.TPStudent)}
}

func (m *mockTPStudentRepo) Create(_ context.Context, st *model.TPStudent) error {
	if _, err := m.GetByIndex(context.Background(), st.Index); err == nil {
		return gorm.ErrDuplicatedKey
	}
	if st.TPStudentID == "" {
		st.TPStudentID = uuid.NewString()
	}
	m.students[st.TPStudentID] = st
	return nil
}

func (m *mockTPStudentRepo) GetByID(_ context.Context, id string) (*model.TPStudent, error) {
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTPStudentRepo) GetByIndex(_ context.Context, index string) (*model.TPStudent, error) {
	for _, s := range m.students {
		if s.Index == index {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTPStudentRepo) Update(_ context.Context, st *model.TPStudent) error {
	cp := *st
	m.students[st.TPStudentID] = &cp
	return nil
}

func (m *mockTPStudentRepo) List(_ context.Context, filter repository.TPStudentFilter, offset, limit int) ([]model.TPStudent, int64, error) {
	var out []model.TPStudent
	for _, st := range m.students {
		if filter.SpecializationID != "" && deref(st.SpecializationID) != filter.SpecializationID {
			continue
		}
		if filter.PeriodID != "" && deref(st.PeriodID) != filter.PeriodID {
			continue
		}
		if filter.Department != "" && deref(st.Department) != filter.Department {
			continue
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return page(out, offset, limit), int64(len(out)), nil
}

// ListInvalidIndex students of diploma courses with a malformed, non-empty index
func (m *mockTPStudentRepo) ListInvalidIndex(_ context.Context) ([]model.TPStudent, error) {
	var out []model.TPStudent
	for _, st := range m.students {
		if st.SpecializationID == nil || st.Index == "" || st.HasValidIndex() {
			continue
		}
		spec, ok := m.specs.specs[*st.SpecializationID]
		if !ok {
			continue
		}
		if course, ok := m.courses.courses[spec.CourseID]; !ok || !course.IsDiploma() {
			continue
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// mockLetterRepo keeps letters, sections and aspects in separate tables and
// joins them back on read, the way the preloading repository does.
type mockLetterRepo struct {
	repository.LetterRepository
	letters   map[string]*model.StudentLetter
	sections  map[string]*model.StudentSection
	aspects   map[string]*model.StudentAspect
	locations map[string]*model.Location

	students *mockTPStudentRepo
	users    *mockUserRepo
	types    *mockAssessmentTypeRepo
	rubric   *mockRubricRepo
}

func newMockLetterRepo(students *mockTPStudentRepo, users *mockUserRepo, types *mockAssessmentTypeRepo, rubric *mockRubricRepo) *mockLetterRepo {
	return &mockLetterRepo{
		letters:   make(map[string]*model.StudentLetter),
		sections:  make(map[string]*model.StudentSection),
		aspects:   make(map[string]*model.StudentAspect),
		locations: make(map[string]*model.Location),
		students:  students,
		users:     users,
		types:     types,
		rubric:    rubric,
	}
}

func (m *mockLetterRepo) CreateLocation(_ context.Context, loc *model.Location) error {
	loc.LocationID = uuid.NewString()
	m.locations[loc.LocationID] = loc
	return nil
}

func (m *mockLetterRepo) Create(_ context.Context, letter *model.StudentLetter) error {
	letter.LetterID = uuid.NewString()
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = timeNow()
	}
	for i := range letter.Sections {
		ss := &letter.Sections[i]
		ss.StudentSectionID = uuid.NewString()
		ss.LetterID = letter.LetterID
		for j := range ss.Aspects {
			sa := &ss.Aspects[j]
			sa.StudentAspectID = uuid.NewString()
			sa.StudentSectionID = ss.StudentSectionID
			cp := *sa
			m.aspects[sa.StudentAspectID] = &cp
		}
		cp := *ss
		cp.Aspects = nil
		m.sections[ss.StudentSectionID] = &cp
	}
	cp := *letter
	cp.Sections = nil
	m.letters[letter.LetterID] = &cp
	return nil
}

func (m *mockLetterRepo) GetByID(_ context.Context, id string) (*model.StudentLetter, error) {
	l, ok := m.letters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.hydrate(l)
	out.Sections = m.sectionsOf(id)
	return out, nil
}

func (m *mockLetterRepo) FindRecent(_ context.Context, studentID, assessorID, typeID string, since time.Time) (*model.StudentLetter, error) {
	var found *model.StudentLetter
	for _, l := range m.letters {
		if l.TPStudentID != studentID || l.AssessorID != assessorID || l.AssessmentTypeID != typeID {
			continue
		}
		if l.ToDelete || l.CreatedAt.Before(since) {
			continue
		}
		if found == nil || l.CreatedAt.After(found.CreatedAt) {
			found = l
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockLetterRepo) ListCompleted(_ context.Context, scope repository.LetterScope) ([]model.StudentLetter, error) {
	var out []model.StudentLetter
	for _, l := range m.letters {
		h := m.hydrate(l)
		if !letterInScope(scope, h) {
			continue
		}
		if l.Comments == nil || l.TotalScore == 0 || l.ToDelete || l.IsEditable {
			continue
		}
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Student.FullName != out[j].Student.FullName {
			return out[i].Student.FullName < out[j].Student.FullName
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockLetterRepo) Update(_ context.Context, letter *model.StudentLetter) error {
	cp := *letter
	cp.Student, cp.Assessor, cp.AssessmentType, cp.Location, cp.Sections = nil, nil, nil, nil, nil
	m.letters[letter.LetterID] = &cp
	return nil
}

func (m *mockLetterRepo) Delete(_ context.Context, letter *model.StudentLetter) error {
	for id, ss := range m.sections {
		if ss.LetterID != letter.LetterID {
			continue
		}
		for aid, sa := range m.aspects {
			if sa.StudentSectionID == id {
				delete(m.aspects, aid)
			}
		}
		delete(m.sections, id)
	}
	delete(m.letters, letter.LetterID)
	return nil
}

func (m *mockLetterRepo) GetSection(_ context.Context, id string) (*model.StudentSection, error) {
	ss, ok := m.sections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *ss
	out.Section = m.rubric.sections[ss.SectionID]
	return &out, nil
}

func (m *mockLetterRepo) ListSections(_ context.Context, letterID string) ([]model.StudentSection, error) {
	return m.sectionsOf(letterID), nil
}

func (m *mockLetterRepo) UpdateSection(_ context.Context, section *model.StudentSection) error {
	cp := *section
	cp.Section, cp.Aspects = nil, nil
	m.sections[section.StudentSectionID] = &cp
	return nil
}

func (m *mockLetterRepo) GetAspect(_ context.Context, id string) (*model.StudentAspect, error) {
	sa, ok := m.aspects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *sa
	out.Aspect = m.rubric.aspects[sa.AspectID]
	return &out, nil
}

func (m *mockLetterRepo) ListAspects(_ context.Context, studentSectionID string) ([]model.StudentAspect, error) {
	var out []model.StudentAspect
	for _, sa := range m.aspects {
		if sa.StudentSectionID == studentSectionID {
			cp := *sa
			cp.Aspect = m.rubric.aspects[sa.AspectID]
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *mockLetterRepo) UpdateAspect(_ context.Context, aspect *model.StudentAspect) error {
	cp := *aspect
	cp.Aspect = nil
	m.aspects[aspect.StudentAspectID] = &cp
	return nil
}

func (m *mockLetterRepo) hydrate(l *model.StudentLetter) *model.StudentLetter {
	out := *l
	if st, ok := m.students.students[l.TPStudentID]; ok {
		cp := *st
		out.Student = &cp
	}
	out.Assessor = m.users.users[l.AssessorID]
	out.AssessmentType, _ = m.types.GetByID(context.Background(), l.AssessmentTypeID)
	if l.LocationID != nil {
		out.Location = m.locations[*l.LocationID]
	}
	return &out
}

func (m *mockLetterRepo) sectionsOf(letterID string) []model.StudentSection {
	var out []model.StudentSection
	for _, ss := range m.sections {
		if ss.LetterID != letterID {
			continue
		}
		cp := *ss
		cp.Section = m.rubric.sections[ss.SectionID]
		cp.Aspects, _ = m.ListAspects(context.Background(), ss.StudentSectionID)
		out = append(out, cp)
	}
	return sortedSections(out)
}

// mockZonalLeaderRepo zones seeds assessor zones directly; leaders holds
// rows created through the service
type mockZonalLeaderRepo struct {
	repository.ZonalLeaderRepository
	zones   map[string][]string // assessor id -> zones
	leaders map[string]*model.ZonalLeader
	users   *mockUserRepo
}

func newMockZonalLeaderRepo() *mockZonalLeaderRepo {
	return &mockZonalLeaderRepo{zones: make(map[string][]string), leaders: make(map[string]*model.ZonalLeader)}
}

// Create keeps (zone, assessor) unique
func (m *mockZonalLeaderRepo) Create(_ context.Context, leader *model.ZonalLeader) error {
	if m.taken(leader) {
		return gorm.ErrDuplicatedKey
	}
	if leader.ZonalLeaderID == "" {
		leader.ZonalLeaderID = uuid.NewString()
	}
	cp := *leader
	m.leaders[leader.ZonalLeaderID] = &cp
	return nil
}

func (m *mockZonalLeaderRepo) GetByID(_ context.Context, id string) (*model.ZonalLeader, error) {
	l, ok := m.leaders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	if m.users != nil {
		cp.Assessor = m.users.users[l.AssessorID]
	}
	return &cp, nil
}

func (m *mockZonalLeaderRepo) List(_ context.Context, zone, assessorID string) ([]model.ZonalLeader, error) {
	var out []model.ZonalLeader
	for _, l := range m.leaders {
		if zone != "" && l.ZoneName != zone {
			continue
		}
		if assessorID != "" && l.AssessorID != assessorID {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneName < out[j].ZoneName })
	return out, nil
}

func (m *mockZonalLeaderRepo) Update(_ context.Context, leader *model.ZonalLeader) error {
	if m.taken(leader) {
		return gorm.ErrDuplicatedKey
	}
	cp := *leader
	cp.Assessor = nil
	m.leaders[leader.ZonalLeaderID] = &cp
	return nil
}

func (m *mockZonalLeaderRepo) Delete(_ context.Context, id string) error {
	delete(m.leaders, id)
	return nil
}

func (m *mockZonalLeaderRepo) ZonesByAssessor(_ context.Context, assessorID string) ([]string, error) {
	out := append([]string(nil), m.zones[assessorID]...)
	for _, l := range m.leaders {
		if l.AssessorID == assessorID {
			out = append(out, l.ZoneName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockZonalLeaderRepo) taken(leader *model.ZonalLeader) bool {
	for _, l := range m.leaders {
		if l.ZonalLeaderID != leader.ZonalLeaderID && l.ZoneName == leader.ZoneName && l.AssessorID == leader.AssessorID {
			return true
		}
	}
	return false
}

// ── token store ──

type mockTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	otps    map[string]string
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{revoked: make(map[string]time.Duration), otps: make(map[string]string)}
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *mockTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *mockTokenStore) StoreOTP(_ context.Context, email, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[email] = code
	return nil
}

// VerifyOTP consumes the code on success
func (m *mockTokenStore) VerifyOTP(_ context.Context, email, code string, _ int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.otps[email]
	if !ok {
		return false, redis.ErrOTPNotFound
	}
	if stored != code {
		return false, nil
	}
	delete(m.otps, email)
	return true, nil
}

// ── fixture ──

// testRepos the mocks behind one repository aggregate
type testRepos struct {
	repo *repository.Repository

	users       *mockUserRepo
	courses     *mockCourseRepo
	specs       *mockSpecializationRepo
	papers      *mockPaperRepo
	modules     *mockModuleRepo
	combos      *mockCatCombinationRepo
	lecturers   *mockLecturerRepo
	students    *mockStudentRepo
	deadlines   *mockDeadlineRepo
	scores      *mockModuleScoreRepo
	sitins      *mockSitinCatRepo
	results     *mockResultRepo
	audit       *mockAuditLogRepo
	periods     *mockPeriodRepo
	types       *mockAssessmentTypeRepo
	rubric      *mockRubricRepo
	tpStudents  *mockTPStudentRepo
	letters     *mockLetterRepo
	zonalLeader *mockZonalLeaderRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		users:       newMockUserRepo(),
		courses:     newMockCourseRepo(),
		specs:       newMockSpecializationRepo(),
		papers:      newMockPaperRepo(),
		lecturers:   newMockLecturerRepo(),
		deadlines:   newMockDeadlineRepo(),
		sitins:      newMockSitinCatRepo(),
		results:     newMockResultRepo(),
		audit:       &mockAuditLogRepo{},
		periods:     newMockPeriodRepo(),
		rubric:      newMockRubricRepo(),
		tpStudents:  newMockTPStudentRepo(),
		zonalLeader: newMockZonalLeaderRepo(),
	}
	r.modules = newMockModuleRepo(r.papers)
	r.combos = newMockCatCombinationRepo(r.modules)
	r.specs.users = r.users
	r.lecturers.users, r.lecturers.specs = r.users, r.specs
	r.tpStudents.specs, r.tpStudents.courses = r.specs, r.courses
	r.zonalLeader.users = r.users
	r.students = newMockStudentRepo(r.users)
	r.scores = newMockModuleScoreRepo(r.modules)
	r.types = newMockAssessmentTypeRepo(r.courses)
	r.types.users = r.users
	r.letters = newMockLetterRepo(r.tpStudents, r.users, r.types, r.rubric)

	r.repo = &repository.Repository{
		User:           r.users,
		Course:         r.courses,
		Specialization: r.specs,
		Paper:          r.papers,
		Module:         r.modules,
		CatCombination: r.combos,
		Lecturer:       r.lecturers,
		Student:        r.students,
		Deadline:       r.deadlines,
		ModuleScore:    r.scores,
		SitinCat:       r.sitins,
		Result:         r.results,
		AuditLog:       r.audit,
		Period:         r.periods,
		AssessmentType: r.types,
		Rubric:         r.rubric,
		TPStudent:      r.tpStudents,
		Letter:         r.letters,
		ZonalLeader:    r.zonalLeader,
	}
	return r
}

func page[T any](all []T, offset, limit int) []T {
	if offset > len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func ptr[T any](v T) *T { return &v }
