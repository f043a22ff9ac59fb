package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shiftboard/internal/model"
	"shiftboard/internal/repository"
	"shiftboard/internal/worker"
	"shiftboard/pkg/push"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users   map[string]*model.User
	cleared []string // userID:token
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(id, name, role, storeID, token string) *model.User {
	u := &model.User{UserID: id, Name: name, Role: role, StoreID: storeID, IsActive: true}
	if token != "" {
		t := token
		u.PushToken = &t
	}
	m.users[id] = u
	return u
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) list(match func(*model.User) bool) []model.User {
	var out []model.User
	for _, u := range m.users {
		if u.IsActive && match(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (m *mockUserRepo) ListActiveByStore(_ context.Context, storeID string) ([]model.User, error) {
	return m.list(func(u *model.User) bool { return u.StoreID == storeID }), nil
}

func (m *mockUserRepo) ListActiveByRole(_ context.Context, role string) ([]model.User, error) {
	return m.list(func(u *model.User) bool { return u.Role == role }), nil
}

func (m *mockUserRepo) SetPushToken(_ context.Context, userID string, token *string) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PushToken = token
	return nil
}

func (m *mockUserRepo) ClearPushToken(_ context.Context, userID, token string) error {
	m.cleared = append(m.cleared, userID+":"+token)
	if u, ok := m.users[userID]; ok && u.PushToken != nil && *u.PushToken == token {
		u.PushToken = nil
	}
	return nil
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct {
	rows       map[string]*model.Settings
	flagWrites []bool
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{rows: make(map[string]*model.Settings)}
}

func (m *mockSettingsRepo) Get(_ context.Context, scopeID string) (*model.Settings, error) {
	if s, ok := m.rows[scopeID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingsRepo) Save(_ context.Context, s *model.Settings) error {
	cp := *s
	m.rows[s.ScopeID] = &cp
	return nil
}

func (m *mockSettingsRepo) SetRegistrationOpen(_ context.Context, scopeID string, open bool) error {
	m.flagWrites = append(m.flagWrites, open)
	if s, ok := m.rows[scopeID]; ok {
		s.RegistrationOpen = open
	}
	return nil
}

// ── Mock AssignmentUnitRepository ──

type mockUnitRepo struct {
	units map[string]model.AssignmentUnit
	calls int
	// failCalls makes the n-th ReplaceBatch call (0-based) fail without writing
	failCalls map[int]bool
	// afterCall runs once a ReplaceBatch call has committed
	afterCall func(call int)
}

func newMockUnitRepo() *mockUnitRepo {
	return &mockUnitRepo{units: make(map[string]model.AssignmentUnit), failCalls: make(map[int]bool)}
}

func (m *mockUnitRepo) GetByKey(_ context.Context, unitID string) (*model.AssignmentUnit, error) {
	if u, ok := m.units[unitID]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) GetByKeys(_ context.Context, unitIDs []string) ([]model.AssignmentUnit, error) {
	var out []model.AssignmentUnit
	for _, id := range unitIDs {
		if u, ok := m.units[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// ReplaceBatch fails on a cancelled context the way a gorm transaction does
func (m *mockUnitRepo) ReplaceBatch(ctx context.Context, units []model.AssignmentUnit) error {
	call := m.calls
	m.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.failCalls[call] {
		return gorm.ErrInvalidTransaction
	}
	for _, u := range units {
		m.units[u.UnitID] = u
	}
	if m.afterCall != nil {
		m.afterCall(call)
	}
	return nil
}

func (m *mockUnitRepo) ListByStoreDates(_ context.Context, storeID, fromDate, toDate string) ([]model.AssignmentUnit, error) {
	var out []model.AssignmentUnit
	for _, u := range m.units {
		if u.StoreID == storeID && u.Date >= fromDate && u.Date <= toDate {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

func (m *mockUnitRepo) ListByEmployee(_ context.Context, userID, fromDate, toDate string) ([]model.AssignmentUnit, error) {
	var out []model.AssignmentUnit
	for _, u := range m.units {
		if u.Date < fromDate || u.Date > toDate {
			continue
		}
		for _, id := range u.EmployeeIDs {
			if id == userID {
				out = append(out, u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

// ── Mock RegistrationRepository ──

type mockRegistrationRepo struct {
	regs map[string]*model.WeeklyRegistration
	// afterSave runs once a Save has been stored
	afterSave func()
}

func newMockRegistrationRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{regs: make(map[string]*model.WeeklyRegistration)}
}

func regKey(userID, weekStart string) string { return userID + "|" + weekStart }

func (m *mockRegistrationRepo) Get(_ context.Context, userID, weekStart string) (*model.WeeklyRegistration, error) {
	if r, ok := m.regs[regKey(userID, weekStart)]; ok {
		cp := *r
		cp.Shifts = append(cp.Shifts[:0:0], r.Shifts...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) Save(_ context.Context, reg *model.WeeklyRegistration) error {
	cp := *reg
	cp.Shifts = append(cp.Shifts[:0:0], reg.Shifts...)
	m.regs[regKey(reg.UserID, reg.WeekStartDate)] = &cp
	if m.afterSave != nil {
		m.afterSave()
	}
	return nil
}

func (m *mockRegistrationRepo) Delete(_ context.Context, userID, weekStart string) error {
	delete(m.regs, regKey(userID, weekStart))
	return nil
}

func (m *mockRegistrationRepo) ListByWeek(_ context.Context, weekStart, storeID string) ([]model.WeeklyRegistration, error) {
	var out []model.WeeklyRegistration
	for _, r := range m.regs {
		if r.WeekStartDate == weekStart && (storeID == "" || r.StoreID == storeID) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu        sync.Mutex
	items     []model.Notification
	createErr error
	batchErr  error
	batches   int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.items = append(m.items, *n)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.batchErr != nil {
		return m.batchErr
	}
	m.items = append(m.items, ns...)
	return nil
}

func (m *mockNotificationRepo) forUser(userID string) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var matched []model.Notification
	for _, n := range m.forUser(userID) {
		if unreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].NotificationID == notificationID && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, it := range m.forUser(userID) {
		if !it.IsRead {
			n++
		}
	}
	return n, nil
}

// ── Mock TemplateRepository ──

type mockTemplateRepo struct {
	templates map[string]*model.NotificationTemplate
	gets      int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.NotificationTemplate)}
}

func (m *mockTemplateRepo) add(id, title, body string) {
	m.templates[id] = &model.NotificationTemplate{TemplateID: id, Name: id, TitleTemplate: title, BodyTemplate: body}
}

func (m *mockTemplateRepo) Create(_ context.Context, t *model.NotificationTemplate) error {
	if _, ok := m.templates[t.TemplateID]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *t
	m.templates[t.TemplateID] = &cp
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.NotificationTemplate, error) {
	m.gets++
	if t, ok := m.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) List(_ context.Context) ([]model.NotificationTemplate, error) {
	var out []model.NotificationTemplate
	for _, t := range m.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, t *model.NotificationTemplate) error {
	if _, ok := m.templates[t.TemplateID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *t
	m.templates[t.TemplateID] = &cp
	return nil
}

func (m *mockTemplateRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.templates[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.templates, id)
	return nil
}

// ── Mock BroadcastTaskRepository ──

type mockTaskRepo struct {
	tasks    map[string]*model.BroadcastTask
	outcomes map[string]model.TaskOutcome
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.BroadcastTask), outcomes: make(map[string]model.TaskOutcome)}
}

func (m *mockTaskRepo) Create(_ context.Context, t *model.BroadcastTask) error {
	cp := *t
	m.tasks[t.TaskID] = &cp
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.BroadcastTask, error) {
	if t, ok := m.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) List(_ context.Context, status string, offset, limit int) ([]model.BroadcastTask, int64, error) {
	var out []model.BroadcastTask
	for _, t := range m.tasks {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	return out[offset:min(offset+limit, len(out))], total, nil
}

// ListDue mirrors the SQL filter
func (m *mockTaskRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.BroadcastTask, error) {
	var out []model.BroadcastTask
	for _, t := range m.tasks {
		if t.IsActive && t.Status == model.TaskPending && !t.ScheduledAt.After(now) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockTaskRepo) Finish(ctx context.Context, taskID string, o model.TaskOutcome) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t, ok := m.tasks[taskID]
	if !ok || t.Status != model.TaskPending {
		return false, nil
	}
	t.Status = o.Status
	t.IsActive = false
	m.outcomes[taskID] = o
	return true, nil
}

// ── collaborators ──

// syncRunner runs background work inline so assertions see its effects
type syncRunner struct {
	names []string
}

func (r *syncRunner) Go(ctx context.Context, name string, task worker.Task) {
	r.names = append(r.names, name)
	_ = task(context.WithoutCancel(ctx))
}

type fakeSender struct {
	mu      sync.Mutex
	one     []push.Message
	many    [][]push.Message
	oneErr  error
	manyErr error
	expired map[string]bool
	// onMany runs before each multicast is answered
	onMany func()
}

func newFakeSender() *fakeSender {
	return &fakeSender{expired: make(map[string]bool)}
}

func (f *fakeSender) SendOne(_ context.Context, msg push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.one = append(f.one, msg)
	if f.expired[msg.Token] {
		return push.ErrTokenExpired
	}
	return f.oneErr
}

func (f *fakeSender) SendMany(_ context.Context, msgs []push.Message) (*push.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.many = append(f.many, msgs)
	if f.onMany != nil {
		f.onMany()
	}
	if f.manyErr != nil {
		return nil, f.manyErr
	}
	res := &push.BatchResult{}
	for _, m := range msgs {
		if f.expired[m.Token] {
			res.FailureCount++
			res.Items = append(res.Items, push.ItemResult{Token: m.Token, Err: push.ErrTokenExpired})
			continue
		}
		res.SuccessCount++
		res.Items = append(res.Items, push.ItemResult{Token: m.Token, Success: true})
	}
	return res, nil
}

func (f *fakeSender) multicastTokens() []string {
	var out []string
	for _, batch := range f.many {
		for _, m := range batch {
			out = append(out, m.Token)
		}
	}
	return out
}

type fakeClaimer struct {
	held map[string]string
}

func newFakeClaimer() *fakeClaimer {
	return &fakeClaimer{held: make(map[string]string)}
}

func (c *fakeClaimer) Claim(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	if _, ok := c.held[key]; ok {
		return false, nil
	}
	c.held[key] = owner
	return true, nil
}

func (c *fakeClaimer) Release(_ context.Context, key, owner string) error {
	if c.held[key] == owner {
		delete(c.held, key)
	}
	return nil
}

// ── fixture ──

type testRepos struct {
	user         *mockUserRepo
	settings     *mockSettingsRepo
	units        *mockUnitRepo
	registration *mockRegistrationRepo
	notification *mockNotificationRepo
	template     *mockTemplateRepo
	task         *mockTaskRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		user:         newMockUserRepo(),
		settings:     newMockSettingsRepo(),
		units:        newMockUnitRepo(),
		registration: newMockRegistrationRepo(),
		notification: newMockNotificationRepo(),
		template:     newMockTemplateRepo(),
		task:         newMockTaskRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:           r.user,
		Settings:       r.settings,
		AssignmentUnit: r.units,
		Registration:   r.registration,
		Notification:   r.notification,
		Template:       r.template,
		BroadcastTask:  r.task,
	}
}

// mapEvent adds an event mapping to the global settings row
func (r *testRepos) mapEvent(event, templateID string) {
	row, ok := r.settings.rows[model.GlobalScope]
	if !ok {
		row = &model.Settings{ScopeID: model.GlobalScope}
		r.settings.rows[model.GlobalScope] = row
	}
	m := row.Mappings()
	m[event] = templateID
	row.EventMappings = datatypes.NewJSONType(m)
}

// testEnv a fully wired service layer over the mocks
type testEnv struct {
	repos   *testRepos
	sender  *fakeSender
	runner  *syncRunner
	claimer *fakeClaimer
	logger  *zap.Logger
}

func newTestEnv() *testEnv {
	return &testEnv{
		repos:   newTestRepos(),
		sender:  newFakeSender(),
		runner:  &syncRunner{},
		claimer: newFakeClaimer(),
		logger:  zap.NewNop(),
	}
}

func (e *testEnv) notification() NotificationService {
	return NewNotificationService(e.repos.toRepository(), e.sender, e.logger)
}

func (e *testEnv) resolver() EventResolver {
	return NewEventResolver(e.repos.toRepository(), e.notification(), e.logger)
}

func (e *testEnv) schedule(batchSize int) ScheduleService {
	return NewScheduleService(e.repos.toRepository(), e.resolver(), e.notification(), e.runner, batchSize, e.logger)
}

func titles(ns []model.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Title)
	}
	return out
}

func joinSorted(in []string) string {
	cp := append([]string(nil), in...)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}
