package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"projectcrm/internal/apperr"
	"projectcrm/internal/hierarchy"
	"projectcrm/internal/models"
)

// memTx serializes transactions like row locks would.
type memTx struct {
	mu sync.Mutex
}

func (m *memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	tasks    map[int64]*models.Task
	deps     map[int64][]int64
	entries  map[int64]*models.TaskTimeEntry
	users    map[int64]*models.User
	emps     map[int64]*models.Employee
	allocs   []models.Allocation
	projects map[int64]*models.Project
	projTask map[int64][]int64
	team     map[int64][]models.TeamMember
	accounts map[int64]*models.Account
	comps    map[int64]*models.Company
}

func newMemStore() *memStore {
	return &memStore{
		tasks:    map[int64]*models.Task{},
		deps:     map[int64][]int64{},
		entries:  map[int64]*models.TaskTimeEntry{},
		users:    map[int64]*models.User{},
		emps:     map[int64]*models.Employee{},
		projects: map[int64]*models.Project{},
		projTask: map[int64][]int64{},
		team:     map[int64][]models.TeamMember{},
		accounts: map[int64]*models.Account{},
		comps:    map[int64]*models.Company{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// tasks

type memTaskRepo struct{ *memStore }

func (r memTaskRepo) Store(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r memTaskRepo) FindByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.DeletedAt != nil {
		return nil, apperr.NotFound("task")
	}
	c := *t
	return &c, nil
}

func (r memTaskRepo) FindAll(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inProject map[int64]bool
	if f.ProjectID != nil {
		inProject = map[int64]bool{}
		for _, id := range r.projTask[*f.ProjectID] {
			inProject[id] = true
		}
	}
	var out []models.Task
	for _, t := range r.tasks {
		if t.DeletedAt != nil {
			continue
		}
		if inProject != nil && !inProject[t.ID] {
			continue
		}
		if f.ParentID != nil && (t.ParentID == nil || *t.ParentID != *f.ParentID) {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTaskRepo) Update(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return apperr.NotFound("task")
	}
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r memTaskRepo) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.DeletedAt != nil {
		return apperr.NotFound("task")
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}

func (r memTaskRepo) UpdateStatus(_ context.Context, id int64, to models.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return apperr.NotFound("task")
	}
	t.Status = to
	return nil
}

func (r memTaskRepo) UpdatePercentComplete(_ context.Context, id int64, pct float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return apperr.NotFound("task")
	}
	t.PercentComplete = pct
	return nil
}

func (r memTaskRepo) ListSubtasks(ctx context.Context, parentID int64) ([]models.Task, error) {
	return r.FindAll(ctx, models.TaskFilter{ParentID: &parentID})
}

func (r memTaskRepo) ParentChain(_ context.Context, id int64) ([]hierarchy.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return chainOf(id, func(cur int64) (*int64, bool) {
		t, ok := r.tasks[cur]
		if !ok {
			return nil, false
		}
		return t.ParentID, true
	}), nil
}

func (r memTaskRepo) AddDependency(_ context.Context, taskID, dependsOnID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deps[taskID] {
		if d == dependsOnID {
			return nil
		}
	}
	r.deps[taskID] = append(r.deps[taskID], dependsOnID)
	return nil
}

func (r memTaskRepo) RemoveDependency(_ context.Context, taskID, dependsOnID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deps := r.deps[taskID]
	for i, d := range deps {
		if d == dependsOnID {
			r.deps[taskID] = append(deps[:i], deps[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("task dependency")
}

func (r memTaskRepo) DependencyIDs(_ context.Context, taskID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.deps[taskID]...), nil
}

func (r memTaskRepo) ListDependencies(ctx context.Context, taskID int64) ([]models.Task, error) {
	ids, _ := r.DependencyIDs(ctx, taskID)
	var out []models.Task
	for _, id := range ids {
		t, err := r.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

// time entries

type memEntryRepo struct{ *memStore }

func (r memEntryRepo) Store(_ context.Context, e *models.TaskTimeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.id()
	c := *e
	r.entries[e.ID] = &c
	return nil
}

func (r memEntryRepo) Update(_ context.Context, e *models.TaskTimeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; !ok {
		return apperr.NotFound("time entry")
	}
	c := *e
	r.entries[e.ID] = &c
	return nil
}

func (r memEntryRepo) FindByID(_ context.Context, id int64) (*models.TaskTimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, apperr.NotFound("time entry")
	}
	c := *e
	return &c, nil
}

func (r memEntryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return apperr.NotFound("time entry")
	}
	delete(r.entries, id)
	return nil
}

func (r memEntryRepo) all(keep func(*models.TaskTimeEntry) bool) []models.TaskTimeEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TaskTimeEntry
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memEntryRepo) ListByTask(_ context.Context, taskID int64) ([]models.TaskTimeEntry, error) {
	return r.all(func(e *models.TaskTimeEntry) bool { return e.TaskID == taskID }), nil
}

func (r memEntryRepo) ListByTasks(_ context.Context, taskIDs []int64) (map[int64][]models.TaskTimeEntry, error) {
	want := map[int64]bool{}
	for _, id := range taskIDs {
		want[id] = true
	}
	out := map[int64][]models.TaskTimeEntry{}
	for _, e := range r.all(func(e *models.TaskTimeEntry) bool { return want[e.TaskID] }) {
		out[e.TaskID] = append(out[e.TaskID], e)
	}
	return out, nil
}

func (r memEntryRepo) ListForUserBetween(_ context.Context, userID int64, from, to time.Time) ([]models.TaskTimeEntry, error) {
	return r.all(func(e *models.TaskTimeEntry) bool {
		return e.UserID == userID && e.StartedAt != nil && !e.StartedAt.After(to) &&
			(e.EndedAt == nil || !e.EndedAt.Before(from))
	}), nil
}

// users

type memUserRepo struct{ *memStore }

func (r memUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.New(apperr.CodeConflict, "email already registered")
		}
	}
	u.ID = r.id()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	c := *u
	return &c, nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (r memUserRepo) NamesByIDs(_ context.Context, ids []int64) (map[int64]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64]string{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u.FullName
		}
	}
	return out, nil
}

func (r memUserRepo) LockForUpdate(ctx context.Context, id int64) error {
	_, err := r.GetByID(ctx, id)
	return err
}

// employees

type memEmployeeRepo struct{ *memStore }

func (r memEmployeeRepo) Store(_ context.Context, e *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.id()
	c := *e
	r.emps[e.ID] = &c
	return nil
}

func (r memEmployeeRepo) FindByID(_ context.Context, id int64) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emps[id]
	if !ok {
		return nil, apperr.NotFound("employee")
	}
	c := *e
	return &c, nil
}

func (r memEmployeeRepo) LockForUpdate(ctx context.Context, id int64) error {
	_, err := r.FindByID(ctx, id)
	return err
}

func (r memEmployeeRepo) StoreAllocation(_ context.Context, a *models.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	r.allocs = append(r.allocs, *a)
	return nil
}

func (r memEmployeeRepo) ListAllocations(_ context.Context, employeeID int64) ([]models.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Allocation
	for _, a := range r.allocs {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memEmployeeRepo) ListAllocationsBetween(ctx context.Context, employeeID int64, start, end time.Time) ([]models.Allocation, error) {
	all, _ := r.ListAllocations(ctx, employeeID)
	var out []models.Allocation
	for _, a := range all {
		if a.OverlapsWith(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

// projects

type memProjectRepo struct{ *memStore }

func (r memProjectRepo) Store(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	c := *p
	r.projects[p.ID] = &c
	return nil
}

func (r memProjectRepo) FindByID(_ context.Context, id int64) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, apperr.NotFound("project")
	}
	c := *p
	return &c, nil
}

func (r memProjectRepo) List(_ context.Context, includeTemplates bool) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for _, p := range r.projects {
		if p.IsTemplate && !includeTemplates {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProjectRepo) Update(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; !ok {
		return apperr.NotFound("project")
	}
	c := *p
	r.projects[p.ID] = &c
	return nil
}

func (r memProjectRepo) UpdateActualCost(_ context.Context, id int64, cost float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return apperr.NotFound("project")
	}
	p.ActualCost = cost
	return nil
}

func (r memProjectRepo) UpdatePercentComplete(_ context.Context, id int64, pct float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return apperr.NotFound("project")
	}
	p.PercentComplete = pct
	return nil
}

func (r memProjectRepo) AttachTask(_ context.Context, projectID, taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.projTask[projectID] {
		if id == taskID {
			return nil
		}
	}
	r.projTask[projectID] = append(r.projTask[projectID], taskID)
	return nil
}

func (r memProjectRepo) DetachTask(_ context.Context, projectID, taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.projTask[projectID]
	for i, id := range ids {
		if id == taskID {
			r.projTask[projectID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("project task")
}

func (r memProjectRepo) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	return memTaskRepo(r).FindAll(ctx, models.TaskFilter{ProjectID: &projectID})
}

func (r memProjectRepo) AddTeamMember(_ context.Context, m *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team := r.team[m.ProjectID]
	for i := range team {
		if team[i].UserID == m.UserID {
			team[i] = *m
			return nil
		}
	}
	r.team[m.ProjectID] = append(team, *m)
	return nil
}

func (r memProjectRepo) ListTeam(_ context.Context, projectID int64) ([]models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TeamMember(nil), r.team[projectID]...), nil
}

// accounts and companies

type memAccountRepo struct{ *memStore }

func (r memAccountRepo) Store(_ context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	c := *a
	r.accounts[a.ID] = &c
	return nil
}

func (r memAccountRepo) FindByID(_ context.Context, id int64) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account")
	}
	c := *a
	return &c, nil
}

func (r memAccountRepo) List(_ context.Context, limit, offset int) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Account
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memAccountRepo) ParentOf(_ context.Context, id int64) (*int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account")
	}
	return a.ParentID, nil
}

func (r memAccountRepo) SetParent(_ context.Context, id int64, parent *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperr.NotFound("account")
	}
	a.ParentID = parent
	return nil
}

func (r memAccountRepo) ParentChain(_ context.Context, id int64) ([]hierarchy.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return chainOf(id, func(cur int64) (*int64, bool) {
		a, ok := r.accounts[cur]
		if !ok {
			return nil, false
		}
		return a.ParentID, true
	}), nil
}

type memCompanyRepo struct{ *memStore }

func (r memCompanyRepo) Store(_ context.Context, c *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	cp := *c
	r.comps[c.ID] = &cp
	return nil
}

func (r memCompanyRepo) FindByID(_ context.Context, id int64) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comps[id]
	if !ok {
		return nil, apperr.NotFound("company")
	}
	cp := *c
	return &cp, nil
}

func (r memCompanyRepo) ParentOf(_ context.Context, id int64) (*int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comps[id]
	if !ok {
		return nil, apperr.NotFound("company")
	}
	return c.ParentCompanyID, nil
}

func (r memCompanyRepo) SetParent(_ context.Context, id int64, parent *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comps[id]
	if !ok {
		return apperr.NotFound("company")
	}
	c.ParentCompanyID = parent
	return nil
}

func (r memCompanyRepo) ParentChain(_ context.Context, id int64) ([]hierarchy.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return chainOf(id, func(cur int64) (*int64, bool) {
		c, ok := r.comps[cur]
		if !ok {
			return nil, false
		}
		return c.ParentCompanyID, true
	}), nil
}

// chainOf mirrors the recursive parent-chain query: id first, stopping at a
// root, a missing row or a row already on the path.
func chainOf(id int64, parentOf func(int64) (*int64, bool)) []hierarchy.Link {
	var out []hierarchy.Link
	seen := map[int64]bool{}
	cur := &id
	for cur != nil && !seen[*cur] {
		parent, ok := parentOf(*cur)
		if !ok {
			break
		}
		seen[*cur] = true
		out = append(out, hierarchy.Link{ID: *cur, Parent: parent})
		cur = parent
	}
	return out
}
