package services

import (
	"context"
	"sync"
	"time"

	"projectcrm/internal/models"
	"projectcrm/internal/notify"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return monday.AddDate(0, 0, n) }

func ptr[T any](v T) *T { return &v }

func clock(h, m int) *time.Time {
	t := time.Date(2025, 3, 3, h, m, 0, 0, time.UTC)
	return &t
}

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingNotifier) Notify(_ context.Context, subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

var _ notify.Notifier = (*recordingNotifier)(nil)

type fixture struct {
	store    *memStore
	tx       *memTx
	tasks    TaskService
	entries  TimeEntryService
	allocs   AllocationService
	projects ProjectService
	accounts AccountService
	comps    CompanyService
	notifier *recordingNotifier
}

func newFixture() *fixture {
	st := newMemStore()
	tx := &memTx{}
	n := &recordingNotifier{}
	taskRepo := memTaskRepo{st}
	entryRepo := memEntryRepo{st}
	userRepo := memUserRepo{st}
	projectRepo := memProjectRepo{st}
	return &fixture{
		store:    st,
		tx:       tx,
		tasks:    NewTaskService(taskRepo, entryRepo, tx),
		entries:  NewTimeEntryService(entryRepo, taskRepo, userRepo, tx),
		allocs:   NewAllocationService(memEmployeeRepo{st}, taskRepo, projectRepo, tx, n, nil),
		projects: NewProjectService(projectRepo, taskRepo, entryRepo, userRepo, tx, n, nil),
		accounts: NewAccountService(memAccountRepo{st}, tx),
		comps:    NewCompanyService(memCompanyRepo{st}, tx),
		notifier: n,
	}
}

func (f *fixture) user(name string) *models.User {
	u := &models.User{FullName: name, Email: name + "@example.com", RoleID: 10}
	_ = memUserRepo{f.store}.Create(context.Background(), u)
	return u
}

func (f *fixture) task(title string, mutate ...func(*models.Task)) *models.Task {
	t := &models.Task{Title: title, CreatorID: 1}
	for _, m := range mutate {
		m(t)
	}
	out, err := f.tasks.Create(context.Background(), t)
	if err != nil {
		panic(err)
	}
	return out
}
