package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/oauth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
)

// ---- users ----

type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}}
}

func (r *fakeUserRepo) clone(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, e := range r.byID {
		if e.Email == u.Email {
			return errors.New("duplicate email")
		}
	}
	r.byID[u.ID] = r.clone(u)
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.clone(r.byID[id]), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return r.clone(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return errors.New("no such user")
	}
	r.byID[u.ID] = r.clone(u)
	return nil
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id string, token *string) error {
	u, ok := r.byID[id]
	if !ok {
		return errors.New("no such user")
	}
	if token == nil {
		u.RefreshToken = nil
		return nil
	}
	cp := *token
	u.RefreshToken = &cp
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	var out []domain.User
	for _, u := range r.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

// ---- tasks ----

// fakeTaskRepo 内存实现，InTx 用快照模拟回滚；
// failUpdateID 指定后对该行的 Update 必定失败，用来打桩第三阶段的事务失败
type fakeTaskRepo struct {
	tasks        map[string]*domain.Task
	order        []string
	failUpdateID string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*domain.Task{}}
}

func (r *fakeTaskRepo) clone(t *domain.Task) *domain.Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.SubTasks = nil
	if t.ParentTaskID != nil {
		p := *t.ParentTaskID
		cp.ParentTaskID = &p
	}
	return &cp
}

func (r *fakeTaskRepo) snapshot() (map[string]*domain.Task, []string) {
	m := make(map[string]*domain.Task, len(r.tasks))
	for k, v := range r.tasks {
		m[k] = r.clone(v)
	}
	return m, append([]string(nil), r.order...)
}

func (r *fakeTaskRepo) InTx(_ context.Context, fn func(tx domain.TaskRepository) error) error {
	m, ord := r.snapshot()
	if err := fn(r); err != nil {
		r.tasks, r.order = m, ord
		return err
	}
	return nil
}

func (r *fakeTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.tasks[t.ID] = r.clone(t)
	r.order = append(r.order, t.ID)
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	return r.clone(r.tasks[id]), nil
}

func (r *fakeTaskRepo) FindTopLevelByOwner(_ context.Context, ownerID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, id := range r.order {
		t := r.tasks[id]
		if t == nil || t.UserID != ownerID || t.ParentTaskID != nil {
			continue
		}
		cp := *r.clone(t)
		for _, sid := range r.order {
			s := r.tasks[sid]
			if s != nil && s.ParentTaskID != nil && *s.ParentTaskID == t.ID {
				cp.SubTasks = append(cp.SubTasks, *r.clone(s))
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *fakeTaskRepo) FindSubTasks(_ context.Context, parentID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, id := range r.order {
		t := r.tasks[id]
		if t != nil && t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			out = append(out, *r.clone(t))
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, t *domain.Task) error {
	if t.ID == r.failUpdateID {
		return errors.New("forced update failure")
	}
	if _, ok := r.tasks[t.ID]; !ok {
		return errors.New("no such task")
	}
	r.tasks[t.ID] = r.clone(t)
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) DeleteByParent(_ context.Context, parentID string) error {
	for id, t := range r.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			delete(r.tasks, id)
		}
	}
	return nil
}

func (r *fakeTaskRepo) ListAll(_ context.Context, offset, limit int) ([]domain.Task, int64, error) {
	var out []domain.Task
	for _, id := range r.order {
		if t := r.tasks[id]; t != nil {
			out = append(out, *r.clone(t))
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeTaskRepo) count() int { return len(r.tasks) }

// ---- oauth verifier ----

type fakeVerifier struct {
	identity *oauth.Identity
	err      error
}

func (v *fakeVerifier) Verify(context.Context, string) (*oauth.Identity, error) {
	return v.identity, v.err
}

// ---- image store ----

type fakeImageStore struct {
	lastFilename string
	lastContent  []byte
	url          string
	err          error
	removed      []string
}

func (s *fakeImageStore) Upload(_ context.Context, filename, _ string, rd io.Reader, _ int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(rd)
	s.lastFilename = filename
	s.lastContent = buf.Bytes()
	return s.url, nil
}

func (s *fakeImageStore) Remove(_ context.Context, url string) error {
	s.removed = append(s.removed, url)
	return nil
}
