package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/auth"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/cache"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
)

// In-memory repository fakes shared by the service tests.

type memUserRepo struct {
	mu        sync.Mutex
	byID      map[int64]*domain.User
	nextID    int64
	createErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int64]*domain.User), nextID: 1}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user", fmt.Sprintf("%d", id))
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

type memTokenRepo struct {
	mu         sync.Mutex
	byUser     map[int64]*domain.RefreshToken
	nextID     int64
	replaceErr error
	deleteErr  error
}

func newMemTokenRepo() *memTokenRepo {
	// Record ids start far from user ids so a test that confuses the two
	// key spaces fails loudly.
	return &memTokenRepo{byUser: make(map[int64]*domain.RefreshToken), nextID: 1000}
}

func (r *memTokenRepo) ReplaceForUser(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	if existing, ok := r.byUser[token.UserID]; ok {
		token.ID = existing.ID
	} else {
		token.ID = r.nextID
		r.nextID++
	}
	cp := *token
	r.byUser[token.UserID] = &cp
	return nil
}

func (r *memTokenRepo) GetByUserID(_ context.Context, userID int64) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.byUser[userID]
	if !ok {
		return nil, apperrors.NotFound("refresh token", fmt.Sprintf("%d", userID))
	}
	cp := *tok
	return &cp, nil
}

func (r *memTokenRepo) DeleteByUserID(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	if _, ok := r.byUser[userID]; !ok {
		return false, nil
	}
	delete(r.byUser, userID)
	return true, nil
}

func (r *memTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

type memTaskRepo struct {
	mu     sync.Mutex
	tasks  map[int64]*domain.Task
	nextID int64
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[int64]*domain.Task), nextID: 1}
}

func (r *memTaskRepo) ListByUserID(_ context.Context, userID int64) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Task, 0)
	for _, t := range r.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return apperrors.NotFound("task", fmt.Sprintf("%d", task.ID))
	}
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, taskID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[taskID]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(r.tasks, taskID)
	return true, nil
}

type memTokenCache struct {
	mu     sync.Mutex
	byUser map[int64]*domain.RefreshToken
	getErr error
	setErr error
	delErr error
	gets   int
	hits   int
}

func newMemTokenCache() *memTokenCache {
	return &memTokenCache{byUser: make(map[int64]*domain.RefreshToken)}
}

func (c *memTokenCache) Get(_ context.Context, userID int64) (*domain.RefreshToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	tok, ok := c.byUser[userID]
	if !ok {
		return nil, cache.ErrMiss
	}
	c.hits++
	cp := *tok
	return &cp, nil
}

func (c *memTokenCache) Set(_ context.Context, token *domain.RefreshToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	cp := *token
	c.byUser[token.UserID] = &cp
	return nil
}

func (c *memTokenCache) Delete(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.byUser, userID)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	signups   []int64
	logins    []int64
	refreshes []int64
	logouts   []int64
}

func (p *recordingPublisher) UserSignedUp(_ context.Context, userID int64, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signups = append(p.signups, userID)
}

func (p *recordingPublisher) SessionLoggedIn(_ context.Context, userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, userID)
}

func (p *recordingPublisher) SessionRefreshed(_ context.Context, userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes = append(p.refreshes, userID)
}

func (p *recordingPublisher) SessionLoggedOut(_ context.Context, userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, userID)
}

// testEnv wires the services against in-memory fakes.
type testEnv struct {
	users     *memUserRepo
	tokens    *memTokenRepo
	tasks     *memTaskRepo
	cache     *memTokenCache
	publisher *recordingPublisher
	hasher    *auth.Hasher
	token     *TokenService
	session   *SessionService
	task      *TaskService
}

type envOption func(*testEnv)

func withCache() envOption {
	return func(e *testEnv) { e.cache = newMemTokenCache() }
}

func newTestEnv(opts ...envOption) *testEnv {
	env := &testEnv{
		users:     newMemUserRepo(),
		tokens:    newMemTokenRepo(),
		tasks:     newMemTaskRepo(),
		publisher: &recordingPublisher{},
		hasher:    auth.NewHasher(1000),
	}
	for _, opt := range opts {
		opt(env)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager(
		[]byte("0123456789abcdef0123456789abcdef"),
		"authapp", "authapp-clients", 15*time.Minute)

	var tokenCache RefreshTokenCache
	if env.cache != nil {
		tokenCache = env.cache
	}

	env.token = NewTokenService(env.users, env.tokens, tokenCache, env.hasher, jwtManager, 7*24*time.Hour, log)
	env.session = NewSessionService(env.users, env.token, env.hasher, env.publisher, log)
	env.task = NewTaskService(env.tasks, log)
	return env
}

// addUser registers a user directly in the fake store and returns its id.
func (e *testEnv) addUser(email, password string) int64 {
	salt, err := e.hasher.GenerateSalt()
	if err != nil {
		panic(err)
	}
	hash, err := e.hasher.Hash(password, salt)
	if err != nil {
		panic(err)
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user.ID
}
