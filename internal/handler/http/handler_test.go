package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/auth"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/service"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/health"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/middleware"
)

// In-memory fakes backing the full HTTP stack.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", fmt.Sprintf("%d", id))
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	byUser map[int64]*domain.RefreshToken
	nextID int64
}

func (r *fakeTokenRepo) ReplaceForUser(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *fakeTokenRepo) GetByUserID(_ context.Context, userID int64) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.byUser[userID]
	if !ok {
		return nil, apperrors.NotFound("refresh token", fmt.Sprintf("%d", userID))
	}
	cp := *tok
	return &cp, nil
}

func (r *fakeTokenRepo) DeleteByUserID(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID]; !ok {
		return false, nil
	}
	delete(r.byUser, userID)
	return true, nil
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	tasks  map[int64]*domain.Task
	nextID int64
}

func (r *fakeTaskRepo) ListByUserID(_ context.Context, userID int64) ([]domain.Task, error) {
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

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
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

func (r *fakeTaskRepo) Delete(_ context.Context, taskID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[taskID]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(r.tasks, taskID)
	return true, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := auth.NewHasher(1000)
	jwtManager := auth.NewJWTManager(
		[]byte("0123456789abcdef0123456789abcdef"),
		"authapp", "authapp-clients", 15*time.Minute)

	users := &fakeUserRepo{users: make(map[int64]*domain.User), nextID: 1}
	tokens := &fakeTokenRepo{byUser: make(map[int64]*domain.RefreshToken), nextID: 1000}
	tasks := &fakeTaskRepo{tasks: make(map[int64]*domain.Task), nextID: 1}

	tokenService := service.NewTokenService(users, tokens, nil, hasher, jwtManager, 7*24*time.Hour, log)
	sessionService := service.NewSessionService(users, tokenService, hasher, nil, log)
	taskService := service.NewTaskService(tasks, log)

	router := NewRouter(RouterConfig{
		ServiceName: "auth-service-test",
		Logger:      log,
		Auth:        NewAuthHandler(sessionService),
		Tasks:       NewTaskHandler(taskService),
		Health:      health.NewHandler(),
		ValidateToken: func(token string) (*middleware.Claims, error) {
			userID, claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			return &middleware.Claims{UserID: userID, Email: claims.Email}, nil
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins: []string{"http://localhost:4200"},
		},
		RequestTimeout: 5 * time.Second,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (int, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}

	return resp.StatusCode, parsed
}
