package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/access"
	"github.com/reelops/reelops-api/internal/domain/member"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProjectsRepo struct {
	listFn   func(ctx context.Context) ([]project.Project, error)
	getFn    func(ctx context.Context, id int64) (project.Project, error)
	createFn func(ctx context.Context, req project.CreateRequest, creatorID int64) (project.Project, error)
	updateFn func(ctx context.Context, id int64, req project.UpdateRequest) (project.Project, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeProjectsRepo) List(ctx context.Context) ([]project.Project, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []project.Project{}, nil
}

func (f *fakeProjectsRepo) GetByID(ctx context.Context, id int64) (project.Project, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return project.Project{}, nil
}

func (f *fakeProjectsRepo) Create(ctx context.Context, req project.CreateRequest, creatorID int64) (project.Project, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, creatorID)
	}
	return project.Project{}, nil
}

func (f *fakeProjectsRepo) Update(ctx context.Context, id int64, req project.UpdateRequest) (project.Project, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return project.Project{}, nil
}

func (f *fakeProjectsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeMembersRepo struct {
	addFn    func(ctx context.Context, projectID int64, req member.AddRequest) (member.Member, error)
	listFn   func(ctx context.Context, projectID int64) ([]member.Member, error)
	updateFn func(ctx context.Context, projectID, id int64, req member.UpdateRequest) (member.Member, error)
	removeFn func(ctx context.Context, projectID, id int64) error
}

func (f *fakeMembersRepo) Add(ctx context.Context, projectID int64, req member.AddRequest) (member.Member, error) {
	if f.addFn != nil {
		return f.addFn(ctx, projectID, req)
	}
	return member.Member{}, nil
}

func (f *fakeMembersRepo) ListByProject(ctx context.Context, projectID int64) ([]member.Member, error) {
	if f.listFn != nil {
		return f.listFn(ctx, projectID)
	}
	return []member.Member{}, nil
}

func (f *fakeMembersRepo) Update(ctx context.Context, projectID, id int64, req member.UpdateRequest) (member.Member, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, projectID, id, req)
	}
	return member.Member{}, nil
}

func (f *fakeMembersRepo) Remove(ctx context.Context, projectID, id int64) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, projectID, id)
	}
	return nil
}

type fakeUsersRepo struct {
	createFn     func(ctx context.Context, nu user.NewUser) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id int64) (user.User, error)
	searchFn     func(ctx context.Context, q string, limit int) ([]user.Summary, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, nu)
	}
	return user.User{ID: 1, Name: nu.Name, Email: nu.Email, Role: nu.Role}, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) Search(ctx context.Context, q string, limit int) ([]user.Summary, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, q, limit)
	}
	return []user.Summary{}, nil
}

type fakeGate struct {
	calls int
	fn    func(id access.Identity, projectID int64, action access.Action) error
}

func (g *fakeGate) Authorize(_ context.Context, id access.Identity, projectID int64, action access.Action) error {
	g.calls++
	if g.fn != nil {
		return g.fn(id, projectID, action)
	}
	return nil
}

type fakeIssuer struct {
	token string
	err   error
}

func (f fakeIssuer) Issue(userID int64, role user.Role) (string, error) {
	return f.token, f.err
}

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveAuthAttempt(op, result string) {
	o.results = append(o.results, op+":"+result)
}

// small helper which mounts one handler, optionally behind a fixed identity

func setupRouter(method, path string, id *access.Identity, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(ctx *gin.Context) {
		if id != nil {
			ctx.Set(middlewares.CtxIdentity, *id)
		}
		ctx.Next()
	}, h)

	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, target, buf)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, w.Body.String())
	}
	return env
}

var (
	adminID    = access.Identity{UserID: 1, Role: user.RoleAdmin}
	producerID = access.Identity{UserID: 2, Role: user.RoleProducer}
)

func ptr[T any](v T) *T { return &v }

