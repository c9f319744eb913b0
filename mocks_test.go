package usermanagement_test

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"sync"
	"time"

	usermanagement "github.com/goliatone/go-usermanagement"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

func newTestConfig() usermanagement.Config {
	return usermanagement.Config{
		AuthFailedMessage: usermanagement.FailureMessageConfig{
			Title: "Login failed",
			Body:  "The entered username or password was wrong",
		},
		Email: usermanagement.EmailConfig{
			SubjectActivation: "Please confirm your account",
			SenderAddress:     "noreply@example.com",
			ReplyToAddress:    "support@example.com",
		},
		ActivationTokenTTL: 24 * time.Hour,
	}
}

// memFlows is an in-memory Flows store. The embedded repository interface is
// left nil, only the methods the handlers touch are implemented.
type memFlows struct {
	repository.Repository[*usermanagement.RegistrationFlow]

	mu      sync.Mutex
	records map[uuid.UUID]*usermanagement.RegistrationFlow
}

func newMemFlows() *memFlows {
	return &memFlows{
		records: map[uuid.UUID]*usermanagement.RegistrationFlow{},
	}
}

func (s *memFlows) CreateTx(ctx context.Context, tx bun.IDB, record *usermanagement.RegistrationFlow, criteria ...repository.InsertCriteria) (*usermanagement.RegistrationFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.records[record.ID] = record
	return record, nil
}

func (s *memFlows) FindByEmail(ctx context.Context, email string) ([]*usermanagement.RegistrationFlow, error) {
	return s.FindByEmailTx(ctx, nil, email)
}

func (s *memFlows) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) ([]*usermanagement.RegistrationFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*usermanagement.RegistrationFlow{}
	for _, record := range s.records {
		if record.Email == email {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memFlows) FindOneByToken(ctx context.Context, token string) (*usermanagement.RegistrationFlow, error) {
	return s.FindOneByTokenTx(ctx, nil, token)
}

func (s *memFlows) FindOneByTokenTx(ctx context.Context, tx bun.IDB, token string) (*usermanagement.RegistrationFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.ActivationToken == token {
			return record, nil
		}
	}
	return nil, usermanagement.ErrFlowNotFound
}

func (s *memFlows) Remove(ctx context.Context, flow *usermanagement.RegistrationFlow) error {
	return s.RemoveTx(ctx, nil, flow)
}

func (s *memFlows) RemoveTx(ctx context.Context, tx bun.IDB, flow *usermanagement.RegistrationFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, flow.ID)
	return nil
}

func (s *memFlows) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// memRepo implements usermanagement.RepositoryManager without a database.
type memRepo struct {
	flows *memFlows
}

func newMemRepo() *memRepo {
	return &memRepo{flows: newMemFlows()}
}

func (m *memRepo) Flows() usermanagement.Flows { return m.flows }

func (m *memRepo) Validate() error { return nil }

func (m *memRepo) MustValidate() {}

func (m *memRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

// MockMailer implements usermanagement.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendTemplateEmail(ctx context.Context, templateName, subject string, recipients []string, templateData map[string]any, senderAddress string, cc, bcc []string, attachments []usermanagement.Attachment, replyToAddress string) error {
	args := m.Called(ctx, templateName, subject, recipients, templateData, senderAddress, cc, bcc, attachments, replyToAddress)
	return args.Error(0)
}

// MockUserCreator implements usermanagement.UserCreationService
type MockUserCreator struct {
	mock.Mock
}

func (m *MockUserCreator) CreateUserAndAccount(ctx context.Context, flow *usermanagement.RegistrationFlow) (usermanagement.Identity, error) {
	args := m.Called(ctx, flow)
	if identity, ok := args.Get(0).(usermanagement.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLinkResolver implements usermanagement.LinkResolver
type MockLinkResolver struct {
	mock.Mock
}

func (m *MockLinkResolver) BuildAbsoluteURI(routeName string, params map[string]any, controllerGroup string) (string, error) {
	args := m.Called(routeName, params, controllerGroup)
	return args.String(0), args.Error(1)
}

func (m *MockLinkResolver) ResolveContentURI(ctx context.Context, contentHint string) (string, error) {
	args := m.Called(ctx, contentHint)
	return args.String(0), args.Error(1)
}

// MockAuthenticator implements usermanagement.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) error {
	args := m.Called(ctx, identifier, password)
	return args.Error(0)
}

func (m *MockAuthenticator) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// testIdentity implements usermanagement.Identity
type testIdentity struct {
	id       string
	username string
	email    string
}

func (t testIdentity) ID() string       { return t.id }
func (t testIdentity) Username() string { return t.username }
func (t testIdentity) Email() string    { return t.email }

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	return args.Get(0).([]string)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	return args.Get(0).(map[string]any)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	header, _ := args.Get(0).(*multipart.FileHeader)
	return header, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}
