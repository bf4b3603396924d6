package harness

import (
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/nattos/shadergraph/ir"
)

//go:generate mockgen -write_package_comment=false -package=harness -destination=mock_backend.go -source=contract.go TestBackend

// MockTestBackend is a gomock double standing in for a real backend
// (interpreter or generator) in tests that only want to assert the
// harness drives TestBackend correctly — call order, argument values,
// error propagation — without depending on a working backend to do so.
// Hand-written in the shape mockgen produces for a small interface,
// following zeonica's pattern of pairing a //go:generate mockgen
// directive with a checked-in mock for an interface its own tests
// double out (api/api_suite_test.go, core/core_suite_test.go).
type MockTestBackend struct {
	ctrl     *gomock.Controller
	recorder *MockTestBackendMockRecorder
}

// MockTestBackendMockRecorder wraps the mock for EXPECT()-style call
// setup.
type MockTestBackendMockRecorder struct {
	mock *MockTestBackend
}

// NewMockTestBackend creates a new mock instance bound to ctrl.
func NewMockTestBackend(ctrl *gomock.Controller) *MockTestBackend {
	m := &MockTestBackend{ctrl: ctrl}
	m.recorder = &MockTestBackendMockRecorder{mock: m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected
// use.
func (m *MockTestBackend) EXPECT() *MockTestBackendMockRecorder {
	return m.recorder
}

// CreateContext mocks base method.
func (m *MockTestBackend) CreateContext(doc *ir.Document) (Context, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateContext", doc)
	ctx, _ := ret[0].(Context)
	err, _ := ret[1].(error)
	return ctx, err
}

// CreateContext indicates an expected call of CreateContext.
func (mr *MockTestBackendMockRecorder) CreateContext(doc interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateContext", reflect.TypeOf((*MockTestBackend)(nil).CreateContext), doc)
}

// Run mocks base method.
func (m *MockTestBackend) Run(ctx Context, entryPoint string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Run", ctx, entryPoint)
	err, _ := ret[0].(error)
	return err
}

// Run indicates an expected call of Run.
func (mr *MockTestBackendMockRecorder) Run(ctx, entryPoint interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Run", reflect.TypeOf((*MockTestBackend)(nil).Run), ctx, entryPoint)
}

// Execute mocks base method.
func (m *MockTestBackend) Execute(doc *ir.Document, entryPoint string, inputs Inputs) (Context, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Execute", doc, entryPoint, inputs)
	ctx, _ := ret[0].(Context)
	err, _ := ret[1].(error)
	return ctx, err
}

// Execute indicates an expected call of Execute.
func (mr *MockTestBackendMockRecorder) Execute(doc, entryPoint, inputs interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Execute", reflect.TypeOf((*MockTestBackend)(nil).Execute), doc, entryPoint, inputs)
}

var _ TestBackend = (*MockTestBackend)(nil)
