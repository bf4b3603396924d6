package harness_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/nattos/shadergraph/harness"
	"github.com/nattos/shadergraph/ir"
)

// fakeContext is a minimal harness.Context the mock backend's Execute
// call returns; it is not itself mocked since these tests only assert
// how the backend is driven, not how a context is queried.
type fakeContext struct {
	vars map[string]harness.Value
}

func (f *fakeContext) Resources() map[string]harness.Resource       { return nil }
func (f *fakeContext) GetResource(string) (harness.Resource, bool)  { return harness.Resource{}, false }
func (f *fakeContext) GetVar(id string) (harness.Value, bool) {
	v, ok := f.vars[id]
	return v, ok
}

func TestReadbackDrivesExecuteThenGetVar(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doc := &ir.Document{EntryPoint: "main"}
	mock := harness.NewMockTestBackend(ctrl)
	want := &fakeContext{vars: map[string]harness.Value{"res": harness.ScalarValue(3.14)}}
	mock.EXPECT().Execute(doc, "main", harness.Inputs(nil)).Return(harness.Context(want), nil)

	got, err := harness.Readback(mock, doc, "main", nil, "res")
	if err != nil {
		t.Fatalf("Readback: %v", err)
	}
	if got.Float() != 3.14 {
		t.Fatalf("Readback = %v, want 3.14", got.Float())
	}
}

func TestReadbackPropagatesExecuteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doc := &ir.Document{EntryPoint: "main"}
	mock := harness.NewMockTestBackend(ctrl)
	mock.EXPECT().Execute(doc, "main", harness.Inputs(nil)).Return(nil, errors.New("dispatch failed"))

	if _, err := harness.Readback(mock, doc, "main", nil, "res"); err == nil {
		t.Fatal("expected Readback to propagate the backend's error")
	}
}
