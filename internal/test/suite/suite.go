// Package suite runs the Test* methods of a value as subtests, with
// shared setup and teardown around them.
package suite

import (
	"reflect"
	"runtime/debug"
	"strings"
	"testing"
)

// TestSuite is set up once before its tests run and torn down after.
type TestSuite interface {
	Setup(t *testing.T)
	Teardown()
}

// EachTest is implemented by suites that need a fresh fixture per test.
type EachTest interface {
	BeforeEach(t *testing.T)
	AfterEach(t *testing.T)
}

// TestSkipper lets a suite skip tests by method name.
type TestSkipper interface {
	ShouldSkipTest(string) bool
}

var testingT = reflect.TypeOf(&testing.T{})

// Run runs every method of ts named Test* that takes a *testing.T and
// returns nothing, in method name order.
func Run(t *testing.T, ts TestSuite) {
	defer failOnPanic(t)

	ts.Setup(t)
	defer ts.Teardown()

	v := reflect.ValueOf(ts)
	typ := v.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		if !isTestMethod(method) {
			continue
		}
		fn := v.Method(i)
		t.Run(method.Name, func(t *testing.T) {
			defer failOnPanic(t)
			if skipper, ok := ts.(TestSkipper); ok && skipper.ShouldSkipTest(method.Name) {
				t.Skipf("skipped by %T", ts)
			}
			if each, ok := ts.(EachTest); ok {
				each.BeforeEach(t)
				defer each.AfterEach(t)
			}
			fn.Call([]reflect.Value{reflect.ValueOf(t)})
		})
	}
}

func failOnPanic(t *testing.T) {
	if r := recover(); r != nil {
		t.Fatalf("%v\n%s", r, debug.Stack())
	}
}

// isTestMethod reports whether method looks like func(*testing.T) named Test*.
// The receiver counts as the first input.
func isTestMethod(method reflect.Method) bool {
	return strings.HasPrefix(method.Name, "Test") &&
		method.Type.NumIn() == 2 &&
		method.Type.In(1) == testingT &&
		method.Type.NumOut() == 0
}
