package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestFromPair(t *testing.T) {
	r := FromPair(strconv.Atoi("42"))
	if v, _ := r.Unwrap(); v != 42 {
		t.Fatal("FromPair failed")
	}
	e := FromPair(strconv.Atoi("nope"))
	if e.IsOk() {
		t.Fatal("FromPair should fail")
	}
}

func TestThen(t *testing.T) {
	double := Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v * 2) })
	addOne := Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v + 1) })

	composed := Then(double, addOne)
	v, err := composed(context.Background(), 5).Unwrap()
	if err != nil || v != 11 {
		t.Fatal("Then failed")
	}
}

func TestThenShortCircuits(t *testing.T) {
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("fail")) })
	called := false
	second := Stage[int, int](func(_ context.Context, v int) Result[int] {
		called = true
		return Ok(v)
	})

	r := Then(fail, second)(context.Background(), 1)
	if r.IsOk() || called {
		t.Fatal("Then should short-circuit")
	}
}

func TestMapStage(t *testing.T) {
	s := MapStage(func(v int) string { return strconv.Itoa(v) })
	v, err := s(context.Background(), 42).Unwrap()
	if err != nil || v != "42" {
		t.Fatal("MapStage failed")
	}
}

func TestTraced(t *testing.T) {
	s := Traced("test-stage", Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v + 1) }))
	v, err := s(context.Background(), 1).Unwrap()
	if err != nil || v != 2 {
		t.Fatal("Traced failed")
	}

	e := Traced("err-stage", Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("x")) }))
	if e(context.Background(), 1).IsOk() {
		t.Fatal("Traced error should propagate")
	}
}
