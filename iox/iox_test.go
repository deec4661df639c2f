package iox

import (
	"errors"
	"testing"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestDiscardClose(t *testing.T) {
	c := &closer{err: errors.New("ignored")}
	DiscardClose(c)
	if !c.closed {
		t.Error("expected Close to be called")
	}
}

func TestCloseFunc(t *testing.T) {
	c := &closer{}
	fn := CloseFunc(c)
	if c.closed {
		t.Fatal("CloseFunc must not close eagerly")
	}
	fn()
	if !c.closed {
		t.Error("expected Close to be called")
	}
}

func TestCloseInto(t *testing.T) {
	closeErr := errors.New("close failed")

	t.Run("records close error", func(t *testing.T) {
		var err error
		CloseInto(&err, &closer{err: closeErr})
		if !errors.Is(err, closeErr) {
			t.Errorf("err = %v, want close error", err)
		}
	})

	t.Run("keeps earlier error", func(t *testing.T) {
		first := errors.New("write failed")
		err := first
		CloseInto(&err, &closer{err: closeErr})
		if !errors.Is(err, first) {
			t.Errorf("err = %v, want first error", err)
		}
	})

	t.Run("nil on clean close", func(t *testing.T) {
		var err error
		CloseInto(&err, &closer{})
		if err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	})
}

func TestDiscardErr(t *testing.T) {
	called := false
	DiscardErr(func() error {
		called = true
		return errors.New("ignored")
	})
	if !called {
		t.Error("expected fn to be called")
	}
}
