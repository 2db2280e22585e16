package logs

import (
	"context"
	"errors"
	"testing"

	"skiff/internal/api"
)

func TestCursorStates(t *testing.T) {
	var c Cursor[string]
	if _, ok := c.Ref(); ok {
		t.Errorf("initial cursor has a token")
	}
	if c.Done() {
		t.Errorf("initial cursor is done")
	}

	tok := "c1"
	c.Advance(&tok)
	if got, ok := c.Ref(); !ok || got != "c1" {
		t.Errorf("Ref() = %q, %v", got, ok)
	}

	c.Advance(nil)
	if !c.Done() {
		t.Errorf("cursor not done after nil advance")
	}
	if _, ok := c.Ref(); ok {
		t.Errorf("done cursor has a token")
	}
}

func TestLoaderThreadsCursor(t *testing.T) {
	cursor1 := "c1"
	pages := []*api.LogPage{
		{Data: []api.Log{{Seq: 0, Message: "a"}, {Seq: 1, Message: "b"}}, Cursor: &cursor1},
		{Data: []api.Log{{Seq: 2, Message: "c"}}, Cursor: nil},
	}
	var calls int
	var seenBefore []*string
	l := NewLoader(func(ctx context.Context, first int, before *string) (*api.LogPage, error) {
		seenBefore = append(seenBefore, before)
		page := pages[calls]
		calls++
		return page, nil
	})

	first, err := l.Load(context.Background(), 100)
	if err != nil || len(first) != 2 {
		t.Fatalf("first load = %v, %v", first, err)
	}
	second, err := l.Load(context.Background(), 100)
	if err != nil || len(second) != 1 || second[0].Message != "c" {
		t.Fatalf("second load = %v, %v", second, err)
	}
	if !l.Done() {
		t.Errorf("loader not done after final page")
	}

	// Exhausted stream loads nothing and stays off the network.
	third, err := l.Load(context.Background(), 100)
	if err != nil || third != nil {
		t.Errorf("third load = %v, %v", third, err)
	}
	if calls != 2 {
		t.Errorf("fetch calls = %d, want 2", calls)
	}

	if seenBefore[0] != nil {
		t.Errorf("first page sent a cursor: %v", *seenBefore[0])
	}
	if seenBefore[1] == nil || *seenBefore[1] != "c1" {
		t.Errorf("second page cursor = %v, want c1", seenBefore[1])
	}
}

func TestLoaderPropagatesErrors(t *testing.T) {
	want := errors.New("backend down")
	l := NewLoader(func(ctx context.Context, first int, before *string) (*api.LogPage, error) {
		return nil, want
	})
	if _, err := l.Load(context.Background(), 10); !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
	if l.Done() {
		t.Errorf("loader marked done after an error")
	}
}
