package notice

import "testing"

func TestBoardReplacesByID(t *testing.T) {
	b := NewBoard()
	b.Create(Notice{ID: "update", Status: StatusInfo, Text: "Updating settings…"})
	b.Create(Notice{ID: "other", Status: StatusInfo, Text: "hello"})
	b.Create(Notice{ID: "update", Status: StatusSuccess, Text: "Updated settings."})

	list := b.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(list))
	}
	if list[0].ID != "other" || list[1].ID != "update" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[1].Status != StatusSuccess {
		t.Fatalf("replacement not applied: %+v", list[1])
	}
	if list[1].CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be stamped")
	}
}

func TestBoardRemove(t *testing.T) {
	b := NewBoard()
	b.Create(Notice{ID: "update", Text: "x"})
	b.Remove("update")
	b.Remove("missing")
	if _, ok := b.Get("update"); ok {
		t.Fatal("notice should be removed")
	}
}

func TestBoardSubscribe(t *testing.T) {
	b := NewBoard()
	ch := make(chan Notice, 1)
	b.Subscribe(ch)

	b.Create(Notice{ID: "a", Text: "first"})
	b.Create(Notice{ID: "a", Text: "second"}) // channel full, dropped

	got := <-ch
	if got.Text != "first" {
		t.Fatalf("got %q, want first", got.Text)
	}
	if n, _ := b.Get("a"); n.Text != "second" {
		t.Fatalf("board should hold latest, got %q", n.Text)
	}
}

func TestFuncSink(t *testing.T) {
	var got []string
	var s Sink = Func(func(n Notice) { got = append(got, n.Text) })
	s.Create(Notice{Text: "x"})
	s.Remove("x")
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("got %v", got)
	}
}
