package domain

import "testing"

func TestParseStatusSynonyms(t *testing.T) {
	cases := map[string]Status{
		"todo":        StatusTodo,
		"Doing":       StatusDoing,
		"in-progress": StatusDoing,
		"WIP":         StatusDoing,
		"review":      StatusReview,
		"Reviewing":   StatusReview,
		"blocked":     StatusBlocked,
		"done":        StatusDone,
		"completed":   StatusDone,
		"Closed":      StatusDone,
	}
	for input, want := range cases {
		got, err := ParseStatus(input)
		if err != nil {
			t.Fatalf("ParseStatus(%q): unexpected error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseStatus(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseStatus("nonsense"); err == nil {
		t.Fatalf("expected an error for an unknown status string")
	}
}

func TestStatusSortOrder(t *testing.T) {
	order := []Status{StatusDoing, StatusReview, StatusBlocked, StatusTodo, StatusDone}
	for i := 0; i < len(order)-1; i++ {
		if !order[i].Less(order[i+1]) {
			t.Fatalf("expected %v < %v", order[i], order[i+1])
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusDoing.IsActive() || !StatusReview.IsActive() {
		t.Fatalf("expected Doing and Review to be active")
	}
	if StatusTodo.IsActive() || StatusDone.IsActive() || StatusBlocked.IsActive() {
		t.Fatalf("expected only Doing/Review to be active")
	}
	if !StatusDone.IsCompleted() {
		t.Fatalf("expected Done to be completed")
	}
	if !StatusTodo.CanStart() || !StatusBlocked.CanStart() {
		t.Fatalf("expected Todo and Blocked to permit starting")
	}
	if StatusDoing.CanStart() {
		t.Fatalf("expected Doing to not permit re-starting")
	}
}

func TestStatusEmojiAndColorTagCoverEveryValue(t *testing.T) {
	for _, s := range []Status{StatusTodo, StatusDoing, StatusReview, StatusBlocked, StatusDone} {
		if s.Emoji() == "" {
			t.Fatalf("expected a non-empty emoji for %v", s)
		}
		if s.ColorTag() == "" {
			t.Fatalf("expected a non-empty color tag for %v", s)
		}
	}
}

func TestStatusTextRoundTrip(t *testing.T) {
	b, err := StatusReview.MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var s Status
	if err := s.UnmarshalText(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != StatusReview {
		t.Fatalf("got %v, want Review", s)
	}
}
