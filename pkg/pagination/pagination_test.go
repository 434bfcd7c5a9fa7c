package pagination

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	cursor := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(cursor)
	for _, r := range encoded {
		if r == '+' || r == '/' || r == '=' {
			t.Fatalf("cursor %q is not URL safe", encoded)
		}
	}
	decoded, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) || decoded.ID != cursor.ID {
		t.Fatalf("decoded %+v, want %+v", decoded, cursor)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should yield nil, got %v %v", c, err)
	}
	for _, token := range []string{"!!!", EncodeCursor(Cursor{ID: uuid.New()})[:4], EncodeCursor(Cursor{})} {
		if _, err := ParseCursor(token); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("token %q: expected ErrInvalidCursor, got %v", token, err)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(-3) != DefaultLimit {
		t.Fatalf("non-positive limits use the default")
	}
	if NormalizeLimit(1000) != MaxLimit {
		t.Fatalf("limit should be capped")
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("buffer adds one row")
	}
}

func TestBuildSetsNextCursorOnlyWhenMoreRows(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := Build(rows, 2, cursorOf)
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	next, err := ParseCursor(page.NextCursor)
	if err != nil || next.ID != rows[1].id {
		t.Fatalf("next cursor should point at last kept row, got %+v %v", next, err)
	}

	last := Build(rows[:1], 2, cursorOf)
	if last.NextCursor != "" {
		t.Fatalf("final page must not carry a cursor")
	}
	if empty := Build[row](nil, 2, cursorOf); empty.Items == nil {
		t.Fatalf("empty page should serialize as []")
	}
}

func TestMapKeepsCursor(t *testing.T) {
	page := Page[int]{Items: []int{1, 2}, NextCursor: "next"}
	out := Map(page, func(v *int) string { return strconv.Itoa(*v * 10) })
	if len(out.Items) != 2 || out.Items[1] != "20" || out.NextCursor != "next" {
		t.Fatalf("unexpected mapped page %+v", out)
	}
	if empty := Map(Page[int]{}, func(v *int) int { return *v }); empty.Items == nil {
		t.Fatalf("mapped empty page should serialize as []")
	}
}
