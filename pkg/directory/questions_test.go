package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic-kiosk/pkg/model"
)

type fakeQuestionSource struct {
	questions []model.Question
	err       error
	calls     int
}

func (s *fakeQuestionSource) ID() string { return "fake-questions" }

func (s *fakeQuestionSource) Fetch(_ context.Context) ([]model.Question, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

func TestRandom_StationMatchIsCaseInsensitive(t *testing.T) {
	src := &fakeQuestionSource{questions: []model.Question{
		{Station: "Register", TH: "คำถามลงทะเบียน", EN: "Register question"},
		{Station: "Screening", EN: "Screening question"},
	}}
	b := NewQuestionBank(src, time.Minute)
	b.pick = func(n int) int { return 0 }

	q, err := b.Random(context.Background(), "REGISTER")
	if err != nil {
		t.Fatal(err)
	}
	if q.Station != "Register" {
		t.Fatalf("station=%q", q.Station)
	}

	if _, err := b.Random(context.Background(), "pharmacy"); !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("expected ErrNoQuestion, got %v", err)
	}
}

func TestRandom_EmptyStationMatchesAll(t *testing.T) {
	src := &fakeQuestionSource{questions: []model.Question{
		{Station: "Register", EN: "a"},
		{Station: "Screening", EN: "b"},
	}}
	b := NewQuestionBank(src, time.Minute)
	b.pick = func(n int) int { return n - 1 }

	q, err := b.Random(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if q.EN != "b" {
		t.Fatalf("expected full pool, got %+v", q)
	}
}

func TestRandom_SkipsRowsWithoutText(t *testing.T) {
	src := &fakeQuestionSource{questions: []model.Question{
		{Station: "Register"},
		{Station: "Register", TH: "มีข้อความ"},
	}}
	b := NewQuestionBank(src, time.Minute)
	b.pick = func(n int) int {
		if n != 1 {
			t.Fatalf("pool size=%d", n)
		}
		return 0
	}

	q, err := b.Random(context.Background(), "Register")
	if err != nil {
		t.Fatal(err)
	}
	if q.TH == "" {
		t.Fatalf("blank row served: %+v", q)
	}
}

func TestQuestionText_PrefersThai(t *testing.T) {
	q := model.Question{TH: "ไทย", EN: "english"}
	if q.Text() != "ไทย" {
		t.Fatalf("text=%q", q.Text())
	}
	q.TH = ""
	if q.Text() != "english" {
		t.Fatalf("text=%q", q.Text())
	}
}

func TestRandom_ServesLoadedQuestionsAcrossFetchFailure(t *testing.T) {
	src := &fakeQuestionSource{questions: []model.Question{
		{Station: "Register", EN: "still here"},
	}}
	b := NewQuestionBank(src, time.Minute)
	b.pick = func(n int) int { return 0 }

	if _, err := b.Random(context.Background(), "Register"); err != nil {
		t.Fatal(err)
	}

	// expire the bank, then break the source
	b.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	src.err = errors.New("sheet unreachable")

	q, err := b.Random(context.Background(), "Register")
	if err != nil {
		t.Fatal(err)
	}
	if q.EN != "still here" {
		t.Fatalf("stale questions dropped: %+v", q)
	}
	if src.calls < 2 {
		t.Fatalf("refresh never attempted, calls=%d", src.calls)
	}
}

func TestRandom_RefetchesAfterTTL(t *testing.T) {
	src := &fakeQuestionSource{questions: []model.Question{{Station: "Register", EN: "v1"}}}
	b := NewQuestionBank(src, time.Minute)
	b.pick = func(n int) int { return 0 }

	if _, err := b.Random(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	src.questions = []model.Question{{Station: "Register", EN: "v2"}}
	b.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	q, err := b.Random(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if q.EN != "v2" {
		t.Fatalf("expected refreshed question, got %+v", q)
	}
}
