package sqlx

import (
	"errors"
	"testing"
)

func TestRowStreamConsumesInOrder(t *testing.T) {
	items := []StreamItem{
		Right[QueryResult, Row](NewRow(nil, nil, nil)),
		Right[QueryResult, Row](NewRow(nil, nil, nil)),
		Left[QueryResult, Row](QueryResult{RowsAffected: 2}),
	}

	i := 0
	stream := NewRowStream(func() (StreamItem, bool, error) {
		if i == len(items) {
			return StreamItem{}, false, nil
		}
		item := items[i]
		i++
		return item, true, nil
	}, nil)

	var rows, summaries int
	for stream.Next() {
		if _, ok := stream.Row(); ok {
			rows++
			continue
		}
		res, ok := stream.Result()
		if !ok {
			t.Fatal("item is neither row nor summary")
		}
		if res.RowsAffected != 2 {
			t.Fatalf("RowsAffected = %d, want 2", res.RowsAffected)
		}
		summaries++
	}

	if err := stream.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 2 || summaries != 1 {
		t.Fatalf("got %d rows and %d summaries, want 2 and 1", rows, summaries)
	}
}

func TestRowStreamMidStreamError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	stream := NewRowStream(func() (StreamItem, bool, error) {
		calls++
		if calls == 1 {
			return Right[QueryResult, Row](NewRow(nil, nil, nil)), true, nil
		}
		return StreamItem{}, false, boom
	}, nil)

	if !stream.Next() {
		t.Fatal("expected the first item to be delivered")
	}
	if stream.Next() {
		t.Fatal("expected the stream to end on error")
	}
	if !errors.Is(stream.Err(), boom) {
		t.Fatalf("Err() = %v, want %v", stream.Err(), boom)
	}

	// A terminated stream stays terminated.
	if stream.Next() {
		t.Fatal("a failed stream must not restart")
	}
}

func TestStreamError(t *testing.T) {
	boom := errors.New("boom")
	stream := StreamError(boom)

	if stream.Next() {
		t.Fatal("expected no items")
	}
	if !errors.Is(stream.Err(), boom) {
		t.Fatalf("Err() = %v, want %v", stream.Err(), boom)
	}
}

func TestRowStreamCloseStopsProducer(t *testing.T) {
	stopped := false
	stream := NewRowStream(func() (StreamItem, bool, error) {
		return Right[QueryResult, Row](NewRow(nil, nil, nil)), true, nil
	}, func() error {
		stopped = true
		return nil
	})

	if !stream.Next() {
		t.Fatal("expected an item")
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !stopped {
		t.Fatal("Close must signal the producer")
	}
	if stream.Next() {
		t.Fatal("a closed stream must not yield items")
	}

	// Close is idempotent; stop runs once.
	stopped = false
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if stopped {
		t.Fatal("stop must run at most once")
	}
}
