package sqlx

// StreamItem is one element of a statement's result stream: either the
// summary of a completed statement or a single data row.
type StreamItem = Either[QueryResult, Row]

// RowStream is the lazy result sequence of one statement execution. It is
// finite, ends when the backend signals completion, and is not restartable:
// it is a one-pass consumption of a live execution.
//
// Closing the stream before exhaustion cancels the producer; items delivered
// before a mid-stream failure remain valid.
type RowStream struct {
	next func() (StreamItem, bool, error)
	stop func() error

	item StreamItem
	err  error
	done bool
}

// NewRowStream builds a stream over a pull function. next returns the next
// item, false when the sequence is complete, or an error that terminates the
// sequence. stop releases the producer's resources and may be nil.
func NewRowStream(next func() (StreamItem, bool, error), stop func() error) *RowStream {
	return &RowStream{next: next, stop: stop}
}

// StreamError returns a stream that fails with err on the first call to
// Next. Backends use it to surface submission failures through the same
// sequence shape as mid-stream failures.
func StreamError(err error) *RowStream {
	return &RowStream{err: err, done: true}
}

// Next advances to the next item. It returns false at the end of the
// sequence or on error; check Err afterwards.
func (s *RowStream) Next() bool {
	if s.done {
		return false
	}

	item, ok, err := s.next()
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	if !ok {
		s.done = true
		return false
	}

	s.item = item
	return true
}

// Item returns the current element.
func (s *RowStream) Item() StreamItem { return s.item }

// Result returns the current element as a statement summary, if it is one.
func (s *RowStream) Result() (QueryResult, bool) {
	return s.item.Left()
}

// Row returns the current element as a data row, if it is one.
func (s *RowStream) Row() (Row, bool) {
	return s.item.Right()
}

func (s *RowStream) Err() error { return s.err }

// Close abandons the stream. The producer is signalled to stop and any
// statement-level resources are released; the connection stays usable for
// the next statement.
func (s *RowStream) Close() error {
	s.done = true
	if s.stop == nil {
		return nil
	}
	stop := s.stop
	s.stop = nil
	return stop()
}
