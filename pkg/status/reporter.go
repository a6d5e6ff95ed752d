package status

import (
	"context"
)

// 📈 Reporter turns worker results into events for one batch
type Reporter struct {
	sink  Sink
	batch string
}

// NewReporter creates a reporter stamping events with the batch id.
func NewReporter(sink Sink, batch string) *Reporter {
	return &Reporter{sink: sink, batch: batch}
}

// Status sends the terminal event of a file. The message reads "<file> <msg>".
// Batch level errors have no file and carry msg alone.
func (r *Reporter) Status(ctx context.Context, st Status, file, msg, trace string) error {
	line := file
	switch {
	case file == "":
		line = msg
	case msg != "":
		line = file + " " + msg
	}
	return r.sink.Send(ctx, Event{
		Action: ActionStatus,
		Batch:  r.batch,
		Status: st,
		File:   file,
		Msg:    line,
		Trace:  trace,
	})
}

// Report forwards a transform message about file.
func (r *Reporter) Report(ctx context.Context, file, msg string) error {
	return r.sink.Send(ctx, Event{
		Action: ActionReport,
		Batch:  r.batch,
		File:   file,
		Msg:    msg,
	})
}

// Stats sends a dry run statistic.
func (r *Reporter) Stats(ctx context.Context, name string, quantity int) error {
	return r.sink.Send(ctx, Event{
		Action:   ActionUpdate,
		Batch:    r.batch,
		Name:     name,
		Quantity: quantity,
	})
}

// Free closes the batch.
func (r *Reporter) Free(ctx context.Context) error {
	return r.sink.Send(ctx, Event{
		Action: ActionFree,
		Batch:  r.batch,
	})
}
