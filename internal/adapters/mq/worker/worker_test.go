package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/attendboard/internal/adapters/mq/queue"
	"github.com/okian/attendboard/internal/adapters/mq/worker"
	"github.com/okian/attendboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu   sync.Mutex
	seen []int
}

func (r *recorder) Handle(_ context.Context, m int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, m)
	if m < 0 {
		return errors.New("negative")
	}
	if m == 13 {
		panic("unlucky")
	}
	return nil
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.seen...)
}

func TestLoop(t *testing.T) {
	Convey("Given a loop over a queue", t, func() {
		q := queue.NewInMemoryQueue[int](queue.WithCapacity(16))
		rec := &recorder{}
		l := worker.New[int](q, rec, worker.WithName("test-loop"), worker.WithLogger(logger.Nop()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go l.Run(ctx)

		Convey("When messages are enqueued", func() {
			for i := 1; i <= 5; i++ {
				So(q.Enqueue(ctx, i), ShouldBeTrue)
			}

			Convey("Then they are handled in order", func() {
				So(eventually(func() bool { return len(rec.snapshot()) == 5 }), ShouldBeTrue)
				So(rec.snapshot(), ShouldResemble, []int{1, 2, 3, 4, 5})
			})
		})

		Convey("When a handler fails or panics", func() {
			So(q.Enqueue(ctx, -1), ShouldBeTrue)
			So(q.Enqueue(ctx, 13), ShouldBeTrue)
			So(q.Enqueue(ctx, 2), ShouldBeTrue)

			Convey("Then the loop keeps going", func() {
				So(eventually(func() bool { return len(rec.snapshot()) == 3 }), ShouldBeTrue)
				So(rec.snapshot(), ShouldResemble, []int{-1, 13, 2})
			})
		})

		Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			err := l.Shutdown(sctx)

			Convey("Then Run returns", func() {
				So(err, ShouldBeNil)
				_, open := <-l.Done()
				So(open, ShouldBeFalse)
				So(l.Shutdown(sctx), ShouldBeNil)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then Run returns", func() {
				select {
				case <-l.Done():
				case <-time.After(time.Second):
				}
				_, open := <-l.Done()
				So(open, ShouldBeFalse)
			})
		})
	})

	Convey("Given a HandlerFunc", t, func() {
		called := 0
		h := worker.HandlerFunc[string](func(context.Context, string) error {
			called++
			return nil
		})

		Convey("Then it forwards to the function", func() {
			So(h.Handle(context.Background(), "x"), ShouldBeNil)
			So(called, ShouldEqual, 1)
		})
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
