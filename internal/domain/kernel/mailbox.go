package kernel

// Job is a unit of work submitted to the Mailbox. Every goroutine other
// than the kernel's own run loop touches SupervisorState exclusively by
// submitting a Job, never by calling into application code directly —
// this is how the single-threaded cooperative scheduling model described
// for the supervisor kernel is obtained in a language with real
// parallelism.
type Job func()

// Mailbox is a single-consumer work queue: one goroutine (the kernel
// run loop) drains it sequentially, so no two Jobs ever execute
// concurrently with each other.
type Mailbox struct {
	jobs chan Job
	done chan struct{}
}

// NewMailbox creates a Mailbox with the given queue depth.
//
// Params:
//   - depth: how many pending jobs may queue before Submit blocks.
//
// Returns:
//   - *Mailbox: the constructed mailbox.
func NewMailbox(depth int) *Mailbox {
	return &Mailbox{
		jobs: make(chan Job, depth),
		done: make(chan struct{}),
	}
}

// Submit enqueues job for execution by the run loop. It blocks if the
// queue is full. Close does not close the queue, so Submit never
// panics; once Run has returned, a submitted job is never executed.
//
// Params:
//   - job: the unit of work to run on the kernel goroutine.
func (m *Mailbox) Submit(job Job) {
	m.jobs <- job
}

// Run drains jobs sequentially until Close is called. Call this once,
// from the single goroutine that owns SupervisorState.
func (m *Mailbox) Run() {
	for {
		select {
		case job := <-m.jobs:
			job()
		case <-m.done:
			// Drain anything already queued before returning so a
			// Close racing with a Submit never silently drops work.
			for {
				select {
				case job := <-m.jobs:
					job()
				default:
					return
				}
			}
		}
	}
}

// Close stops the run loop after draining any already-queued jobs.
func (m *Mailbox) Close() {
	close(m.done)
}
