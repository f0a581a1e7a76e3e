package common

import "sync"

type Job func() error

type queuedJob struct {
	name string
	job  Job
}

// JobQueue runs jobs on a single background goroutine, one after another. Job errors are logged and
// otherwise ignored: the queue is meant for best-effort work (saving user preferences, writing
// working copies of images etc.) which must never crash or block the caller.
type JobQueue struct {
	jobsChannel chan queuedJob
	stopChannel chan struct{}
	waitGroup   sync.WaitGroup
	logger      Logger
}

func NewJobQueue(logger Logger) *JobQueue {
	queue := &JobQueue{
		jobsChannel: make(chan queuedJob, 128),
		stopChannel: make(chan struct{}),
		logger:      logger,
	}
	queue.waitGroup.Add(1)
	go queue.run()
	return queue
}

// Enqueue schedules a job for execution. `name` identifies the job in the log if it fails.
func (j *JobQueue) Enqueue(name string, job Job) {
	j.jobsChannel <- queuedJob{name: name, job: job}
}

// Stop drains the jobs enqueued so far and shuts the queue down. Draining matters: preference
// saves scheduled right before exit should still land on disk.
func (j *JobQueue) Stop() {
	j.stopChannel <- struct{}{}
	j.waitGroup.Wait()
}

func (j *JobQueue) run() {
	for {
		select {
		case queued := <-j.jobsChannel:
			j.process(queued)
		case <-j.stopChannel:
			for {
				select {
				case queued := <-j.jobsChannel:
					j.process(queued)
				default:
					j.waitGroup.Done()
					return
				}
			}
		}
	}
}

func (j *JobQueue) process(queued queuedJob) {
	err := queued.job()
	if err != nil {
		j.logger.Log("failed to process job \"" + queued.name + "\": " + err.Error() + "\n")
	}
}
