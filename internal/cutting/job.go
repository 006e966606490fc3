package cutting

// Job is the part of a conversion job the cutting session reads and writes.
// A TimeBegin of 0 means "from the start" and a TimeDuration of 0 means
// "to the end"; explicit zeros cannot be told apart from those.
type Job struct {
	Source       string
	TimeBegin    int
	TimeDuration int
}

// seedFromJob converts a job's begin+duration into the selector's fields.
// EndTime is left untouched when the job runs to the end.
func seedFromJob(dst Range, job Job) {
	dst.SetBeginTime(job.TimeBegin)
	dst.SetFromBegin(job.TimeBegin == 0)
	if job.TimeDuration > 0 {
		dst.SetEndTime(job.TimeBegin + job.TimeDuration)
		dst.SetToEnd(false)
	} else {
		dst.SetToEnd(true)
	}
}

// JobRange converts r to a job's begin and duration. FromBegin gives a begin
// of 0 and ToEnd a duration of 0, whatever the numeric fields hold.
func (r TimeRange) JobRange() (timeBegin, timeDuration int) {
	if !r.FromBegin {
		timeBegin = r.BeginTime
	}
	if !r.ToEnd {
		timeDuration = r.EndTime - timeBegin
	}
	return timeBegin, timeDuration
}

// emitToJob writes src back into job as begin+duration.
func emitToJob(job *Job, src Range) {
	r := TimeRange{
		BeginTime: src.BeginTime(),
		EndTime:   src.EndTime(),
		FromBegin: src.FromBegin(),
		ToEnd:     src.ToEnd(),
	}
	job.TimeBegin, job.TimeDuration = r.JobRange()
}
