package rewrite

// DefaultMaxRewrites bounds the graph changes a single Apply may make.
// Terminating pattern sets on realistic inputs stay far below it.
const DefaultMaxRewrites = 100000

// rewriteQuota counts graph changes during one Apply call and fails once the
// limit is passed. Both pattern rewrites and dead-code erasures count.
type rewriteQuota struct {
	limit   int
	current int
}

func newRewriteQuota(limit int) *rewriteQuota {
	return &rewriteQuota{limit: limit}
}

// Check records one change and returns *NonConvergenceError if it pushes the
// count past the limit.
func (q *rewriteQuota) Check(runID string) error {
	q.current++
	if q.current > q.limit {
		return &NonConvergenceError{
			RunID:    runID,
			Rewrites: q.current,
			Limit:    q.limit,
		}
	}
	return nil
}

// Current returns the number of changes recorded so far.
func (q *rewriteQuota) Current() int {
	return q.current
}
