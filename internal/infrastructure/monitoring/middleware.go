package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures the duration of one pipeline stage
type Timer struct {
	start   time.Time
	metrics *Metrics
	stage   string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, stage string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		stage:   stage,
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop(status string) time.Duration {
	duration := time.Since(t.start)
	t.metrics.RecordStage(t.stage, status, duration)
	return duration
}

// StopErr records "success" or "error" depending on err
func (t *Timer) StopErr(err error) time.Duration {
	if err != nil {
		return t.Stop("error")
	}
	return t.Stop("success")
}
