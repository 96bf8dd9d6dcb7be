package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// RetryPolicy is explicit configuration data for job retries, passed to the
// dispatcher rather than annotated on individual handlers.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, first try included
	BaseDelay   time.Duration // delay before the first retry
	Multiplier  float64       // exponential backoff factor
}

// DefaultRetryPolicy matches the pipeline's job contract: 3 attempts with
// exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Second,
		Multiplier:  2,
	}
}

// HandlerFunc executes one named background job. Returning an error marks
// the attempt failed and triggers the retry policy.
type HandlerFunc func(ctx context.Context, args map[string]string) error

// Dispatcher submits named jobs for asynchronous execution, decoupled from
// the request path. Each job runs on its own topic; handlers execute on the
// router's goroutines with bounded retries.
type Dispatcher struct {
	pubSub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter
}

func New(policy RetryPolicy, logger watermill.LoggerAdapter) (*Dispatcher, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job router: %w", err)
	}

	maxRetries := policy.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}

	// Order matters: the terminal-failure middleware is outermost so it sees
	// the error only after Retry has exhausted every attempt. It acks the
	// message; a job that burned its retries must not loop forever.
	router.AddMiddleware(
		func(h message.HandlerFunc) message.HandlerFunc {
			return func(msg *message.Message) ([]*message.Message, error) {
				produced, err := h(msg)
				if err != nil {
					logger.Error("job failed after exhausting retries", err, watermill.LogFields{
						"message_uuid": msg.UUID,
					})
					return nil, nil
				}
				return produced, nil
			}
		},
		middleware.Retry{
			MaxRetries:      maxRetries,
			InitialInterval: policy.BaseDelay,
			Multiplier:      policy.Multiplier,
			Logger:          logger,
		}.Middleware,
	)

	return &Dispatcher{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, logger),
		router: router,
		logger: logger,
	}, nil
}

func jobTopic(job string) string {
	return "jobs." + job
}

// Register binds a handler to a job name. Must be called before Run.
func (d *Dispatcher) Register(job string, h HandlerFunc) {
	d.router.AddNoPublisherHandler(
		"job_"+job,
		jobTopic(job),
		d.pubSub,
		func(msg *message.Message) error {
			var args map[string]string
			if err := json.Unmarshal(msg.Payload, &args); err != nil {
				// Malformed args are not retryable; drop with a log.
				d.logger.Error("dropping job with malformed arguments", err, watermill.LogFields{
					"job": job,
				})
				return nil
			}
			return h(msg.Context(), args)
		},
	)
}

// Dispatch submits a job by name. The call returns as soon as the job is
// queued; execution and failure are observable only via published events.
func (d *Dispatcher) Dispatch(ctx context.Context, job string, args map[string]string) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal job args for %s: %w", job, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := d.pubSub.Publish(jobTopic(job), msg); err != nil {
		return fmt.Errorf("failed to dispatch job %s: %w", job, err)
	}
	return nil
}

// Run blocks, executing registered handlers until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.router.Run(ctx)
}

// Running unblocks once the router is ready to accept jobs.
func (d *Dispatcher) Running() <-chan struct{} {
	return d.router.Running()
}

func (d *Dispatcher) Close() error {
	if err := d.router.Close(); err != nil {
		return err
	}
	return d.pubSub.Close()
}
