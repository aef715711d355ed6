package mail

import (
	"context"
	"sync"

	"employee-portal/internal/auth-service/core/ports/driven"
	"employee-portal/internal/mylogger"
)

// Worker drains the verification mail queue and hands each job to the
// sender. Delivery is best-effort: a failed send is logged and dropped,
// never retried, so a slow or broken mail provider cannot back up
// registration.
type Worker struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	mylog  mylogger.Logger
	queue  driven.IMailQueue
	sender driven.IMailSender
}

func NewWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	mylog mylogger.Logger,
	queue driven.IMailQueue,
	sender driven.IMailSender,
) *Worker {
	return &Worker{
		ctx:    ctx,
		wg:     wg,
		mylog:  mylog,
		queue:  queue,
		sender: sender,
	}
}

func (w *Worker) Start() error {
	jobs, err := w.queue.ConsumeVerificationEmails(w.ctx)
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		mylog := w.mylog.Action("mail_worker")

		for {
			select {
			case msg, ok := <-jobs:
				if !ok {
					mylog.Info("Mail queue closed, worker exiting")
					return
				}
				if err := w.sender.SendVerificationEmail(w.ctx, msg); err != nil {
					mylog.Warn("Failed to deliver verification email", "email", msg.To, "err", err.Error())
					continue
				}
				mylog.Debug("Verification email delivered", "email", msg.To)

			case <-w.ctx.Done():
				mylog.Info("Shutdown signal received, worker exiting")
				return
			}
		}
	}()

	return nil
}
