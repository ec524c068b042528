package jobs

import (
	"context"
	"fmt"
	"strconv"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
)

// ExpireStaleQuotes rejects pending quote requests older than the configured TTL.
func (jr *JobRunner) ExpireStaleQuotes() {
	_ = jr.runWithRecovery("expire-stale-quotes", jr.expireStaleQuotes)
}

// ExpireStaleInterviews cancels pending interviews older than the configured TTL.
func (jr *JobRunner) ExpireStaleInterviews() {
	_ = jr.runWithRecovery("expire-stale-interviews", jr.expireStaleInterviews)
}

// SendPendingReviewDigest tells staff how much work is waiting for review.
func (jr *JobRunner) SendPendingReviewDigest() {
	_ = jr.runWithRecovery("send-pending-review-digest", jr.sendPendingReviewDigest)
}

func (jr *JobRunner) expireStaleQuotes(ctx context.Context) error {
	if jr.policy.QuotePendingTTL <= 0 {
		logger.Debug("Quote expiry disabled")
		return nil
	}
	cutoff := jr.now().Add(-jr.policy.QuotePendingTTL)
	n, err := jr.services.Quotes.ExpireStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to expire quotes: %w", err)
	}
	logger.Info("Expired stale quotes", "count", n, "cutoff", cutoff)
	return nil
}

func (jr *JobRunner) expireStaleInterviews(ctx context.Context) error {
	if jr.policy.InterviewPendingTTL <= 0 {
		logger.Debug("Interview expiry disabled")
		return nil
	}
	cutoff := jr.now().Add(-jr.policy.InterviewPendingTTL)
	n, err := jr.services.Interviews.ExpireStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to expire interviews: %w", err)
	}
	logger.Info("Expired stale interviews", "count", n, "cutoff", cutoff)
	return nil
}

func (jr *JobRunner) sendPendingReviewDigest(ctx context.Context) error {
	repos := jr.store.Repos()

	docs, err := repos.Documents.CountByStatus(ctx, domain.DocumentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to count pending documents: %w", err)
	}
	verifications, err := repos.Verifications.CountByStatus(ctx, domain.VerificationStatusPending)
	if err != nil {
		return fmt.Errorf("failed to count pending verifications: %w", err)
	}
	quotes, err := repos.Quotes.CountByStatus(ctx, domain.QuoteStatusPending)
	if err != nil {
		return fmt.Errorf("failed to count pending quotes: %w", err)
	}

	if docs+verifications+quotes == 0 {
		logger.Info("Nothing pending review, digest skipped")
		return nil
	}

	message := fmt.Sprintf("Waiting for review: %d document(s), %d verification request(s), %d quote request(s).",
		docs, verifications, quotes)
	jr.services.Notifications.NotifyRole(ctx, domain.RoleStaff, "Pending review digest", message, map[string]string{
		"type":          "REVIEW_DIGEST",
		"documents":     strconv.Itoa(docs),
		"verifications": strconv.Itoa(verifications),
		"quotes":        strconv.Itoa(quotes),
	})
	logger.Info("Sent pending review digest", "documents", docs, "verifications", verifications, "quotes", quotes)
	return nil
}
