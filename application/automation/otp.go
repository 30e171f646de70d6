package automation

import (
	"context"
	"fmt"

	"grocer-go/domain/platform"
	"grocer-go/domain/session"
)

const phaseOtp = "otp"

// OtpAutomator resumes a login in a new browser and submits the OTP.
type OtpAutomator struct {
	opts *Options
}

// SubmitOtp restores the record's cookies, navigates to its URL and submits otp.
// The record must already carry the OTP input selector; the submit selector is
// optional because some flows submit on the last digit.
func (a *OtpAutomator) SubmitOtp(ctx context.Context, record *session.Record, otp string) (session.Snapshot, error) {
	if record.OtpInputSelector == "" {
		return session.Snapshot{}, fmt.Errorf("%w: otpInput", platform.ErrMissingSelector)
	}
	if record.URL == "" {
		return session.Snapshot{}, fmt.Errorf("%w: no url recorded for session %s", ErrAutomation, record.ID)
	}

	logger := a.opts.Logger.With("phase", phaseOtp, "session_id", record.ID, "platform", record.Platform)

	bs, err := openBrowserSession(ctx, a.opts, phaseOtp)
	if err != nil {
		return session.Snapshot{}, err
	}
	defer bs.Close()

	if err := bs.Restore(ctx, record.Cookies); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.Navigate(ctx, record.URL); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.WaitPresent(ctx, record.OtpInputSelector); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.Type(ctx, record.OtpInputSelector, otp); err != nil {
		return session.Snapshot{}, err
	}
	if record.SubmitButtonSelector != "" {
		if err := bs.WaitVisible(ctx, record.SubmitButtonSelector); err != nil {
			return session.Snapshot{}, err
		}
		if err := bs.Click(ctx, record.SubmitButtonSelector); err != nil {
			return session.Snapshot{}, err
		}
	}
	if err := a.opts.Settler.Settle(ctx, SettleAfterOtp); err != nil {
		return session.Snapshot{}, newStepError(phaseOtp, "settle", "", err)
	}

	snap, err := bs.Capture(ctx)
	if err != nil {
		return session.Snapshot{}, err
	}

	logger.Info("OTP submitted", "cookies", len(snap.Cookies), "url", snap.URL)
	return snap, nil
}
