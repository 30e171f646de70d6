package automation

import (
	"context"

	"grocer-go/domain/platform"
	"grocer-go/domain/session"
)

const phaseLogin = "login"

// LoginAutomator drives a platform's login UI up to the OTP prompt.
type LoginAutomator struct {
	opts *Options
}

// Login requests an OTP for phoneNumber and returns the identity captured once the
// OTP field is on screen. An unknown platform fails before any browser is launched.
func (a *LoginAutomator) Login(ctx context.Context, id platform.ID, phoneNumber string) (session.Snapshot, error) {
	cfg, err := a.opts.Platforms.Lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	sel := cfg.Selectors

	logger := a.opts.Logger.With("phase", phaseLogin, "platform", id, "phone", session.MaskPhone(phoneNumber))

	bs, err := openBrowserSession(ctx, a.opts, phaseLogin)
	if err != nil {
		return session.Snapshot{}, err
	}
	defer bs.Close()

	if err := bs.Navigate(ctx, cfg.BaseURL); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.Click(ctx, sel.LoginButton); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.WaitPresent(ctx, sel.PhoneInput); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.Type(ctx, sel.PhoneInput, phoneNumber); err != nil {
		return session.Snapshot{}, err
	}
	if err := bs.Click(ctx, sel.SubmitButton); err != nil {
		return session.Snapshot{}, err
	}
	// The OTP field appearing is the only proof that an OTP was sent.
	if err := bs.WaitPresent(ctx, sel.OtpInput); err != nil {
		return session.Snapshot{}, err
	}

	snap, err := bs.Capture(ctx)
	if err != nil {
		return session.Snapshot{}, err
	}

	logger.Info("OTP requested", "cookies", len(snap.Cookies), "url", snap.URL)
	return snap, nil
}
