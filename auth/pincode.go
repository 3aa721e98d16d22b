package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/s0up4200/vimeokit/account"
	"github.com/s0up4200/vimeokit/vimeo"
)

// pinCodePollInterval is the fixed delay between pin code activation polls.
const pinCodePollInterval = 5 * time.Second

// PinCodeInfoFunc receives the pin code and activation link of a device flow
// so they can be displayed before the long poll begins. Distinct from the
// completion callback.
type PinCodeInfoFunc func(pinCode, activateLink string)

// pinCodeInfo is the parsed phase-one response of the device flow.
type pinCodeInfo struct {
	userCode     string
	deviceCode   string
	activateLink string
	expiresIn    time.Duration
}

// pinCodePoll owns the cancellation state of one polling loop. The
// controller exclusively owns the flag and the scheduled timer; cancellation
// is advisory, suppressing the next scheduled poll rather than aborting a
// call already in flight.
type pinCodePoll struct {
	mu       sync.Mutex
	canceled bool
	timer    *time.Timer
}

func (p *pinCodePoll) cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.canceled = true
	if p.timer != nil {
		p.timer.Stop()
	}
}

func (p *pinCodePoll) isCanceled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canceled
}

// schedule arms the next poll unless the loop was canceled.
func (p *pinCodePoll) schedule(d time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.canceled {
		return
	}
	p.timer = time.AfterFunc(d, fn)
}

// PinCodeGrant runs the device flow: phase one requests a pin code, device
// code, activation link and expiry, handing the pin code and link to info;
// phase two polls the authorize endpoint every five seconds until the user
// activates the code, the code expires (ErrPinCodeExpired) or the poll is
// canceled. An HTTP 400 from the authorize endpoint means "not yet
// activated" and re-arms the poll; any other failure is terminal. A canceled
// poll completes silently, like a canceled request.
func (c *Controller) PinCodeGrant(info PinCodeInfoFunc, completion AccountCompletion) *vimeo.RequestToken {
	c.CancelPinCodeGrant()

	poll := &pinCodePoll{}
	c.pollMu.Lock()
	c.poll = poll
	c.pollMu.Unlock()

	req := vimeo.Request{
		Method:           http.MethodPost,
		Path:             pinCodePath,
		CacheFetchPolicy: vimeo.NetworkOnly,
		Parameters: vimeo.Params{
			"grant_type": "device_grant",
			"scope":      c.configuration.ScopeString(),
		},
	}

	return c.authClient.Do(req, func(resp *vimeo.Response, err error) {
		if err != nil {
			completion(nil, err)
			return
		}

		pc, err := pinCodeInfoFromPayload(resp.Payload)
		if err != nil {
			completion(nil, err)
			return
		}

		if info != nil {
			info(pc.userCode, pc.activateLink)
		}

		expiry := time.Now().Add(pc.expiresIn)
		c.pollPinCode(poll, pc, expiry, completion)
	})
}

// CancelPinCodeGrant suppresses the next scheduled poll of an in-progress
// pin code grant. Calls already in flight are not aborted.
func (c *Controller) CancelPinCodeGrant() {
	c.pollMu.Lock()
	poll := c.poll
	c.pollMu.Unlock()

	if poll != nil {
		poll.cancel()
	}
}

// pollPinCode performs one activation attempt. The expiry is checked before
// the network call so an expired code never hits the wire.
func (c *Controller) pollPinCode(poll *pinCodePoll, pc pinCodeInfo, expiry time.Time, completion AccountCompletion) {
	if poll.isCanceled() {
		return
	}
	if !time.Now().Before(expiry) {
		completion(nil, vimeo.ErrPinCodeExpired)
		return
	}

	req := vimeo.Request{
		Method: http.MethodPost,
		Path:   pinCodeAuthorizePath,
		Parameters: vimeo.Params{
			"user_code":   pc.userCode,
			"device_code": pc.deviceCode,
		},
	}

	c.authenticate(req, func(acct *account.Account, err error) {
		if err != nil {
			if vimeo.HTTPStatusCode(err) == http.StatusBadRequest {
				// Not yet activated.
				poll.schedule(c.pollInterval, func() {
					c.pollPinCode(poll, pc, expiry, completion)
				})
				return
			}
			completion(nil, err)
			return
		}
		completion(acct, nil)
	})
}

// pinCodeInfoFromPayload validates and extracts the phase-one fields.
func pinCodeInfoFromPayload(payload vimeo.Payload) (pinCodeInfo, error) {
	pc := pinCodeInfo{}

	pc.userCode, _ = payload["user_code"].(string)
	pc.deviceCode, _ = payload["device_code"].(string)
	pc.activateLink, _ = payload["activate_link"].(string)

	expiresIn, _ := payload["expires_in"].(float64)
	pc.expiresIn = time.Duration(expiresIn) * time.Second

	if pc.userCode == "" || pc.deviceCode == "" || pc.activateLink == "" || pc.expiresIn <= 0 {
		return pinCodeInfo{}, vimeo.ErrPinCodeInfo
	}

	return pc, nil
}
