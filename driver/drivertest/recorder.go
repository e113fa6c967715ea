// Package drivertest provides a recording fake of driver.Page for unit tests.
package drivertest

import (
	"fmt"
	"sync"
	"time"

	"github.com/kuitang/pwhelpers/driver"
)

// Method names recorded by Recorder.
const (
	Goto               = "Goto"
	AddInitScript      = "AddInitScript"
	AbortRequests      = "AbortRequests"
	WaitForNetworkIdle = "WaitForNetworkIdle"
	WaitForURL         = "WaitForURL"
	WaitVisible        = "WaitVisible"
	IsVisible          = "IsVisible"
	Fill               = "Fill"
	Click              = "Click"
	StorageState       = "StorageState"
)

// Call is one recorded page interaction.
type Call struct {
	Method  string
	Arg     string
	Value   string
	Timeout time.Duration
	Pattern any
}

// Recorder implements driver.Page by recording every call in order.
//
// Visibility is answered from Visible, keyed by Selector.String(). Errors registered with
// Fail or FailOn are returned from the matching call, which is still recorded.
type Recorder struct {
	mu sync.Mutex

	calls    []Call
	visible  map[string]bool
	failures map[string]error
	state    []byte
}

var _ driver.Page = (*Recorder)(nil)

// NewRecorder returns a Recorder whose StorageState returns an empty session.
func NewRecorder() *Recorder {
	return &Recorder{
		visible:  map[string]bool{},
		failures: map[string]error{},
		state:    []byte(`{"cookies":[],"origins":[]}`),
	}
}

// SetVisible marks sel as visible or hidden for IsVisible.
func (r *Recorder) SetVisible(sel driver.Selector, visible bool) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible[sel.String()] = visible
	return r
}

// SetState sets the bytes returned by StorageState.
func (r *Recorder) SetState(state []byte) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = append([]byte(nil), state...)
	return r
}

// Fail makes every call to method return err.
func (r *Recorder) Fail(method string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method] = err
	return r
}

// FailOn makes calls to method with the given argument return err. For selector methods
// the argument is Selector.String().
func (r *Recorder) FailOn(method, arg string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method+" "+arg] = err
	return r
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Methods returns the recorded method names in call order.
func (r *Recorder) Methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	methods := make([]string, len(r.calls))
	for i, c := range r.calls {
		methods[i] = c.Method
	}
	return methods
}

// CallsTo returns the recorded calls to method.
func (r *Recorder) CallsTo(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Index returns the position of the first call to method, or -1.
func (r *Recorder) Index(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.calls {
		if c.Method == method {
			return i
		}
	}
	return -1
}

// Reset clears recorded calls but keeps visibility, failures and state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if err, ok := r.failures[c.Method+" "+c.Arg]; ok {
		return err
	}
	return r.failures[c.Method]
}

func (r *Recorder) Goto(url string) error {
	return r.record(Call{Method: Goto, Arg: url})
}

func (r *Recorder) AddInitScript(script string) error {
	return r.record(Call{Method: AddInitScript, Value: script})
}

func (r *Recorder) AbortRequests(urlPattern string) error {
	return r.record(Call{Method: AbortRequests, Arg: urlPattern})
}

func (r *Recorder) WaitForNetworkIdle(timeout time.Duration) error {
	return r.record(Call{Method: WaitForNetworkIdle, Timeout: timeout})
}

func (r *Recorder) WaitForURL(pattern any, timeout time.Duration) error {
	return r.record(Call{Method: WaitForURL, Arg: fmt.Sprint(pattern), Pattern: pattern, Timeout: timeout})
}

func (r *Recorder) WaitVisible(timeout time.Duration, candidates ...driver.Selector) error {
	arg := ""
	for i, sel := range candidates {
		if i > 0 {
			arg += "|"
		}
		arg += sel.String()
	}
	return r.record(Call{Method: WaitVisible, Arg: arg, Timeout: timeout})
}

func (r *Recorder) IsVisible(sel driver.Selector) (bool, error) {
	if err := r.record(Call{Method: IsVisible, Arg: sel.String()}); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible[sel.String()], nil
}

func (r *Recorder) Fill(sel driver.Selector, value string) error {
	return r.record(Call{Method: Fill, Arg: sel.String(), Value: value})
}

func (r *Recorder) Click(sel driver.Selector) error {
	return r.record(Call{Method: Click, Arg: sel.String()})
}

func (r *Recorder) StorageState() ([]byte, error) {
	if err := r.record(Call{Method: StorageState}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.state...), nil
}
