package drivertest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/pwhelpers/driver"
)

func TestRecorder_RecordsInOrder(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.AddInitScript("x"))
	require.NoError(t, r.Goto("https://example.com/app/"))
	require.NoError(t, r.WaitVisible(time.Second, driver.TestID("email"), driver.CSS("input#username")))
	require.NoError(t, r.Fill(driver.CSS("input#username"), "user"))

	assert.Equal(t, []string{AddInitScript, Goto, WaitVisible, Fill}, r.Methods())
	assert.Equal(t, "testid=email|css=input#username", r.CallsTo(WaitVisible)[0].Arg)
	assert.Equal(t, 1, r.Index(Goto))
	assert.Equal(t, -1, r.Index(Click))

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestRecorder_FailuresAndVisibility(t *testing.T) {
	boom := errors.New("boom")
	otp := driver.CSS("input#otp")
	r := NewRecorder().
		SetVisible(driver.TestID("email"), true).
		FailOn(WaitVisible, otp.String(), boom)

	visible, err := r.IsVisible(driver.TestID("email"))
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = r.IsVisible(driver.CSS("input#username"))
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, r.WaitVisible(time.Second, driver.CSS("input#username")))
	require.ErrorIs(t, r.WaitVisible(time.Second, otp), boom)

	r.Fail(StorageState, boom)
	_, err = r.StorageState()
	require.ErrorIs(t, err, boom)
	assert.Len(t, r.CallsTo(StorageState), 1, "failed calls are still recorded")
}

func TestRecorder_StorageStateIsCopied(t *testing.T) {
	r := NewRecorder().SetState([]byte(`{"cookies":[]}`))
	state, err := r.StorageState()
	require.NoError(t, err)
	state[0] = 'X'

	again, err := r.StorageState()
	require.NoError(t, err)
	assert.Equal(t, `{"cookies":[]}`, string(again))
}
