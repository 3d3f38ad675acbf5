package render

import (
	"context"
	"errors"
	"testing"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperSize(t *testing.T) {
	w, h := paperSize("Letter")
	assert.Equal(t, 8.5, w)
	assert.Equal(t, 11.0, h)

	w, h = paperSize("")
	assert.Equal(t, 8.27, w)
	assert.Equal(t, 11.69, h)

	w, _ = paperSize("tabloid")
	assert.Equal(t, 8.27, w)
}

type fakeProcess struct {
	launchErr error
	launches  int
	kills     int
}

func (f *fakeProcess) Launch() (string, error) {
	f.launches++
	if f.launchErr != nil {
		return "", f.launchErr
	}
	return "ws://127.0.0.1:9222/devtools/browser/test", nil
}

func (f *fakeProcess) Kill() { f.kills++ }

func TestRodPrinterKillsBrowserWhenConnectFails(t *testing.T) {
	proc := &fakeProcess{}
	p := NewRodPrinter(RodConfig{})
	p.newProcess = func() browserProcess { return proc }
	var connected []string
	p.connect = func(url string) (*rod.Browser, error) {
		connected = append(connected, url)
		return nil, errors.New("connection refused")
	}

	_, err := p.PrintPDF(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect browser")
	assert.Equal(t, 1, proc.kills)
	assert.Equal(t, []string{"ws://127.0.0.1:9222/devtools/browser/test"}, connected)

	// 失败后不缓存，下次重新启动
	_, err = p.PrintPDF(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Equal(t, 2, proc.launches)
	assert.Equal(t, 2, proc.kills)
	assert.NoError(t, p.Close())
}

func TestRodPrinterLaunchFailure(t *testing.T) {
	proc := &fakeProcess{launchErr: errors.New("no chrome")}
	p := NewRodPrinter(RodConfig{})
	p.newProcess = func() browserProcess { return proc }
	p.connect = func(string) (*rod.Browser, error) {
		t.Fatal("connect must not be called")
		return nil, nil
	}

	_, err := p.PrintPDF(context.Background(), "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch browser")
	assert.Zero(t, proc.kills)
}
