package integration

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	mu     sync.Mutex
	err    error
	writes []string
}

func (f *fakeClipboard) WriteAll(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeClipboard) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func newTestHelper(primary, fallback Clipboard, reset time.Duration) *Helper {
	return NewHelper(WithClipboards(primary, fallback), WithResetAfter(reset))
}

// ========== Text ==========

func TestText(t *testing.T) {
	h := NewHelper()
	assert.Equal(t, "https://granthx.ai/api/chat", h.Text(TargetAPI))

	snippet := h.Text(TargetSnippet)
	assert.Contains(t, snippet, "https://unpkg.com/react@18/umd/react.production.min.js")
	assert.Contains(t, snippet, "https://unpkg.com/react-dom@18/umd/react-dom.production.min.js")
	assert.Contains(t, snippet, "https://granthx.ai/widget/granthx-chat.umd.js")
	assert.True(t, strings.HasSuffix(snippet, `<div id="granthx-chat"></div>`))
}

func TestWithEndpoint(t *testing.T) {
	assert.Equal(t, "https://example.test/chat", NewHelper(WithEndpoint(" https://example.test/chat ")).Text(TargetAPI))
	assert.Equal(t, DefaultEndpoint, NewHelper(WithEndpoint("  ")).Endpoint())
}

// ========== Copy ==========

func TestCopy_Primary(t *testing.T) {
	primary, fallback := &fakeClipboard{}, &fakeClipboard{}
	h := newTestHelper(primary, fallback, time.Hour)

	require.NoError(t, h.Copy(TargetSnippet))
	assert.Equal(t, []string{Snippet}, primary.Writes())
	assert.Empty(t, fallback.Writes())
	assert.True(t, h.Copied(TargetSnippet))
	assert.False(t, h.Copied(TargetAPI))
}

func TestCopy_FallsBack(t *testing.T) {
	primary := &fakeClipboard{err: errors.New("no xclip")}
	fallback := &fakeClipboard{}
	h := newTestHelper(primary, fallback, time.Hour)

	require.NoError(t, h.Copy(TargetAPI))
	assert.Equal(t, []string{DefaultEndpoint}, fallback.Writes())
	assert.True(t, h.Copied(TargetAPI))
}

func TestCopy_BothFailStillFlags(t *testing.T) {
	h := newTestHelper(&fakeClipboard{err: errors.New("a")}, &fakeClipboard{err: errors.New("b")}, time.Hour)

	err := h.Copy(TargetAPI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy api")
	assert.True(t, h.Copied(TargetAPI))
}

// ========== Reset ==========

func TestCopied_ResetsAfterDelay(t *testing.T) {
	h := newTestHelper(&fakeClipboard{}, &fakeClipboard{}, 30*time.Millisecond)

	require.NoError(t, h.Copy(TargetAPI))
	assert.True(t, h.Copied(TargetAPI))
	assert.Eventually(t, func() bool { return !h.Copied(TargetAPI) }, time.Second, 5*time.Millisecond)
}

func TestCopied_TargetsIndependent(t *testing.T) {
	h := newTestHelper(&fakeClipboard{}, &fakeClipboard{}, 50*time.Millisecond)

	require.NoError(t, h.Copy(TargetAPI))
	require.NoError(t, h.Copy(TargetSnippet))
	assert.True(t, h.Copied(TargetAPI))
	assert.True(t, h.Copied(TargetSnippet))

	assert.Eventually(t, func() bool {
		return !h.Copied(TargetAPI) && !h.Copied(TargetSnippet)
	}, time.Second, 5*time.Millisecond)
}

func TestCopied_RecopyRestartsTimer(t *testing.T) {
	h := newTestHelper(&fakeClipboard{}, &fakeClipboard{}, 200*time.Millisecond)

	require.NoError(t, h.Copy(TargetAPI))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, h.Copy(TargetAPI))

	// the first timer fires here but must not clear the newer flag
	time.Sleep(120 * time.Millisecond)
	assert.True(t, h.Copied(TargetAPI))

	assert.Eventually(t, func() bool { return !h.Copied(TargetAPI) }, time.Second, 5*time.Millisecond)
}

// ========== Terminal clipboard ==========

func TestTerminalClipboard_WritesOSC52(t *testing.T) {
	t.Setenv("TMUX", "")
	var buf bytes.Buffer
	require.NoError(t, TerminalClipboard{Out: &buf}.WriteAll("hello"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b]52;"), "got %q", out)
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("hello")))
}
