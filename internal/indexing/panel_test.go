package indexing

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"granthx/internal/api"
	"granthx/internal/apitest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	kind string
	msg  string
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) add(kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{kind, msg})
}

func (r *recorder) Success(msg string) { r.add("ok", msg) }
func (r *recorder) Warn(msg string)    { r.add("warn", msg) }
func (r *recorder) Error(msg string)   { r.add("err", msg) }

func (r *recorder) last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

func newTestPanel(t *testing.T) (*Panel, *apitest.Server, *recorder) {
	t.Helper()
	srv := apitest.New(t)
	rec := &recorder{}
	return NewPanel(api.NewClient(srv.URL), rec, nil), srv, rec
}

func writeDoc(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0644))
	return path
}

// ========== SelectFile ==========

func TestSelectFile_RejectsUnsupportedAndKeepsSelection(t *testing.T) {
	p, _, rec := newTestPanel(t)
	good := writeDoc(t, "report.pdf", 10)
	require.NoError(t, p.SelectFile(good))

	for _, name := range []string{"notes.docx", "image.PNG", "report.pdf.bak", "csv"} {
		err := p.SelectFile(writeDoc(t, name, 1))
		assert.ErrorIs(t, err, ErrUnsupportedFile, name)
		assert.Equal(t, note{"warn", "Only .pdf or .csv files are allowed"}, rec.last())

		f, ok := p.Selected()
		require.True(t, ok)
		assert.Equal(t, good, f.Path)
	}
}

func TestSelectFile_CaseInsensitive(t *testing.T) {
	p, _, _ := newTestPanel(t)
	assert.NoError(t, p.SelectFile(writeDoc(t, "DATA.CSV", 3)))
	assert.NoError(t, p.SelectFile(writeDoc(t, "Scan.Pdf", 3)))
}

func TestSelectFile_MissingFile(t *testing.T) {
	p, _, rec := newTestPanel(t)
	err := p.SelectFile(filepath.Join(t.TempDir(), "gone.pdf"))
	require.Error(t, err)
	assert.Equal(t, "warn", rec.last().kind)
	_, ok := p.Selected()
	assert.False(t, ok)
}

func TestFileLabel(t *testing.T) {
	p, _, _ := newTestPanel(t)
	assert.Equal(t, "Choose a PDF/CSV or drop it here", p.FileLabel())

	require.NoError(t, p.SelectFile(writeDoc(t, "big.pdf", 3*1024+600)))
	assert.Equal(t, "big.pdf (4 KB)", p.FileLabel())
}

func TestFileLabel_CSVRows(t *testing.T) {
	p, _, _ := newTestPanel(t)
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))
	require.NoError(t, p.SelectFile(path))
	assert.Equal(t, "rows.csv (0 KB) · 2 rows", p.FileLabel())
}

// ========== Drag and drop ==========

func TestDragOverLeave(t *testing.T) {
	p, _, _ := newTestPanel(t)
	assert.False(t, p.DropActive())
	p.DragOver()
	assert.True(t, p.DropActive())
	p.DragLeave()
	assert.False(t, p.DropActive())
}

func TestDrop_SelectsAndClearsHighlight(t *testing.T) {
	p, _, _ := newTestPanel(t)
	path := writeDoc(t, "my report.pdf", 5)

	p.DragOver()
	require.NoError(t, p.Drop("'"+path+"'\n"))
	assert.False(t, p.DropActive())

	f, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, path, f.Path)
}

func TestCleanDroppedPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/a.pdf":                "/tmp/a.pdf",
		"  /tmp/a.pdf \n":           "/tmp/a.pdf",
		`"/tmp/my file.pdf"`:        "/tmp/my file.pdf",
		`/tmp/my\ file.pdf`:         "/tmp/my file.pdf",
		"file:///tmp/my%20file.pdf": "/tmp/my file.pdf",
		"/tmp/a.pdf\n/tmp/b.pdf":    "/tmp/a.pdf",
		"":                          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanDroppedPath(in), in)
	}
}

// ========== SubmitFile ==========

func TestSubmitFile_NoSelection(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	err := p.SubmitFile(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, note{"warn", "No file selected"}, rec.last())
	assert.Empty(t, srv.Uploads())
}

func TestSubmitFile_Success(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	require.NoError(t, p.SelectFile(writeDoc(t, "report.pdf", 2048)))

	require.NoError(t, p.SubmitFile(context.Background()))

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "report.pdf", uploads[0].Name)
	assert.Len(t, uploads[0].Content, 2048)

	sources := p.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, KindFile, sources[0].Kind)
	assert.Equal(t, "report.pdf (2 KB)", sources[0].Label)
	assert.False(t, sources[0].IndexedAt.IsZero())

	_, ok := p.Selected()
	assert.False(t, ok, "selection should be cleared")
	assert.Equal(t, note{"ok", "File indexed successfully"}, rec.last())
	assert.Equal(t, Idle, p.State())
}

func TestSubmitFile_ServerMessage(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	srv.Fail(apitest.Failure{Status: http.StatusBadRequest, Message: "Unsupported encoding"})
	require.NoError(t, p.SelectFile(writeDoc(t, "report.pdf", 10)))

	require.Error(t, p.SubmitFile(context.Background()))
	assert.Equal(t, note{"err", "Unsupported encoding"}, rec.last())
	assert.Empty(t, p.Sources())
	assert.Equal(t, Idle, p.State())

	_, ok := p.Selected()
	assert.True(t, ok, "selection kept after failure")
}

func TestSubmitFile_GenericFailure(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	srv.Fail(apitest.Failure{Status: http.StatusInternalServerError})
	require.NoError(t, p.SelectFile(writeDoc(t, "report.csv", 10)))

	require.Error(t, p.SubmitFile(context.Background()))
	assert.Equal(t, note{"err", "Upload failed"}, rec.last())
	assert.False(t, p.Busy())
}

// ========== SubmitURLOrText ==========

func TestSubmitURLOrText_BothEmpty(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	p.SetText("   ")

	err := p.SubmitURLOrText(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, note{"warn", "Enter a URL or paste some text"}, rec.last())
	assert.Empty(t, srv.Inputs())
}

func TestSubmitURLOrText_URLTakesPrecedence(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	p.SetURL("https://x.io")
	p.SetText("ignored")

	require.NoError(t, p.SubmitURLOrText(context.Background()))
	assert.Equal(t, []string{"https://x.io"}, srv.Inputs())

	sources := p.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, KindLink, sources[0].Kind)
	assert.Equal(t, "https://x.io", sources[0].Label)

	link, text := p.Fields()
	assert.Empty(t, link)
	assert.Empty(t, text)
	assert.Equal(t, note{"ok", "Content indexed successfully"}, rec.last())
}

func TestSubmitURLOrText_TextLabelTruncated(t *testing.T) {
	p, srv, _ := newTestPanel(t)
	text := strings.Repeat("abcdefghij", 4)
	p.SetText(text)

	require.NoError(t, p.SubmitURLOrText(context.Background()))
	assert.Equal(t, []string{text}, srv.Inputs())

	sources := p.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, KindText, sources[0].Kind)
	assert.Equal(t, text[:28]+"...", sources[0].Label)
}

func TestSubmitURLOrText_ShortTextNotTruncated(t *testing.T) {
	p, _, _ := newTestPanel(t)
	p.SetText("exactly twenty-eight chars!!")

	require.NoError(t, p.SubmitURLOrText(context.Background()))
	assert.Equal(t, "exactly twenty-eight chars!!", p.Sources()[0].Label)
}

func TestSubmitURLOrText_Failure(t *testing.T) {
	p, srv, rec := newTestPanel(t)
	srv.Fail(apitest.Failure{Status: http.StatusServiceUnavailable})
	p.SetURL("https://x.io")

	require.Error(t, p.SubmitURLOrText(context.Background()))
	assert.Equal(t, note{"err", "Indexing failed"}, rec.last())

	link, _ := p.Fields()
	assert.Equal(t, "https://x.io", link, "fields kept after failure")
	assert.Empty(t, p.Sources())
}

func TestSources_NewestFirst(t *testing.T) {
	p, _, _ := newTestPanel(t)
	for _, u := range []string{"https://a.io", "https://b.io", "https://a.io"} {
		p.SetURL(u)
		require.NoError(t, p.SubmitURLOrText(context.Background()))
	}

	sources := p.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, "https://a.io", sources[0].Label)
	assert.Equal(t, "https://b.io", sources[1].Label)
	assert.Equal(t, "https://a.io", sources[2].Label)
}

// ========== Busy guard ==========

type blockingBackend struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) UploadFile(ctx context.Context, name string, r io.Reader) error {
	return b.IndexURLOrText(ctx, name)
}

func (b *blockingBackend) IndexURLOrText(ctx context.Context, input string) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func TestSubmit_BusyGuardAdmitsOne(t *testing.T) {
	backend := &blockingBackend{entered: make(chan struct{}, 4), release: make(chan struct{})}
	p := NewPanel(backend, &recorder{}, nil)
	p.SetURL("https://x.io")
	require.NoError(t, p.SelectFile(writeDoc(t, "a.pdf", 1)))

	done := make(chan error, 1)
	go func() { done <- p.SubmitURLOrText(context.Background()) }()
	<-backend.entered
	assert.True(t, p.Busy())

	assert.ErrorIs(t, p.SubmitURLOrText(context.Background()), ErrBusy)
	assert.ErrorIs(t, p.SubmitFile(context.Background()), ErrBusy)

	close(backend.release)
	require.NoError(t, <-done)
	assert.False(t, p.Busy())
	assert.Equal(t, 1, backend.calls)
}
