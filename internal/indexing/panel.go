package indexing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"granthx/internal/api"
	"granthx/internal/extractor"
	"granthx/internal/toast"

	"go.uber.org/zap"
)

const labelLimit = 28

const (
	msgUnsupported    = "Only .pdf or .csv files are allowed"
	msgNoFile         = "No file selected"
	msgEmptyInput     = "Enter a URL or paste some text"
	msgFileIndexed    = "File indexed successfully"
	msgContentIndexed = "Content indexed successfully"
	msgUploadFailed   = "Upload failed"
	msgIndexFailed    = "Indexing failed"

	placeholderLabel = "Choose a PDF/CSV or drop it here"
)

var (
	ErrUnsupportedFile = errors.New("only .pdf or .csv files are allowed")
	ErrNoFile          = errors.New("no file selected")
	ErrEmptyInput      = errors.New("no url or text entered")
	ErrBusy            = errors.New("indexing already in progress")
)

// Backend is the subset of the API client the panel needs.
type Backend interface {
	UploadFile(ctx context.Context, name string, r io.Reader) error
	IndexURLOrText(ctx context.Context, input string) error
}

// State is the panel's request state.
type State int32

const (
	Idle State = iota
	Busy
)

// SelectedFile is a local document waiting to be uploaded.
type SelectedFile struct {
	Path string
	Info extractor.DocumentInfo
}

// Label is "name (N KB)", the text recorded in the source list.
func (f SelectedFile) Label() string {
	kb := int64(math.Round(float64(f.Info.Size) / 1024))
	return fmt.Sprintf("%s (%d KB)", f.Info.Name, kb)
}

// Panel holds the state of the content indexing tab. It is safe for
// concurrent use; submissions run on a caller-provided goroutine.
type Panel struct {
	backend Backend
	notify  toast.Notifier
	log     *zap.Logger
	now     func() time.Time

	state   atomic.Int32
	sources *Registry

	mu         sync.Mutex
	file       *SelectedFile
	link       string
	text       string
	dropActive bool
}

func NewPanel(backend Backend, notify toast.Notifier, log *zap.Logger) *Panel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Panel{
		backend: backend,
		notify:  notify,
		log:     log,
		now:     time.Now,
		sources: NewRegistry(),
	}
}

// ========== File selection ==========

// SelectFile selects a local document for upload. Anything other than a
// readable .pdf or .csv is rejected with a warning and the previous
// selection is kept.
func (p *Panel) SelectFile(path string) error {
	name := filepath.Base(path)
	if !extractor.Supported(name) {
		p.notify.Warn(msgUnsupported)
		return ErrUnsupportedFile
	}

	info, err := extractor.Inspect(path)
	if err != nil {
		p.notify.Warn("Cannot read " + name)
		return fmt.Errorf("select %s: %w", name, err)
	}

	p.mu.Lock()
	p.file = &SelectedFile{Path: path, Info: info}
	p.mu.Unlock()

	p.log.Debug("file selected", zap.String("name", info.Name), zap.Int64("size", info.Size))
	return nil
}

// DragOver and DragLeave toggle the drop-zone highlight only.
func (p *Panel) DragOver() {
	p.mu.Lock()
	p.dropActive = true
	p.mu.Unlock()
}

func (p *Panel) DragLeave() {
	p.mu.Lock()
	p.dropActive = false
	p.mu.Unlock()
}

// Drop handles a dropped path. Terminals deliver drops as pasted text,
// sometimes quoted, shell-escaped or as a file:// URL.
func (p *Panel) Drop(raw string) error {
	p.DragLeave()
	path := cleanDroppedPath(raw)
	if path == "" {
		return nil
	}
	return p.SelectFile(path)
}

func (p *Panel) DropActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropActive
}

// Selected returns the current file, if any.
func (p *Panel) Selected() (SelectedFile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return SelectedFile{}, false
	}
	return *p.file, true
}

// FileLabel is the drop-zone caption.
func (p *Panel) FileLabel() string {
	f, ok := p.Selected()
	if !ok {
		return placeholderLabel
	}
	label := f.Label()
	switch {
	case f.Info.Pages > 0:
		label += fmt.Sprintf(" · %d pages", f.Info.Pages)
	case f.Info.Rows > 0:
		label += fmt.Sprintf(" · %d rows", f.Info.Rows)
	}
	return label
}

// ========== URL / text fields ==========

func (p *Panel) SetURL(v string) {
	p.mu.Lock()
	p.link = v
	p.mu.Unlock()
}

func (p *Panel) SetText(v string) {
	p.mu.Lock()
	p.text = v
	p.mu.Unlock()
}

// Fields returns the current URL and text inputs.
func (p *Panel) Fields() (link, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.link, p.text
}

// ========== Submissions ==========

// State returns Idle or Busy.
func (p *Panel) State() State {
	return State(p.state.Load())
}

func (p *Panel) Busy() bool {
	return p.State() == Busy
}

// Sources returns the indexed sources, newest first.
func (p *Panel) Sources() []Source {
	return p.sources.List()
}

// SubmitFile uploads the selected file. It returns ErrNoFile without touching
// the network when nothing is selected and ErrBusy when another submission
// is in flight.
func (p *Panel) SubmitFile(ctx context.Context) error {
	f, ok := p.Selected()
	if !ok {
		p.notify.Warn(msgNoFile)
		return ErrNoFile
	}
	if !p.state.CompareAndSwap(int32(Idle), int32(Busy)) {
		return ErrBusy
	}
	defer p.state.Store(int32(Idle))

	err := p.upload(ctx, f)
	if err != nil {
		p.log.Error("upload failed", zap.String("name", f.Info.Name), zap.Error(err))
		p.notify.Error(serverMessage(err, msgUploadFailed))
		return err
	}

	p.sources.Prepend(Source{Kind: KindFile, Label: f.Label(), IndexedAt: p.now()})
	p.mu.Lock()
	p.file = nil
	p.mu.Unlock()

	p.log.Info("file indexed", zap.String("name", f.Info.Name))
	p.notify.Success(msgFileIndexed)
	return nil
}

func (p *Panel) upload(ctx context.Context, f SelectedFile) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Info.Name, err)
	}
	defer fh.Close()
	return p.backend.UploadFile(ctx, f.Info.Name, fh)
}

// SubmitURLOrText indexes the URL field, or the text field when the URL is
// empty. Exactly one of them is sent as the request's input.
func (p *Panel) SubmitURLOrText(ctx context.Context) error {
	link, text := p.Fields()
	link = strings.TrimSpace(link)
	text = strings.TrimSpace(text)
	if link == "" && text == "" {
		p.notify.Warn(msgEmptyInput)
		return ErrEmptyInput
	}
	if !p.state.CompareAndSwap(int32(Idle), int32(Busy)) {
		return ErrBusy
	}
	defer p.state.Store(int32(Idle))

	src := Source{Kind: KindText, Label: truncateLabel(text)}
	input := text
	if link != "" {
		src = Source{Kind: KindLink, Label: link}
		input = link
	}

	if err := p.backend.IndexURLOrText(ctx, input); err != nil {
		p.log.Error("indexing failed", zap.String("kind", string(src.Kind)), zap.Error(err))
		p.notify.Error(serverMessage(err, msgIndexFailed))
		return err
	}

	src.IndexedAt = p.now()
	p.sources.Prepend(src)
	p.mu.Lock()
	p.link = ""
	p.text = ""
	p.mu.Unlock()

	p.log.Info("content indexed", zap.String("kind", string(src.Kind)))
	p.notify.Success(msgContentIndexed)
	return nil
}

// ========== Helpers ==========

// serverMessage prefers the backend's {"error"} message over fallback.
func serverMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func truncateLabel(text string) string {
	runes := []rune(text)
	if len(runes) > labelLimit {
		return string(runes[:labelLimit]) + "..."
	}
	return text
}

func cleanDroppedPath(raw string) string {
	s := strings.TrimSpace(raw)
	// multi-file drops arrive newline separated; only the first is used
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "file://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	return strings.ReplaceAll(s, `\ `, " ")
}
