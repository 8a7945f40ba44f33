package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

// spinnerOut receives spinner frames.
var spinnerOut io.Writer = os.Stderr

// Spinner is a one-line progress indicator that stops when its context ends.
type Spinner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string

	mu      sync.Mutex
	message string
	width   int // widest message printed, for clearing
	started bool
	once    sync.Once
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		width:   len(message),
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(spinnerOut, "\r%s %s", styleIconSpinner.Render(s.frames[i%len(s.frames)]), StyleDim.Render(s.message))
				s.mu.Unlock()
			}
		}
	}()
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
	s.width = max(s.width, len(msg))
}

// Message returns the current text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop halts the animation and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if !started {
			return
		}
		<-s.stopped
		s.clearLine()
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(spinnerOut, "\r%s\r", strings.Repeat(" ", s.width+4))
}

func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended before Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// iterationHooks reports engine progress on a spinner.
type iterationHooks struct {
	observability.NoopEngineHooks
	spinner *Spinner
	total   int
}

func (h iterationHooks) OnIteration(_ context.Context, iteration int, temperature, _ float64) {
	h.spinner.SetMessage(fmt.Sprintf("Laying out... iteration %d/%d (T=%.3f)", iteration+1, h.total, temperature))
}

// trackIterations routes engine hooks to s until the returned func is called.
func trackIterations(s *Spinner, total int) (restore func()) {
	prev := observability.Engine()
	observability.SetEngineHooks(fanoutEngineHooks{prev, iterationHooks{spinner: s, total: total}})
	return func() { observability.SetEngineHooks(prev) }
}

// fanoutEngineHooks forwards every event to each hook in order.
type fanoutEngineHooks []observability.EngineHooks

func (f fanoutEngineHooks) OnIteration(ctx context.Context, iteration int, temperature, maxMove float64) {
	for _, h := range f {
		h.OnIteration(ctx, iteration, temperature, maxMove)
	}
}

func (f fanoutEngineHooks) OnSettled(ctx context.Context, iterations int) {
	for _, h := range f {
		h.OnSettled(ctx, iterations)
	}
}
