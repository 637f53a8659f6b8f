package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"
)

type fakeTextStore struct {
	mu          sync.Mutex
	texts       map[uint]*models.Text
	orderStatus map[uint]string // keyed by order ID
}

func newFakeTextStore() *fakeTextStore {
	return &fakeTextStore{texts: map[uint]*models.Text{}, orderStatus: map[uint]string{}}
}

func (s *fakeTextStore) add(t *models.Text) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.texts[t.ID] = &cp
	if _, ok := s.orderStatus[t.OrderID]; !ok {
		s.orderStatus[t.OrderID] = domain.OrderStatusPending
	}
}

func (s *fakeTextStore) ListClaimable(limit int) ([]models.Text, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Text
	for _, t := range s.texts {
		status := s.orderStatus[t.OrderID]
		if t.Progress == "" && (status == domain.OrderStatusPending || status == domain.OrderStatusInProgress) {
			out = append(out, *t)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeTextStore) Claim(id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.texts[id]
	if !ok || t.Progress != "" {
		return false, nil
	}
	now := time.Now()
	t.Progress = domain.StageQuery
	t.StartTime = &now
	return true, nil
}

func (s *fakeTextStore) GetByID(id uint) (*models.Text, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.texts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTextStore) Save(t *models.Text) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Parallel-array invariant must hold at every persist.
	if len(decodeStringListForTest(t.WriterPrompts)) != len(decodeStringListForTest(t.WriterResponses)) {
		return errors.New("writer arrays out of alignment")
	}
	cp := *t
	s.texts[t.ID] = &cp
	return nil
}

func (s *fakeTextStore) OrderStatus(textID uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.texts[textID]
	if !ok {
		return "", errors.New("not found")
	}
	return s.orderStatus[t.OrderID], nil
}

func (s *fakeTextStore) setOrderStatus(orderID uint, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderStatus[orderID] = status
}

func decodeStringListForTest(s string) []string {
	if s == "" {
		return nil
	}
	t := models.Text{WriterPrompts: s}
	return t.WriterPromptList()
}

type fakeOrderTracker struct {
	mu         sync.Mutex
	inProgress []uint
	completed  []uint
	store      *fakeTextStore
}

func (f *fakeOrderTracker) MarkInProgress(orderID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inProgress = append(f.inProgress, orderID)
	f.store.setOrderStatus(orderID, domain.OrderStatusInProgress)
	return nil
}

func (f *fakeOrderTracker) CompleteIfAllTextsDone(orderID uint) (bool, error) {
	f.store.mu.Lock()
	for _, t := range f.store.texts {
		if t.OrderID == orderID && t.Progress != domain.StageCompleted {
			f.store.mu.Unlock()
			return false, nil
		}
	}
	f.store.mu.Unlock()
	f.mu.Lock()
	f.completed = append(f.completed, orderID)
	f.mu.Unlock()
	f.store.setOrderStatus(orderID, domain.OrderStatusCompleted)
	return true, nil
}

// scriptedProvider answers by stage keyword, optionally failing first.
type scriptedProvider struct {
	mu         sync.Mutex
	calls      int
	failSubstr string
	failCount  int
	onCall     func(call int, user string)
}

func (p *scriptedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.onCall != nil {
		p.onCall(p.calls, user)
	}
	if p.failSubstr != "" && strings.Contains(user, p.failSubstr) && p.failCount != 0 {
		if p.failCount > 0 {
			p.failCount--
		}
		return "", errors.New("provider unavailable")
	}
	switch {
	case strings.Contains(user, "Write section"):
		return fmt.Sprintf("<p>section content %d</p>", p.calls), nil
	case strings.Contains(user, "URLs of authoritative sources"):
		return "https://example.com/a\nhttps://example.com/b", nil
	case strings.Contains(user, "outline"):
		return "Intro\nCare\nConclusion", nil
	default:
		return "espresso machine maintenance guide", nil
	}
}

type fakeFetcher struct{}

func (fakeFetcher) FetchAll(ctx context.Context, urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = "scraped text from " + u
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	stages []string
}

func (n *recordingNotifier) TextAdvanced(textID uint, stage string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stages = append(n.stages, stage)
}

func newTestDriver(store *fakeTextStore, provider *scriptedProvider, notifier Notifier) (*Driver, *fakeOrderTracker) {
	tracker := &fakeOrderTracker{store: store}
	d := NewDriver(store, tracker, provider, fakeFetcher{}, notifier, Options{
		ScanInterval:            time.Millisecond,
		Concurrency:             2,
		StageRetries:            3,
		RetryBackoff:            time.Millisecond,
		StructureThresholdChars: 6000,
	})
	return d, tracker
}

func claim(t *testing.T, store *fakeTextStore, id uint) {
	t.Helper()
	ok, err := store.Claim(id)
	if err != nil || !ok {
		t.Fatalf("claim text %d: ok=%v err=%v", id, ok, err)
	}
}

func TestProcessTextShortSinglePass(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 1, OrderID: 10, Topic: "espresso machines", Length: 2000, Pages: 1, Language: "en", TextType: domain.TextTypeArticle})
	provider := &scriptedProvider{}
	notifier := &recordingNotifier{}
	d, tracker := newTestDriver(store, provider, notifier)

	claim(t, store, 1)
	d.ProcessText(context.Background(), 1)

	got, _ := store.GetByID(1)
	if got.Progress != domain.StageCompleted {
		t.Fatalf("progress = %q, want completed", got.Progress)
	}
	if got.QueryPrompt == "" || got.QueryResponse == "" {
		t.Error("query prompt/response not persisted")
	}
	if got.SelectPrompt == "" || got.SelectResponse == "" {
		t.Error("select prompt/response not persisted")
	}
	if got.StructurePrompt != "" {
		t.Error("short single-page text should skip structuring")
	}
	prompts, responses := got.WriterPromptList(), got.WriterResponseList()
	if len(prompts) != 1 || len(responses) != 1 {
		t.Fatalf("writer passes = %d/%d, want 1/1", len(prompts), len(responses))
	}
	a := got.Artifacts()
	if a.GoogleQuery == "" {
		t.Error("googleQuery artifact missing")
	}
	if len(a.SelectedSources) != 2 || len(a.ScrapedContent) != 2 {
		t.Errorf("sources = %d, scraped = %d, want 2/2", len(a.SelectedSources), len(a.ScrapedContent))
	}
	if a.GeneratedContent != responses[0] {
		t.Errorf("generatedContent = %q, want %q", a.GeneratedContent, responses[0])
	}
	if len(tracker.completed) != 1 || tracker.completed[0] != 10 {
		t.Errorf("order completion = %v, want [10]", tracker.completed)
	}
	last := notifier.stages[len(notifier.stages)-1]
	if last != domain.StageCompleted {
		t.Errorf("last notified stage = %q, want completed", last)
	}
}

func TestProcessTextMultiSection(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 2, OrderID: 20, Topic: "long read", Length: 3000, Pages: 3, Language: "en", TextType: domain.TextTypeBlogPost})
	provider := &scriptedProvider{}
	d, _ := newTestDriver(store, provider, nil)

	claim(t, store, 2)
	d.ProcessText(context.Background(), 2)

	got, _ := store.GetByID(2)
	if got.Progress != domain.StageCompleted {
		t.Fatalf("progress = %q, want completed", got.Progress)
	}
	if got.StructurePrompt == "" || got.StructureResponse == "" {
		t.Error("multi-page text should run structuring")
	}
	prompts, responses := got.WriterPromptList(), got.WriterResponseList()
	if len(prompts) != 3 || len(responses) != 3 {
		t.Fatalf("writer passes = %d/%d, want 3/3", len(prompts), len(responses))
	}
	a := got.Artifacts()
	for _, r := range responses {
		if !strings.Contains(a.GeneratedContent, strings.TrimSpace(r)) {
			t.Errorf("generatedContent missing pass output %q", r)
		}
	}
}

func TestStageFailureMarksFailedAfterRetries(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 3, OrderID: 30, Topic: "doomed", Length: 1000, Pages: 1, Language: "en", TextType: domain.TextTypeArticle})
	// Selection stage always fails.
	provider := &scriptedProvider{failSubstr: "URLs of authoritative sources", failCount: -1}
	d, tracker := newTestDriver(store, provider, nil)

	claim(t, store, 3)
	d.ProcessText(context.Background(), 3)

	got, _ := store.GetByID(3)
	if got.Progress != domain.StageFailed {
		t.Fatalf("progress = %q, want failed", got.Progress)
	}
	// The stage before the failure still carries its audit trail.
	if got.QueryResponse == "" {
		t.Error("query stage output lost on later failure")
	}
	if got.SelectResponse != "" {
		t.Error("failed stage must not record a response")
	}
	if len(tracker.completed) != 0 {
		t.Errorf("failed text must not complete its order, got %v", tracker.completed)
	}
}

func TestStageRetrySucceedsAfterTransientError(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 4, OrderID: 40, Topic: "flaky", Length: 1000, Pages: 1, Language: "en", TextType: domain.TextTypeArticle})
	// First two selection attempts fail, third succeeds.
	provider := &scriptedProvider{failSubstr: "URLs of authoritative sources", failCount: 2}
	d, _ := newTestDriver(store, provider, nil)

	claim(t, store, 4)
	d.ProcessText(context.Background(), 4)

	got, _ := store.GetByID(4)
	if got.Progress != domain.StageCompleted {
		t.Fatalf("progress = %q, want completed after retry", got.Progress)
	}
}

func TestCancelledOrderAbandonsText(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 5, OrderID: 50, Topic: "cancelled", Length: 1000, Pages: 1, Language: "en", TextType: domain.TextTypeArticle})
	provider := &scriptedProvider{}
	notifier := &recordingNotifier{}
	d, tracker := newTestDriver(store, provider, notifier)

	claim(t, store, 5)
	store.setOrderStatus(50, domain.OrderStatusCancelled)
	d.ProcessText(context.Background(), 5)

	got, _ := store.GetByID(5)
	if got.Progress != domain.StageCancelled {
		t.Fatalf("progress = %q, want cancelled marker", got.Progress)
	}
	if !got.IsTerminal() {
		t.Error("abandoned text must read as terminal")
	}
	if provider.calls != 0 {
		t.Errorf("no provider calls expected after cancellation, got %d", provider.calls)
	}
	if len(tracker.completed) != 0 {
		t.Errorf("cancelled order must not complete, got %v", tracker.completed)
	}
	if n := len(notifier.stages); n == 0 || notifier.stages[n-1] != domain.StageCancelled {
		t.Errorf("stages = %v, want cancelled last", notifier.stages)
	}
}

func TestCancelledMidWritingAbandonsText(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 7, OrderID: 70, Topic: "long guide", Length: 9000, Pages: 3, Language: "en", TextType: domain.TextTypeArticle})
	provider := &scriptedProvider{}
	// Cancel the order while the first section is being written.
	provider.onCall = func(call int, user string) {
		if strings.Contains(user, "Write section") {
			store.setOrderStatus(70, domain.OrderStatusCancelled)
		}
	}
	d, tracker := newTestDriver(store, provider, nil)

	claim(t, store, 7)
	d.ProcessText(context.Background(), 7)

	got, _ := store.GetByID(7)
	if got.Progress != domain.StageCancelled {
		t.Fatalf("progress = %q, want cancelled marker", got.Progress)
	}
	if got.Progress == domain.StageFailed {
		t.Error("cancellation must not be reported as a failure")
	}
	// query + select + structure + one writer pass; cancellation is seen
	// before the second pass and must not be retried.
	if provider.calls != 4 {
		t.Errorf("provider calls = %d, want 4", provider.calls)
	}
	if len(tracker.completed) != 0 {
		t.Errorf("cancelled order must not complete, got %v", tracker.completed)
	}
}

func TestScanClaimsAndRuns(t *testing.T) {
	store := newFakeTextStore()
	store.add(&models.Text{ID: 6, OrderID: 60, Topic: "scanned", Length: 1000, Pages: 1, Language: "en", TextType: domain.TextTypeArticle})
	provider := &scriptedProvider{}
	d, tracker := newTestDriver(store, provider, nil)

	d.scan(context.Background())
	d.wg.Wait()

	got, _ := store.GetByID(6)
	if got.Progress != domain.StageCompleted {
		t.Fatalf("progress = %q, want completed", got.Progress)
	}
	if got.StartTime == nil {
		t.Error("claim must set start time")
	}
	if len(tracker.inProgress) != 1 || tracker.inProgress[0] != 60 {
		t.Errorf("order not marked in progress: %v", tracker.inProgress)
	}
}
