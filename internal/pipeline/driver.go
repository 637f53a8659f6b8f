package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"

	"smartcopy/pkg/ai"
)

// TextStore is the persistence surface the driver needs; satisfied by
// repository.TextRepository.
type TextStore interface {
	ListClaimable(limit int) ([]models.Text, error)
	Claim(id uint) (bool, error)
	GetByID(id uint) (*models.Text, error)
	Save(t *models.Text) error
	OrderStatus(textID uint) (string, error)
}

// OrderTracker drives order status off aggregate text completion; satisfied
// by repository.OrderRepository.
type OrderTracker interface {
	MarkInProgress(orderID uint) error
	CompleteIfAllTextsDone(orderID uint) (bool, error)
}

// errCancelled aborts a text whose order was cancelled mid-stage. It is
// never retried; the text gets the cancelled marker instead of failed.
var errCancelled = errors.New("order cancelled")

// SourceFetcher scrapes selected sources; satisfied by scraper.Scraper.
type SourceFetcher interface {
	FetchAll(ctx context.Context, urls []string) []string
}

type Options struct {
	ScanInterval time.Duration
	Concurrency  int
	StageRetries int
	RetryBackoff time.Duration
	// Texts at or above this length get a structuring pass even with one page.
	StructureThresholdChars int
}

// Driver progresses texts through the generation stages. Texts run
// concurrently up to Concurrency; stages within one text are strictly
// sequential, each stage's output feeding the next.
type Driver struct {
	texts    TextStore
	orders   OrderTracker
	provider ai.Provider
	fetcher  SourceFetcher
	notifier Notifier
	opts     Options

	wg  sync.WaitGroup
	sem chan struct{}
}

func NewDriver(texts TextStore, orders OrderTracker, provider ai.Provider, fetcher SourceFetcher, notifier Notifier, opts Options) *Driver {
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = 3 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.StageRetries <= 0 {
		opts.StageRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	if opts.StructureThresholdChars <= 0 {
		opts.StructureThresholdChars = 6000
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Driver{
		texts:    texts,
		orders:   orders,
		provider: provider,
		fetcher:  fetcher,
		notifier: notifier,
		opts:     opts,
		sem:      make(chan struct{}, opts.Concurrency),
	}
}

// Run scans for claimable texts until ctx is cancelled, then waits for
// in-flight texts to finish their current stage.
func (d *Driver) Run(ctx context.Context) {
	log.Printf("[pipeline] driver started (interval=%s workers=%d)", d.opts.ScanInterval, d.opts.Concurrency)
	tick := time.NewTicker(d.opts.ScanInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			log.Printf("[pipeline] driver stopped")
			return
		case <-tick.C:
			d.scan(ctx)
		}
	}
}

func (d *Driver) scan(ctx context.Context) {
	claimable, err := d.texts.ListClaimable(d.opts.Concurrency * 2)
	if err != nil {
		log.Printf("[pipeline] scan failed: %v", err)
		return
	}
	for _, t := range claimable {
		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		ok, err := d.texts.Claim(t.ID)
		if err != nil || !ok {
			<-d.sem
			continue
		}
		_ = d.orders.MarkInProgress(t.OrderID)
		d.notifier.TextAdvanced(t.ID, domain.StageQuery)
		d.wg.Add(1)
		go func(id uint) {
			defer d.wg.Done()
			defer func() { <-d.sem }()
			d.ProcessText(ctx, id)
		}(t.ID)
	}
}

// ProcessText runs the full stage sequence for one already-claimed text.
func (d *Driver) ProcessText(ctx context.Context, textID uint) {
	t, err := d.texts.GetByID(textID)
	if err != nil {
		log.Printf("[pipeline] text %d: load failed: %v", textID, err)
		return
	}
	stages := []struct {
		name string
		run  func(context.Context, *models.Text) error
		skip func(*models.Text) bool
	}{
		{name: domain.StageQuery, run: d.queryStage},
		{name: domain.StageSelecting, run: d.selectStage},
		{name: domain.StageStructuring, run: d.structureStage, skip: func(t *models.Text) bool {
			return t.Pages <= 1 && t.Length < d.opts.StructureThresholdChars
		}},
		{name: domain.StageWriting, run: d.writeStage},
	}
	for _, stage := range stages {
		if d.cancelled(t.ID) {
			d.abandon(t)
			return
		}
		if stage.skip != nil && stage.skip(t) {
			continue
		}
		if err := d.advance(t, stage.name); err != nil {
			log.Printf("[pipeline] text %d: advance to %s failed: %v", t.ID, stage.name, err)
			return
		}
		if err := d.runWithRetry(ctx, t, stage.name, stage.run); err != nil {
			if errors.Is(err, errCancelled) {
				d.abandon(t)
				return
			}
			// Progress stays at the failed stage so a stuck text is
			// distinguishable from a slow one; after retries are exhausted
			// the explicit failed marker takes over.
			d.fail(t, stage.name, err)
			return
		}
	}
	d.complete(t)
}

func (d *Driver) advance(t *models.Text, stage string) error {
	if t.Progress == stage {
		return nil
	}
	t.Progress = stage
	if err := d.texts.Save(t); err != nil {
		return err
	}
	d.notifier.TextAdvanced(t.ID, stage)
	return nil
}

func (d *Driver) runWithRetry(ctx context.Context, t *models.Text, stage string, run func(context.Context, *models.Text) error) error {
	backoff := d.opts.RetryBackoff
	var err error
	for attempt := 1; attempt <= d.opts.StageRetries; attempt++ {
		err = run(ctx, t)
		if err == nil {
			return nil
		}
		if errors.Is(err, errCancelled) || ctx.Err() != nil {
			return err
		}
		log.Printf("[pipeline] text %d: stage %s attempt %d/%d failed: %v", t.ID, stage, attempt, d.opts.StageRetries, err)
		if attempt < d.opts.StageRetries {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return err
			}
			backoff *= 2
		}
	}
	return err
}

func (d *Driver) fail(t *models.Text, stage string, err error) {
	log.Printf("[pipeline] text %d: stage %s exhausted retries: %v", t.ID, stage, err)
	t.Progress = domain.StageFailed
	if saveErr := d.texts.Save(t); saveErr != nil {
		log.Printf("[pipeline] text %d: persist failed marker: %v", t.ID, saveErr)
		return
	}
	d.notifier.TextAdvanced(t.ID, domain.StageFailed)
}

// abandon writes the cancelled marker so a text given up mid-flight reads as
// terminal to polling clients instead of frozen at its last stage.
func (d *Driver) abandon(t *models.Text) {
	log.Printf("[pipeline] text %d: order cancelled, abandoning", t.ID)
	t.Progress = domain.StageCancelled
	if err := d.texts.Save(t); err != nil {
		log.Printf("[pipeline] text %d: persist cancelled marker: %v", t.ID, err)
		return
	}
	d.notifier.TextAdvanced(t.ID, domain.StageCancelled)
}

func (d *Driver) complete(t *models.Text) {
	t.Progress = domain.StageCompleted
	if err := d.texts.Save(t); err != nil {
		log.Printf("[pipeline] text %d: persist completion: %v", t.ID, err)
		return
	}
	d.notifier.TextAdvanced(t.ID, domain.StageCompleted)
	done, err := d.orders.CompleteIfAllTextsDone(t.OrderID)
	if err != nil {
		log.Printf("[pipeline] order %d: completion check: %v", t.OrderID, err)
		return
	}
	if done {
		log.Printf("[pipeline] order %d completed", t.OrderID)
	}
}

func (d *Driver) cancelled(textID uint) bool {
	status, err := d.texts.OrderStatus(textID)
	if err != nil {
		return false
	}
	return status == domain.OrderStatusCancelled
}

// queryStage asks the provider for a search query to find source material.
func (d *Driver) queryStage(ctx context.Context, t *models.Text) error {
	prompt := queryPrompt(t.Topic, t.Language)
	resp, err := d.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}
	t.QueryPrompt = prompt
	t.QueryResponse = resp
	a := t.Artifacts()
	a.GoogleQuery = strings.TrimSpace(resp)
	if err := t.SetArtifacts(a); err != nil {
		return err
	}
	return d.texts.Save(t)
}

// selectStage ranks candidate sources, then scrapes them.
func (d *Driver) selectStage(ctx context.Context, t *models.Text) error {
	a := t.Artifacts()
	prompt := selectPrompt(t.Topic, a.GoogleQuery)
	resp, err := d.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}
	t.SelectPrompt = prompt
	t.SelectResponse = resp
	a.SelectedSources = parseSourceURLs(resp, 5)
	if d.fetcher != nil && len(a.SelectedSources) > 0 {
		a.ScrapedContent = d.fetcher.FetchAll(ctx, a.SelectedSources)
	}
	if err := t.SetArtifacts(a); err != nil {
		return err
	}
	return d.texts.Save(t)
}

// structureStage produces an outline for multi-section texts.
func (d *Driver) structureStage(ctx context.Context, t *models.Text) error {
	prompt := structurePrompt(t.Topic, t.Language, t.Length, d.sectionCount(t))
	resp, err := d.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}
	t.StructurePrompt = prompt
	t.StructureResponse = resp
	return d.texts.Save(t)
}

// writeStage runs one writer pass per section. Each pass persists its
// prompt/response as a pair, so the parallel arrays stay aligned at every
// point, and a mid-write failure keeps the completed passes.
func (d *Driver) writeStage(ctx context.Context, t *models.Text) error {
	sections := d.sectionCount(t)
	sectionLength := t.Length / sections
	a := t.Artifacts()
	for pass := len(t.WriterPromptList()) + 1; pass <= sections; pass++ {
		if d.cancelled(t.ID) {
			return errCancelled
		}
		prompt := writerPrompt(t.Topic, t.Language, t.TextType, t.StructureResponse, pass, sections, sectionLength, a.ScrapedContent)
		resp, err := d.provider.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return err
		}
		if err := t.AppendWriterPass(prompt, resp); err != nil {
			return err
		}
		if err := d.texts.Save(t); err != nil {
			return err
		}
	}
	a.GeneratedContent = renderContent(t.WriterResponseList())
	if err := t.SetArtifacts(a); err != nil {
		return err
	}
	return d.texts.Save(t)
}

// sectionCount splits long texts so each writer pass stays inside model
// context limits.
func (d *Driver) sectionCount(t *models.Text) int {
	sections := t.Pages
	if sections < 1 {
		sections = 1
	}
	if t.Length >= d.opts.StructureThresholdChars {
		byLength := t.Length / d.opts.StructureThresholdChars
		if byLength+1 > sections {
			sections = byLength + 1
		}
	}
	return sections
}
