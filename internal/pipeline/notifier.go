package pipeline

import "log"

// Notifier observes stage transitions. The client contract stays poll-based;
// this seam exists so a push transport could subscribe later without
// changing the driver.
type Notifier interface {
	TextAdvanced(textID uint, stage string)
}

// LogNotifier is the default observer.
type LogNotifier struct{}

func (LogNotifier) TextAdvanced(textID uint, stage string) {
	log.Printf("[pipeline] text %d -> %s", textID, stage)
}
