package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

// State names a position in the cycle state machine.
type State string

const (
	StateIdle           State = "idle"
	StateScraping       State = "scraping"
	StateDeduplicating  State = "deduplicating"
	StateURLCleaning    State = "url_cleaning"
	StateFiltering      State = "filtering"
	StateLinkValidating State = "link_validating"
	StateEnhancing      State = "enhancing"
	StateClassifying    State = "classifying"
	StateServing        State = "serving"
)

// stageOrder is the fixed transition order between Idle and Serving.
var stageOrder = []State{
	StateScraping,
	StateDeduplicating,
	StateURLCleaning,
	StateFiltering,
	StateLinkValidating,
	StateEnhancing,
	StateClassifying,
}

// Mode selects which stages a cycle executes.
type Mode string

const (
	ModeRun      Mode = "run"
	ModeScrape   Mode = "scrape"
	ModeClean    Mode = "clean"
	ModeClassify Mode = "classify"
)

// ParseMode maps a CLI selector to a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeRun, "":
		return ModeRun, nil
	case ModeScrape:
		return ModeScrape, nil
	case ModeClean:
		return ModeClean, nil
	case ModeClassify:
		return ModeClassify, nil
	}
	return "", fmt.Errorf("unknown mode %q", value)
}

// States returns the stages selected by the mode in execution order.
func (m Mode) States() []State {
	switch m {
	case ModeScrape:
		return []State{StateScraping}
	case ModeClean:
		return []State{StateDeduplicating, StateURLCleaning, StateFiltering, StateLinkValidating, StateEnhancing}
	case ModeClassify:
		return []State{StateClassifying}
	default:
		return slices.Clone(stageOrder)
	}
}

// NeedsClassifier reports whether the mode includes the Classifying stage.
func (m Mode) NeedsClassifier() bool {
	return slices.Contains(m.States(), StateClassifying)
}
