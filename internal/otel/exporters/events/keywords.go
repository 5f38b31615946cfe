package events

// KeywordLevelProvider supplies the keyword and level used for each class of event.
//
// Drivers are parameterized over the provider type, so a custom policy costs no more
// than [Keywords].
type KeywordLevelProvider interface {
	// SpanKeyword is the keyword for span lifecycle (start and stop) and Common Schema span events.
	SpanKeyword() uint64
	// SpanLevel is the level of realtime lifecycle events. Batch exports use the level
	// derived from the span status instead.
	SpanLevel() Level

	EventKeyword() uint64
	EventLevel() Level

	LinkKeyword() uint64
	LinkLevel() Level

	// LogKeyword is the keyword for log events. Their level comes from the record severity.
	LogKeyword() uint64
	// LogLevel is the level of Common Schema log events, and of log events without a severity.
	LogLevel() Level
}

// Default keywords.
const (
	KeywordSpan  uint64 = 0x1
	KeywordEvent uint64 = 0x10
	KeywordLink  uint64 = 0x100
	KeywordLog   uint64 = 0x1000
)

// Keywords is a fixed [KeywordLevelProvider].
type Keywords struct {
	Span  uint64
	Event uint64
	Link  uint64
	Log   uint64

	SpanLvl  Level
	EventLvl Level
	LinkLvl  Level
	LogLvl   Level
}

var _ KeywordLevelProvider = Keywords{}

// DefaultKeywords returns the default keywords and levels.
func DefaultKeywords() Keywords {
	return Keywords{
		Span:     KeywordSpan,
		Event:    KeywordEvent,
		Link:     KeywordLink,
		Log:      KeywordLog,
		SpanLvl:  LevelInformational,
		EventLvl: LevelVerbose,
		LinkLvl:  LevelVerbose,
		LogLvl:   LevelInformational,
	}
}

func (k Keywords) SpanKeyword() uint64  { return k.Span }
func (k Keywords) SpanLevel() Level     { return k.SpanLvl }
func (k Keywords) EventKeyword() uint64 { return k.Event }
func (k Keywords) EventLevel() Level    { return k.EventLvl }
func (k Keywords) LinkKeyword() uint64  { return k.Link }
func (k Keywords) LinkLevel() Level     { return k.LinkLvl }
func (k Keywords) LogKeyword() uint64   { return k.Log }
func (k Keywords) LogLevel() Level      { return k.LogLvl }

// EventSet is a (level, keyword) pair that a platform must be able to report on and write.
type EventSet struct {
	Level   Level
	Keyword uint64
}

// EventSets returns every (level, keyword) pair a driver using k may write, without duplicates.
//
// Span and log events can be written at any level from Critical to Verbose, since
// their level depends on the span status or log severity.
func EventSets(k KeywordLevelProvider) []EventSet {
	var sets []EventSet
	add := func(l Level, kw uint64) {
		s := EventSet{Level: l, Keyword: kw}
		for _, o := range sets {
			if o == s {
				return
			}
		}
		sets = append(sets, s)
	}

	for _, kw := range []uint64{k.SpanKeyword(), k.LogKeyword()} {
		for l := LevelCritical; l <= LevelVerbose; l++ {
			add(l, kw)
		}
	}
	add(k.SpanLevel(), k.SpanKeyword())
	add(k.EventLevel(), k.EventKeyword())
	add(k.LinkLevel(), k.LinkKeyword())
	add(k.LogLevel(), k.LogKeyword())
	return sets
}
