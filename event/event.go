// Package event defines the broker message tagged union that fuzz
// instances emit toward the console/broker (spec.md 5, 9): a sealed
// interface with one concrete struct per variant, the same polymorphism
// style abstractfs.Operation uses for syscall operations.
package event

import "time"

// Kind tags which Message variant a value carries.
type Kind int

const (
	KindError Kind = iota
	KindBlackBoxStats
	KindGreyBoxStats
	KindInfo
	KindWarn
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "Error"
	case KindBlackBoxStats:
		return "BlackBoxStats"
	case KindGreyBoxStats:
		return "GreyBoxStats"
	case KindInfo:
		return "Info"
	case KindWarn:
		return "Warn"
	default:
		return "Unknown"
	}
}

// Message is the sealed interface every broker event implements.
type Message interface {
	Kind() Kind
	InstanceID() string
	At() time.Time
}

type base struct {
	Instance string
	When     time.Time
}

func (b base) InstanceID() string { return b.Instance }
func (b base) At() time.Time      { return b.When }

// Error reports a fatal or recoverable instance-level failure.
type Error struct {
	base
	Err error
}

func (Error) Kind() Kind { return KindError }

func NewError(instance string, when time.Time, err error) Error {
	return Error{base: base{Instance: instance, When: when}, Err: err}
}

// BlackBoxStats is a periodic heartbeat from a blackbox instance.
type BlackBoxStats struct {
	base
	TestsRun       uint64
	CrashesFound   uint64
	AccidentsFound uint64
}

func (BlackBoxStats) Kind() Kind { return KindBlackBoxStats }

func NewBlackBoxStats(instance string, when time.Time, testsRun, crashes, accidents uint64) BlackBoxStats {
	return BlackBoxStats{base: base{Instance: instance, When: when}, TestsRun: testsRun, CrashesFound: crashes, AccidentsFound: accidents}
}

// GreyBoxStats is a periodic heartbeat from a greybox instance,
// additionally carrying corpus/coverage state.
type GreyBoxStats struct {
	base
	TestsRun       uint64
	CrashesFound   uint64
	AccidentsFound uint64
	CorpusSize     uint64
	CoverageSize   uint64
}

func (GreyBoxStats) Kind() Kind { return KindGreyBoxStats }

func NewGreyBoxStats(instance string, when time.Time, testsRun, crashes, accidents, corpusSize, coverageSize uint64) GreyBoxStats {
	return GreyBoxStats{
		base:           base{Instance: instance, When: when},
		TestsRun:       testsRun,
		CrashesFound:   crashes,
		AccidentsFound: accidents,
		CorpusSize:     corpusSize,
		CoverageSize:   coverageSize,
	}
}

// Info is a routine, non-error progress message.
type Info struct {
	base
	Text string
}

func (Info) Kind() Kind { return KindInfo }

func NewInfo(instance string, when time.Time, text string) Info {
	return Info{base: base{Instance: instance, When: when}, Text: text}
}

// Warn is a non-fatal anomaly worth surfacing but not aborting over.
type Warn struct {
	base
	Text string
}

func (Warn) Kind() Kind { return KindWarn }

func NewWarn(instance string, when time.Time, text string) Warn {
	return Warn{base: base{Instance: instance, When: when}, Text: text}
}
