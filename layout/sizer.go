package layout

import (
	"fmt"
	"log/slog"
)

// Sizer 按顺序把事件转换为带尺寸的事件，每个原子只测量一次。
// 它只能向前消费一次输入，不缓存也不重排。
type Sizer struct {
	events   []Event
	pos      int
	metrics  Metrics
	logger   *slog.Logger
	warnings []error
}

// NewSizer 创建测量器；logger 为空时使用 slog.Default()。
func NewSizer(events []Event, metrics Metrics, logger *slog.Logger) *Sizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sizer{events: events, metrics: metrics, logger: logger}
}

// Next 返回下一个带尺寸的事件，输入耗尽时第二个返回值为 false。
func (s *Sizer) Next() (SizedEvent, bool) {
	if s.pos >= len(s.events) {
		return SizedEvent{}, false
	}
	ev := s.events[s.pos]
	s.pos++
	if ev.Kind != EventAtom {
		return SizedEvent{Event: ev}, true
	}

	switch ev.Atom.Kind {
	case AtomImage:
		w, h, err := s.metrics.ImageSize(ev.Atom.URI)
		if err != nil {
			s.logger.Warn("无法加载图片，使用占位尺寸", "uri", ev.Atom.URI, "err", err)
			s.warnings = append(s.warnings, fmt.Errorf("图片 %s: %w", ev.Atom.URI, err))
			w, h = FallbackImageSize, FallbackImageSize
		}
		return SizedEvent{Event: ev, Width: w, Height: h}, true
	default:
		w, h := s.metrics.MeasureText(ev.Atom.Style, ev.Atom.Text)
		return SizedEvent{Event: ev, Width: w, Height: h}, true
	}
}

// Warnings 返回测量过程中记录的可恢复错误。
func (s *Sizer) Warnings() []error {
	return s.warnings
}
