package market

import (
	"fmt"
	"sync"
)

// BookSource 提供单一标的的原始盘口。
type BookSource interface {
	Book(inst Instrument, limit int) (RawBook, error)
}

// Service 并发拉取三个标的盘口并合并。篮子定价互相依赖，
// 三份快照必须来自尽量接近的时刻，任一失败则整轮失败。
type Service struct {
	Source   BookSource
	TraderID string
	Depth    int
}

// Snapshot 返回全部标的的合并盘口；部分结果不可用作定价输入。
func (s *Service) Snapshot() (map[Instrument]Book, error) {
	if s.Source == nil {
		return nil, fmt.Errorf("book source not set")
	}
	depth := s.Depth
	if depth <= 0 {
		depth = 200
	}

	insts := Instruments()
	raws := make([]RawBook, len(insts))
	errs := make([]error, len(insts))

	var wg sync.WaitGroup
	for i, inst := range insts {
		wg.Add(1)
		go func(i int, inst Instrument) {
			defer wg.Done()
			raws[i], errs[i] = s.Source.Book(inst, depth)
		}(i, inst)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fetch %s book: %w", insts[i], err)
		}
	}

	books := make(map[Instrument]Book, len(insts))
	for i, inst := range insts {
		books[inst] = Consolidate(raws[i], s.TraderID)
	}
	return books, nil
}
