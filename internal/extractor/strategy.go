package extractor

// Attempt 单个启发式策略的结果
type Attempt[T any] struct {
	Value    T
	Matched  bool
	Strategy string
}

// Success 构造命中结果
func Success[T any](strategy string, v T) Attempt[T] {
	return Attempt[T]{Value: v, Matched: true, Strategy: strategy}
}

// NoMatch 构造未命中结果
func NoMatch[T any](strategy string) Attempt[T] {
	return Attempt[T]{Strategy: strategy}
}

type strategy[T any] struct {
	name string
	run  func() Attempt[T]
}

// firstSuccess 按顺序执行策略，返回第一个命中的结果；全部未命中时返回零值且Matched为false
func firstSuccess[T any](strategies []strategy[T]) Attempt[T] {
	for _, s := range strategies {
		if a := s.run(); a.Matched {
			if a.Strategy == "" {
				a.Strategy = s.name
			}
			return a
		}
	}
	return Attempt[T]{}
}
